package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/liamharte04/EEECS-PingPong/internal/core"
	"github.com/liamharte04/EEECS-PingPong/internal/netplay"
	"github.com/liamharte04/EEECS-PingPong/internal/platform/tui"
	"github.com/liamharte04/EEECS-PingPong/internal/sim"
	"github.com/liamharte04/EEECS-PingPong/internal/transport"
)

var (
	flagSeed  int64
	flagSkill float64
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Practice against a computer opponent",
	Long: `Start a local practice session against a computer opponent.

Both sides of the session run in this process over an in-memory link,
so practice exercises the same replication path as a networked match.

Controls:
  Arrows/WASD - Move paddle
  Space       - Serve
  Q/Ctrl+C    - Quit

Examples:
  pingpong play
  pingpong play --preset quick
  pingpong play --skill 0.9`,
	Run: runPlay,
}

func init() {
	playCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	playCmd.Flags().Float64Var(&flagSkill, "skill", 0.7, "Opponent skill in (0, 1]")
}

func runPlay(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	left, right := transport.NewLoopbackPair(transport.DefaultQueueSize)
	matchID := netplay.MatchID("practice")

	rivalSeed := int64(0)
	if flagSeed != 0 {
		rivalSeed = flagSeed + 1
	}

	session := netplay.NewChannelSession("local", 64)
	player := netplay.NewPeer(netplay.PeerOptions{
		Self:      netplay.Participant1,
		MatchID:   matchID,
		Config:    cfg,
		Transport: left,
		Session:   session,
		Seed:      flagSeed,
	})

	botSession := netplay.NewChannelSession("bot", 64)
	rival := netplay.NewPeer(netplay.PeerOptions{
		Self:      netplay.Participant2,
		MatchID:   matchID,
		Config:    cfg,
		Transport: right,
		Session:   botSession,
		Seed:      rivalSeed,
	})

	go player.Run(nil)
	go rival.Run(nil)
	go runBot(rival, botSession, flagSkill)

	width, height := termSize()
	model := tui.NewMatchModel(cfg, netplay.Participant1, player.SendInput,
		session.Events(), width, height).QuitOnLeave()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()

	player.Stop()
	rival.Stop()
	session.Close()
	botSession.Close()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running session: %v\n", runErr)
		os.Exit(1)
	}
}

// runBot drives the computer opponent from its own snapshot stream,
// the same feed a human player would render from.
func runBot(peer *netplay.Peer, session *netplay.ChannelSession, skill float64) {
	bot := sim.NewBot()
	if skill > 0 && skill <= 1 {
		bot.Skill = skill
	}

	for {
		select {
		case evt, ok := <-session.Events():
			if !ok {
				return
			}
			snapEvt, ok := evt.(netplay.SnapshotEvent)
			if !ok {
				continue
			}
			if frame, acted := botFrame(bot, snapEvt.Snapshot); acted {
				peer.SendInput(frame)
			}
		case <-peer.Done():
			return
		}
	}
}

// botFrame converts the bot's intent for this snapshot into an input
// frame. The second return is false when the bot sits still.
func botFrame(bot *sim.Bot, snap netplay.CourtSnapshot) (core.InputFrame, bool) {
	st := snap.State
	canServe := st.Phase == netplay.PhaseServing && st.Server == netplay.Participant2
	approaching := snap.Ball.Visible && !snap.Ball.Frozen && snap.Ball.Vel.Z > 0

	d := bot.Decide(snap.Ball.Pos.X, snap.Paddle2.Pos.X, approaching, canServe)

	frame := core.NewInputFrame()
	if d.MoveLeft {
		frame.Set(core.ActionLeft)
	}
	if d.MoveRight {
		frame.Set(core.ActionRight)
	}
	if d.Serve {
		frame.Set(core.ActionServe)
	}
	return frame, !frame.Empty()
}
