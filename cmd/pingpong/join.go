package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/liamharte04/EEECS-PingPong/internal/netplay"
	"github.com/liamharte04/EEECS-PingPong/internal/platform/tui"
	"github.com/liamharte04/EEECS-PingPong/internal/transport"
)

var flagName string

var joinCmd = &cobra.Command{
	Use:   "join <addr>",
	Short: "Join a hosted match",
	Long: `Join a match hosted with 'pingpong host'. The address can be a
host:port pair or a full WebSocket URL.

The host's match rules apply; your --preset flag is ignored.

Examples:
  pingpong join 192.168.1.10:8008
  pingpong join ws://192.168.1.10:8008/match`,
	Args: cobra.ExactArgs(1),
	Run:  runJoin,
}

func init() {
	joinCmd.Flags().StringVar(&flagName, "name", "", "Display name sent to the host")
}

func runJoin(_ *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	url := args[0]
	if !strings.Contains(url, "://") {
		url = "ws://" + url + "/match"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Connecting to %s\n", url)
	link, err := transport.Dial(ctx, url, transport.OptionsFromNet(cfg.Net, nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connect failed: %v\n", err)
		os.Exit(1)
	}

	name := flagName
	if name == "" {
		name = os.Getenv("USER")
	}

	welcome, err := netplay.JoinHandshake(ctx, link, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Handshake failed: %v\n", err)
		link.Close()
		os.Exit(1)
	}

	// The host's rules win so both sides simulate the same match.
	cfg.Match.WinThreshold = welcome.WinThreshold
	if welcome.TickRate > 0 {
		cfg.Net.TickRate = welcome.TickRate
	}

	fmt.Printf("Joined, playing to %d\n", welcome.WinThreshold)

	session := netplay.NewChannelSession("join", 64)
	peer := netplay.NewPeer(netplay.PeerOptions{
		Self:          welcome.Assigned,
		MatchID:       netplay.MatchID(welcome.MatchID),
		Config:        cfg,
		Transport:     link,
		Session:       session,
		WireSeqOffset: netplay.HandshakeSeqOffset,
	})

	go peer.Run(func(result netplay.MatchResult) {
		session.Send(matchEndedEvent(result))
	})

	width, height := termSize()
	model := tui.NewMatchModel(cfg, welcome.Assigned, peer.SendInput,
		session.Events(), width, height).QuitOnLeave()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()

	peer.Stop()
	session.Close()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running session: %v\n", runErr)
		os.Exit(1)
	}
}
