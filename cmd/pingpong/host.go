package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/liamharte04/EEECS-PingPong/internal/netplay"
	"github.com/liamharte04/EEECS-PingPong/internal/platform/tui"
	"github.com/liamharte04/EEECS-PingPong/internal/transport"
)

var flagListen string

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Host a match for one opponent",
	Long: `Host a match and wait for one opponent over a direct WebSocket
link. You are participant 1 and serve first; your match rules are sent
to the joiner during the handshake.

Examples:
  pingpong host
  pingpong host --listen :8008 --preset classic

The opponent joins with:
  pingpong join <your-address>:8008`,
	Run: runHost,
}

func init() {
	hostCmd.Flags().StringVar(&flagListen, "listen", ":8008", "Listen address (host:port)")
}

func runHost(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsOpts := transport.OptionsFromNet(cfg.Net, nil)

	// One seat: the first upgraded connection gets it, later ones are
	// turned away.
	joined := make(chan *transport.WS, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/match", func(w http.ResponseWriter, r *http.Request) {
		link, upgradeErr := transport.Upgrade(w, r, wsOpts)
		if upgradeErr != nil {
			return
		}
		select {
		case joined <- link:
		default:
			link.Close()
		}
	})

	server := &http.Server{Addr: flagListen, Handler: mux}
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Listen error: %v\n", serveErr)
			os.Exit(1)
		}
	}()
	defer server.Close()

	fmt.Printf("Waiting for an opponent on %s\n", flagListen)
	if strings.HasPrefix(flagListen, ":") {
		fmt.Printf("They join with: pingpong join <your-address>%s\n", flagListen)
	}
	fmt.Println("Press Ctrl+C to cancel")

	var link *transport.WS
	select {
	case link = <-joined:
	case <-ctx.Done():
		return
	}

	matchID := netplay.MatchID("direct-" + uuid.NewString())
	name, err := netplay.HostHandshake(ctx, link, matchID, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Handshake failed: %v\n", err)
		link.Close()
		os.Exit(1)
	}
	if name == "" {
		name = "challenger"
	}
	fmt.Printf("%s joined, starting match\n", name)

	session := netplay.NewChannelSession("host", 64)
	peer := netplay.NewPeer(netplay.PeerOptions{
		Self:          netplay.Participant1,
		MatchID:       matchID,
		Config:        cfg,
		Transport:     link,
		Session:       session,
		WireSeqOffset: netplay.HandshakeSeqOffset,
	})

	go peer.Run(func(result netplay.MatchResult) {
		session.Send(matchEndedEvent(result))
	})

	width, height := termSize()
	model := tui.NewMatchModel(cfg, netplay.Participant1, peer.SendInput,
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

// matchEndedEvent maps a peer result onto the session event the match
// screen renders.
func matchEndedEvent(result netplay.MatchResult) netplay.MatchEndedEvent {
	return netplay.MatchEndedEvent{
		MatchID: result.MatchID,
		Reason:  result.Reason,
		Winner:  result.Winner,
		Score1:  result.Score1,
		Score2:  result.Score2,
	}
}
