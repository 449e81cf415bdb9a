package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/liamharte04/EEECS-PingPong/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the SSH matchmaking server",
	Long: `Run an SSH server that pairs connecting players into matches.

Every connection lands in a lobby screen where it can open a match
under a shareable six-character code or redeem one. Paired matches run
entirely on the server, both peers linked in memory.

The host key comes from --host-key when given; otherwise one is
generated at ~/.pingpong/host_key on first start.

Examples:
  pingpong serve
  pingpong serve --ssh :2222 --preset quick
  pingpong serve --host-key ./ci_host_key

Players connect with:
  ssh <server> -p 23234`,
	Run: runServe,
}

func init() {
	def := tui.DefaultSSHServerConfig()
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", def.Address, "listen address for SSH (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "host key file (generated when omitted)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", int(def.IdleTimeout/time.Minute), "minutes before an idle connection is dropped")
}

func runServe(_ *cobra.Command, _ []string) {
	game, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	server, err := tui.NewSSHServer(tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
	}, game)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := make(chan error, 1)
	go func() { failed <- server.ListenAndServe() }()

	fmt.Printf("Serving ping-pong on %s\n", server.Addr())
	if port, ok := strings.CutPrefix(server.Addr(), ":"); ok {
		fmt.Printf("Players connect with: ssh <server> -p %s\n", port)
	}
	fmt.Println("Press Ctrl+C to stop")

	select {
	case err := <-failed:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
			os.Exit(1)
		}
	}
}
