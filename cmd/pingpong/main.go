// pingpong is a two-player ping-pong session for the terminal.
//
// Usage:
//
//	pingpong play            - Practice locally against the machine
//	pingpong host            - Host a match on a direct link
//	pingpong join <addr>     - Join a hosted match
//	pingpong serve           - Start the SSH matchmaking server
//	pingpong version         - Print the version
//
// Shared flags:
//
//	--config <path>  - Custom config YAML
//	--preset <name>  - Match rules preset: quick, standard, classic
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/liamharte04/EEECS-PingPong/internal/config"
)

// Flags shared by every subcommand.
var (
	flagConfig string
	flagPreset string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pingpong",
	Short: "Two-player ping-pong in your terminal",
	Long: `pingpong runs a two-player ping-pong session in the terminal.

Matches can run three ways:
  play     - Local practice against a computer opponent
  host     - Host a match for one opponent over a direct link
  join     - Join a hosted match by address
  serve    - Run an SSH server that pairs connecting players

Examples:
  pingpong play
  pingpong play --preset quick
  pingpong host --listen :8008
  pingpong join ws://192.168.1.10:8008/match
  pingpong serve --ssh :23234`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom config YAML")
	rootCmd.PersistentFlags().StringVar(&flagPreset, "preset", "", "Match rules preset: quick, standard, classic")

	rootCmd.AddCommand(playCmd, hostCmd, joinCmd, serveCmd, versionCmd)
}

// loadConfig loads the session configuration and applies the preset
// flag on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagPreset != "" {
		config.ApplyPreset(&cfg, config.MatchPreset(flagPreset))
	}
	return cfg, nil
}

// termSize returns the terminal dimensions, with defaults when stdout
// is not a terminal.
func termSize() (int, int) {
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return w, h
	}
	return 80, 24
}
