package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at build time via
// -ldflags "-X main.version=v1.2.3".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pingpong version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pingpong %s\n", version)
	},
}
