// Package main provides the entry point for the newsadvisor CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for newsadvisor.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsadvisor",
		Short: "Label news, ads and sponsored content on news pages",
		Long: `newsadvisor classifies the links, frames and recommendation widgets of a
news page as News, Ad or Sponsored and places a badge next to each one.

Classification is lazy: only candidates near the viewport are classified,
and content inserted after load is picked up as the page changes.

Settings are read from .newsadvisor, NEWSADVISOR_* environment variables
(.env files are loaded) and, with --settings-db, from the settings
database managed by "newsadvisor settings".`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON lines")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .newsadvisor in current or home directory)")
	cmd.PersistentFlags().String("env-file", "", "Load environment variables from this file instead of .env")
	cmd.PersistentFlags().String("db-dir", "", "Settings database directory (default: XDG data directory)")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewReplayCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewProbeCmd())
	cmd.AddCommand(NewSettingsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
