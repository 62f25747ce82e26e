// Package cmd provides the command-line interface for buildwatch
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/buildwatch/buildwatch/internal/log"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "buildwatch",
	Short: "Debounced build orchestrator for web and desktop projects",
	Long: `buildwatch - watch a project tree and rebuild on change

A long-lived watcher that monitors your sources, debounces bursts of file
changes and runs the configured build target. Successful builds can be
auto-committed and pushed, and every outcome is reported through desktop
notifications, webhooks or email.

Features:
  • Glob-based watch and ignore rules with extension filtering
  • Cooldown debounce so storms of changes build once
  • Named build targets run as child processes with captured output
  • Optional git auto-commit/push after successful builds
  • Daemon mode with status, logs and history inspection`,
	Example: `  # Scaffold .buildwatch/config.yaml in the current project
  buildwatch init

  # Start watching in the foreground
  buildwatch start

  # Start watching as a background daemon
  buildwatch start --daemon

  # Run one build without watching
  buildwatch build --target web

  # Inspect a running watcher
  buildwatch status
  buildwatch history --limit 20`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			log.SetDebugMode(true)
			log.Debug("Debug mode enabled")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file path (default: .buildwatch/config.yaml)")
}
