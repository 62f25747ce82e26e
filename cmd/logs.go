package cmd

import (
	"github.com/spf13/cobra"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/watcher/daemon"
	"github.com/buildwatch/buildwatch/internal/log"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Follow the watcher log in real time",
	Long:  `Stream the watcher daemon log file, like tail -f. Works while the watcher is stopped too; the stream picks up when it starts again.`,
	Example: `  # Follow the watcher log
  buildwatch logs`,
	Run: func(_ *cobra.Command, _ []string) {
		files := config.StateFiles(projectRoot())

		log.Info("Following watcher logs: %s", files.LogFile)
		log.InfoH2("Press Ctrl+C to stop")

		if err := daemon.FollowLogs(files.LogFile); err != nil {
			log.Fatal("Failed to follow logs: ", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
}
