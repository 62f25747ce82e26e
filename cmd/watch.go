package cmd

import (
	"github.com/spf13/cobra"

	"github.com/buildwatch/buildwatch/internal/log"
)

var (
	watchDaemon bool
	watchTarget string
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Watch for changes regardless of the autoTrigger setting",
	Long: `Watch the project and build on change, ignoring autoTrigger.enabled.

Useful for one-off watch sessions on projects where automatic triggering is
normally switched off. Otherwise identical to ` + "`buildwatch start`" + `.`,
	Example: `  # Watch in the foreground
  buildwatch watch

  # Watch a specific target as a daemon
  buildwatch watch --daemon --target desktop-debug`,
	Run: func(_ *cobra.Command, _ []string) {
		if err := runWatcher(false, watchDaemon, watchTarget); err != nil {
			log.Fatal("Failed to start watcher: ", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "Run the watcher as a background daemon")
	watchCmd.Flags().StringVarP(&watchTarget, "target", "t", "", "Build target to run on changes (default from config)")
	_ = watchCmd.RegisterFlagCompletionFunc("target", validTargetNames)
}
