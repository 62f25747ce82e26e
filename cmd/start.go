package cmd

import (
	"github.com/spf13/cobra"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/buildwatch/watcher"
	"github.com/buildwatch/buildwatch/internal/log"
)

var (
	startDaemon bool
	startTarget string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the build watcher",
	Long: `Start watching the project for changes and building on demand.

The watcher requires autoTrigger.enabled in the configuration; use
` + "`buildwatch watch`" + ` to watch regardless of that setting. By default the
watcher runs in the foreground until interrupted. With --daemon it detaches
into the background and is controlled through stop, status and logs.`,
	Example: `  # Watch in the foreground
  buildwatch start

  # Detach into the background
  buildwatch start --daemon

  # Build a different target on changes
  buildwatch start --target web`,
	Run: func(_ *cobra.Command, _ []string) {
		if err := runWatcher(true, startDaemon, startTarget); err != nil {
			log.Fatal("Failed to start watcher: ", err)
		}
	},
}

// runWatcher loads the project configuration and runs a supervisor over it.
// requireEnabled enforces the autoTrigger.enabled setting.
func runWatcher(requireEnabled, daemonMode bool, target string) error {
	root := projectRoot()
	cfg := mustLoadConfig(root)

	if requireEnabled && !cfg.AutoTrigger.Enabled {
		return errors.Wrap(errors.ErrInvalidConfig,
			"autoTrigger.enabled is false; enable it or use `buildwatch watch`")
	}
	if target != "" {
		if _, ok := cfg.ResolveTarget(target); !ok {
			return errors.Wrapf(errors.ErrUnknownTarget, "%q", target)
		}
	}

	s := watcher.New(watcher.Options{
		Root:       root,
		ConfigPath: configPath(root),
		Config:     cfg,
		Target:     target,
		DaemonMode: daemonMode,
	})
	return s.Run()
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().BoolVar(&startDaemon, "daemon", false, "Run the watcher as a background daemon")
	startCmd.Flags().StringVarP(&startTarget, "target", "t", "", "Build target to run on changes (default from config)")
	_ = startCmd.RegisterFlagCompletionFunc("target", validTargetNames)
}
