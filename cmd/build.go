package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/dispatch"
	"github.com/buildwatch/buildwatch/internal/buildwatch/history"
	"github.com/buildwatch/buildwatch/internal/buildwatch/notify"
	"github.com/buildwatch/buildwatch/internal/log"
)

var buildTarget string

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Run a build target once without watching",
	Long: `Run one configured build target and exit.

The build is recorded in the history database and reported through the
configured notification channels, but no version control post-action runs.
The exit code reflects the build result.`,
	Example: `  # Build the default target
  buildwatch build

  # Build a specific target
  buildwatch build --target web`,
	Run: func(_ *cobra.Command, _ []string) {
		root := projectRoot()
		cfg := mustLoadConfig(root)

		target := buildTarget
		if target == "" {
			target = cfg.AutoTrigger.BuildTarget
		}

		outcome, err := runBuildOnce(root, target, cfg)
		if err != nil {
			log.Fatal("Build dispatch failed: ", err)
		}
		if !outcome.Succeeded {
			os.Exit(1)
		}
	},
}

// runBuildOnce dispatches one build, records it as a manual trigger and
// notifies. The returned error covers dispatch problems only; a failed
// build comes back as a non-succeeded outcome.
func runBuildOnce(root, target string, cfg *config.Config) (*dispatch.Outcome, error) {
	files := config.StateFiles(root)
	db := history.New(files.DatabaseFile)
	if err := db.Init(); err != nil {
		log.DebugH2("Build history unavailable: %v", err)
	}
	defer func() { _ = db.Close() }()

	log.Info("Building target %q", target)
	outcome, err := dispatch.New(root).Run(context.Background(), target, cfg)
	if err != nil {
		return nil, err
	}

	db.LogBuild(outcome, history.TriggerManual)
	notify.New(cfg).Notify(outcome, cfg)

	if outcome.Succeeded {
		log.Info("Build %q succeeded in %s", outcome.Target, outcome.Duration.Round(time.Millisecond))
		for _, artifact := range outcome.Artifacts {
			log.InfoH2("Artifact: %s", artifact)
		}
	} else {
		log.Error("Build %q failed after %s", outcome.Target, outcome.Duration.Round(time.Millisecond))
		if outcome.FailureReason != "" {
			log.ErrorH2("%s", outcome.FailureReason)
		}
	}
	return outcome, nil
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildTarget, "target", "t", "", "Build target to run (default from config)")
	_ = buildCmd.RegisterFlagCompletionFunc("target", validTargetNames)
}
