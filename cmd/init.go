package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/buildwatch/vcs"
	"github.com/buildwatch/buildwatch/internal/log"
)

var initYes bool

var initCmd = &cobra.Command{
	Use:     "init",
	Aliases: []string{"i"},
	Short:   "Initialize buildwatch for the current project",
	Long: `Initialize buildwatch in the current project directory.

This command:
  - Verifies the project layout (package.json and src-tauri/)
  - Writes a commented .buildwatch/config.yaml unless one exists
  - Optionally initializes a git repository for auto-commit support`,
	Example: `  # Initialize with prompts
  buildwatch init

  # Initialize without prompts (skips git repository setup)
  buildwatch init --yes`,
	Run: func(_ *cobra.Command, _ []string) {
		root := projectRoot()

		if err := checkProjectFiles(root); err != nil {
			log.Fatal("Project check failed: ", err)
		}

		initVCS := false
		if !initYes && !vcs.IsRepository(root) {
			prompt := &survey.Confirm{
				Message: "Initialize a git repository for auto-commit support?",
				Default: true,
			}
			if err := survey.AskOne(prompt, &initVCS); err != nil {
				log.Fatal("Prompt canceled: ", err)
			}
		}

		if err := scaffoldProject(root, initVCS); err != nil {
			log.Fatal("Initialization failed: ", err)
		}
	},
}

// checkProjectFiles verifies the markers buildwatch expects in a project
// root: an npm manifest and the desktop shell directory.
func checkProjectFiles(root string) error {
	var missing []string
	if _, err := os.Stat(filepath.Join(root, "package.json")); err != nil {
		missing = append(missing, "package.json")
	}
	if info, err := os.Stat(filepath.Join(root, "src-tauri")); err != nil || !info.IsDir() {
		missing = append(missing, "src-tauri/")
	}
	if len(missing) > 0 {
		return errors.Wrapf(errors.ErrMissingProjectFiles, "%s", strings.Join(missing, ", "))
	}
	return nil
}

// scaffoldProject writes the default configuration and optionally creates
// a git repository.
func scaffoldProject(root string, initVCS bool) error {
	path := configPath(root)
	created, err := config.WriteDefault(path)
	if err != nil {
		return err
	}
	if created {
		log.Info("Wrote %s", path)
		log.InfoH2("Review the watch rules and build targets before starting")
	} else {
		log.Info("Configuration already exists at %s, leaving it untouched", path)
	}

	if initVCS {
		if err := vcs.Init(root); err != nil {
			return err
		}
		log.InfoH2("Initialized git repository")
	}

	log.Info("buildwatch initialized. Run `buildwatch start` to begin watching.")
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Skip prompts and accept defaults")
}
