package cmd

import (
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
)

// validTargetNames returns the configured build target names for shell
// completion. It is used by cobra to complete --target flag values.
func validTargetNames(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	names, err := availableTargets()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// availableTargets lists the build targets of the project in the working
// directory. A missing or invalid config completes to nothing rather than
// an error, since completion runs in arbitrary directories.
func availableTargets() ([]string, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath(root))
	if err != nil {
		return []string{}, nil
	}

	names := make([]string, 0, len(cfg.BuildTargets))
	for name := range cfg.BuildTargets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for buildwatch.

To load completions:

Bash:

  $ source <(buildwatch completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ buildwatch completion bash > /etc/bash_completion.d/buildwatch
  # macOS:
  $ buildwatch completion bash > $(brew --prefix)/etc/bash_completion.d/buildwatch

Zsh:

  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:

  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ buildwatch completion zsh > "${fpath[1]}/_buildwatch"

  # You will need to start a new shell for this setup to take effect.

Fish:

  $ buildwatch completion fish | source

  # To load completions for each session, execute once:
  $ buildwatch completion fish > ~/.config/fish/completions/buildwatch.fish

PowerShell:

  PS> buildwatch completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> buildwatch completion powershell > buildwatch.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		switch args[0] {
		case "bash":
			err = cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			err = cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			err = cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			err = cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		if err != nil {
			// Error is logged but not fatal for completion generation
			cmd.PrintErrf("Error generating completion: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
