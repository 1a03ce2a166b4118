package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand emits a completion script for the requested shell.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate a shell completion script",
		Long: `Generate a completion script for your shell and print it to stdout.

Examples:

  # bash, current session only
  source <(overmark completion bash)

  # bash, persistent (Linux)
  overmark completion bash | sudo tee /etc/bash_completion.d/overmark > /dev/null

  # zsh (run "autoload -U compinit; compinit" once if completion is disabled)
  overmark completion zsh > "${fpath[1]}/_overmark"

  # fish
  overmark completion fish > ~/.config/fish/completions/overmark.fish

  # powershell, load into the current session
  overmark completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(os.Stdout)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			default:
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
		},
	}
}
