package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// completionCommand emits a completion script for the requested shell.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <bash|zsh|fish|powershell>",
		Short: "Print a shell completion script",
		Long: `Print a completion script for foldview to stdout.

Pipe or redirect the output into the place your shell expects, for example:

  foldview completion bash > /etc/bash_completion.d/foldview
  foldview completion zsh  > "${fpath[1]}/_foldview"
  foldview completion fish > ~/.config/fish/completions/foldview.fish
  foldview completion powershell | Out-String | Invoke-Expression

Zsh users need compinit enabled ("autoload -U compinit; compinit" in ~/.zshrc)
and a fresh shell before completions take effect.`,
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
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}
}
