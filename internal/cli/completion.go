package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/famtree/pkg/tree"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for famtree.

Person arguments complete to the names in the current tree.

Bash:
  $ source <(famtree completion bash)

Zsh:
  $ famtree completion zsh > "${fpath[1]}/_famtree"

Fish:
  $ famtree completion fish > ~/.config/fish/completions/famtree.fish

PowerShell:
  PS> famtree completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

// completePersons completes person names from the tree at --file.
func (c *CLI) completePersons(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if err := c.loadSettings(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var names []string
	err := c.read(ctx, func(s *tree.Store) error {
		names = personCompletions(s.Persons(), toComplete)
		return nil
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func personCompletions(persons []tree.Person, prefix string) []string {
	var out []string
	lower := strings.ToLower(prefix)
	for _, p := range persons {
		if strings.HasPrefix(strings.ToLower(p.Name), lower) {
			out = append(out, p.Name+"\t"+shortID(p.ID))
		}
	}
	return out
}
