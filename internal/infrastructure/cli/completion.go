package cli

import (
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// completionScripts maps each supported shell to its script generator.
var completionScripts = map[string]func(w io.Writer) error{
	"bash":       func(w io.Writer) error { return RootCmd.GenBashCompletionV2(w, true) },
	"zsh":        RootCmd.GenZshCompletion,
	"fish":       func(w io.Writer) error { return RootCmd.GenFishCompletion(w, true) },
	"powershell": RootCmd.GenPowerShellCompletionWithDesc,
}

func completionShells() []string {
	shells := make([]string, 0, len(completionScripts))
	for s := range completionScripts {
		shells = append(shells, s)
	}
	sort.Strings(shells)
	return shells
}

var completionCmd = &cobra.Command{
	Use:   "completion <" + strings.Join(completionShells(), "|") + ">",
	Short: "Generate a shell completion script",
	Long: `Prints a completion script for the given shell.

Besides commands and flags, the script completes --strategy with the known
ranking strategies (smart, fastest, impact, deadline, each with its label)
and --format with the output formats. Task file arguments complete as files.

  triage completion bash > /etc/bash_completion.d/triage
  triage completion zsh > "${fpath[1]}/_triage"`,
	ValidArgs: completionShells(),
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return completionScripts[args[0]](cmd.OutOrStdout())
	},
}

func init() {
	RootCmd.AddCommand(completionCmd)
}
