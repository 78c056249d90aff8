package helpers

import (
	"os"
	"slices"

	"github.com/spf13/cobra"

	"simplegit.dev/simplegit/internal/engine"
	"simplegit.dev/simplegit/internal/git"
)

// CompleteOperations is a cobra.ValidArgsFunction returning every operation name
func CompleteOperations(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(engine.Operations()))
	for _, op := range engine.Operations() {
		names = append(names, string(op))
	}
	slices.Sort(names)
	return names, cobra.ShellCompDirectiveNoFileComp
}

// CompleteBranches is a helper for RegisterFlagCompletionFunc that returns the
// branch names of the repository named by --path, or of the working directory.
func CompleteBranches(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	dir, _ := cmd.Flags().GetString("path")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		dir = wd
	}
	repo, err := git.Open(dir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	branches, err := repo.ListBranches()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return branches, cobra.ShellCompDirectiveNoFileComp
}
