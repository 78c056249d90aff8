package cli

import (
	"os"

	"github.com/spf13/cobra"

	"simplegit.dev/simplegit/internal/cli/helpers"
	"simplegit.dev/simplegit/internal/engine"
	"simplegit.dev/simplegit/internal/runtime"
)

// newStatsCmd creates the stats command
func newStatsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats [path | owner/name]",
		Short: "Count commits, branches and contributors",
		Long: `Count commits, branches and contributors of a repository.

An existing directory is read locally. Anything else is taken as a GitHub
repository and counted through the GitHub API. Without an argument the
working directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(rc *runtime.Context) error {
				target := "."
				if len(args) == 1 {
					target = args[0]
				}

				opts := &opOptions{format: format}
				var req engine.Request
				if info, err := os.Stat(target); err == nil && info.IsDir() {
					opts.path = target
					req = engine.LocalOperation{Kind: engine.OpStats, Path: target}
				} else {
					req = engine.RemoteOperation{Kind: engine.OpStats, Identifier: target}
				}
				return runOperation(cmd, rc, req, opts)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}
