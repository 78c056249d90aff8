package cli

import (
	"github.com/spf13/cobra"

	"simplegit.dev/simplegit/internal/cli/helpers"
	"simplegit.dev/simplegit/internal/engine"
	"simplegit.dev/simplegit/internal/runtime"
)

// newReposCmd creates the repos command
func newReposCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "repos",
		Short: "List your GitHub repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(rc *runtime.Context) error {
				req := engine.RemoteOperation{Kind: engine.OpListRemoteRepositories}
				res := rc.Engine.Execute(cmd.Context(), req)
				return printResult(cmd, rc, req, res, format)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}
