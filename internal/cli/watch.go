package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"simplegit.dev/simplegit/internal/cli/helpers"
	"simplegit.dev/simplegit/internal/engine"
	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/internal/output"
	"simplegit.dev/simplegit/internal/runtime"
)

// newWatchCmd creates the watch command
func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Print a line whenever a repository changes",
		Long: `Open a repository and print a line whenever its branches, index or
working tree change, until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(rc *runtime.Context) error {
				if !rc.Config.Watch.Enabled {
					return sgerrors.NewValidationError("watching is disabled by watch.enabled in the config")
				}
				path := "."
				if len(args) == 1 {
					path = args[0]
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()

				res := rc.Engine.Execute(ctx, engine.LocalOperation{Kind: engine.OpOpen, Path: path})
				if !res.OK {
					return printResult(cmd, rc, nil, res, "text")
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, output.FormatStatus(true, res.Message, ""))

				events := rc.Engine.Events()
				for {
					select {
					case <-ctx.Done():
						return nil
					case ev, ok := <-events:
						if !ok {
							return nil
						}
						fmt.Fprintf(out, "%s %s\n", ev.Type, ev.Path)
					}
				}
			})
		},
	}

	return cmd
}
