// Package helpers provides shared helper functions for CLI commands.
package helpers

import (
	"github.com/spf13/cobra"

	"simplegit.dev/simplegit/internal/runtime"
)

// Run is a helper that provides a runtime context to a command's execution function.
// The runtime is closed once fn returns.
func Run(cmd *cobra.Command, fn func(ctx *runtime.Context) error) error {
	ctx, err := runtime.GetContext(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ctx.Close(); cerr != nil {
			ctx.Log.Debug("failed to close runtime", "error", cerr)
		}
	}()
	return fn(ctx)
}
