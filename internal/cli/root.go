// Package cli implements the simplegit command line.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"simplegit.dev/simplegit/internal/config"
	"simplegit.dev/simplegit/internal/output"
	"simplegit.dev/simplegit/internal/runtime"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:   "simplegit",
		Short: "simplegit runs everyday Git and GitHub operations against local repositories",
		Long: `simplegit runs everyday Git and GitHub operations against local repositories.

Sign in once with 'simplegit login', then clone, commit, branch, merge and
push with 'simplegit op'. Remote operations read the access token from the
GITHUB_TOKEN environment variable.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err := output.NewLogger(output.LoggerOptions{
				Console:  cmd.ErrOrStderr(),
				FilePath: cfg.Log.File,
				Debug:    debug,
			})
			if err != nil {
				return err
			}
			rc, err := runtime.NewContext(cfg, logger.Slog())
			if err != nil {
				_ = logger.Close()
				return err
			}
			rc.AddCloser(logger)
			cmd.SetContext(runtime.WithContext(cmd.Context(), rc))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if rc, err := runtime.GetContext(cmd.Context()); err == nil {
				return rc.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/simplegit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Print debug logging")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newOpCmd())
	rootCmd.AddCommand(newReposCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newWatchCmd())

	return rootCmd
}

// reportedError is a failure the command already printed
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

// Reported reports whether err was already shown to the user by the command that returned it
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
