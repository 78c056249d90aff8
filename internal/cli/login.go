package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"simplegit.dev/simplegit/internal/auth"
	"simplegit.dev/simplegit/internal/cli/helpers"
	"simplegit.dev/simplegit/internal/engine"
	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/internal/output"
	"simplegit.dev/simplegit/internal/runtime"
)

// newLoginCmd creates the login command
func newLoginCmd() *cobra.Command {
	var printToken bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to GitHub in the browser",
		Long: `Sign in to GitHub in the browser.

Opens the GitHub authorization page and waits for the redirect on a local
callback address. The access token is kept in memory only. Use --print-token
to export it as GITHUB_TOKEN for later commands.

Requires GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET (or github.client_id and
github.client_secret in the config file).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(rc *runtime.Context) error {
				return runLogin(cmd, rc, printToken)
			})
		},
	}

	cmd.Flags().BoolVar(&printToken, "print-token", false, "Print the access token after signing in")

	return cmd
}

func runLogin(cmd *cobra.Command, rc *runtime.Context, printToken bool) error {
	if err := rc.Config.ValidateOAuth(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	events, unsubscribe := rc.Auth.Subscribe()
	defer unsubscribe()

	info, err := rc.Auth.Start(ctx)
	if err != nil {
		return err
	}
	rc.Log.Debug("login started", "session", info.ID, "redirect", info.RedirectURL, "deadline", info.Deadline)

	ui := output.NewLoginProgressUI(cmd.ErrOrStderr(), rc.Auth.Cancel)
	ui.Start(info.AuthURL)
	err = waitForLogin(ctx, rc.Auth, events, info.ID)
	ui.Finish(err)
	if err != nil {
		return reported(err)
	}

	out := cmd.OutOrStdout()
	res := rc.Engine.Execute(ctx, engine.RemoteOperation{Kind: engine.OpValidateToken})
	if res.OK {
		fmt.Fprintln(out, output.FormatStatus(true, res.Message, ""))
	} else {
		rc.Log.Warn("signed in but the token could not be checked", "error", res.Message)
	}

	if printToken {
		token, _ := rc.Store.Token()
		fmt.Fprintln(out, token)
	} else {
		fmt.Fprintln(out, "The token is not saved. Run 'simplegit login --print-token' to export it as "+runtime.TokenEnvVar+".")
	}
	return nil
}

// waitForLogin blocks until the session with the given id ends.
// Interrupting ctx cancels the session.
func waitForLogin(ctx context.Context, m *auth.Manager, events <-chan auth.Event, sessionID string) error {
	for {
		select {
		case <-ctx.Done():
			m.Cancel()
			return sgerrors.NewAuthFlowError(ctx.Err(), "login cancelled")
		case ev, ok := <-events:
			if !ok {
				return sgerrors.NewAuthFlowError(nil, "login ended unexpectedly")
			}
			if ev.SessionID != sessionID {
				continue
			}
			switch ev.Type {
			case auth.EventSuccess:
				return nil
			case auth.EventTimeout:
				return sgerrors.NewAuthFlowError(nil, "login timed out")
			default:
				return sgerrors.NewAuthFlowError(nil, "login failed: %s", ev.Reason)
			}
		}
	}
}
