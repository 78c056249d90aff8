package git

import (
	"context"
	"strings"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// ResetHard moves the current branch to rev and discards index and working
// tree changes to tracked files. An unknown rev is refused before anything changes.
func (r *Repository) ResetHard(ctx context.Context, rev string) (string, error) {
	if strings.TrimSpace(rev) == "" {
		return "", sgerrors.NewValidationError("commit hash is required")
	}
	target, err := r.resolveCommit(rev)
	if err != nil {
		return "", err
	}
	if _, err := r.runner.Run(ctx, "reset", "--hard", target.Hash.String()); err != nil {
		return "", sgerrors.Wrap(sgerrors.KindInternal, err, "failed to hard reset to %s", rev)
	}
	return target.Hash.String(), nil
}
