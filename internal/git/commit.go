package git

import (
	"context"
	"errors"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// Commit records the index as a new commit on HEAD and returns its hash.
// An empty message is rejected before anything is written.
func (r *Repository) Commit(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", sgerrors.NewValidationError("commit message must not be empty")
	}

	staged, err := r.StagedPaths()
	if err != nil {
		return "", err
	}
	if len(staged) == 0 {
		return "", sgerrors.NewStateError("nothing to commit: no staged changes")
	}

	sig, err := r.signature()
	if err != nil {
		return "", err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", sgerrors.Wrap(sgerrors.KindInternal, err, "failed to open worktree")
	}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", sgerrors.NewStateError("nothing to commit: no staged changes")
		}
		return "", sgerrors.Wrap(sgerrors.KindInternal, err, "failed to commit")
	}
	return hash.String(), nil
}

// Amend replaces the HEAD commit with one containing the current index.
// A nil message keeps the previous message; a non-nil empty message is rejected.
func (r *Repository) Amend(ctx context.Context, message *string) (string, error) {
	if message != nil && strings.TrimSpace(*message) == "" {
		return "", sgerrors.NewValidationError("commit message must not be empty")
	}

	head, err := r.headCommit()
	if err != nil {
		if sgerrors.KindOf(err) == sgerrors.KindState {
			return "", sgerrors.NewStateError("no commit to amend")
		}
		return "", err
	}

	msg := head.Message
	if message != nil {
		msg = *message
	}

	sig, err := r.signature()
	if err != nil {
		return "", err
	}
	author := head.Author

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", sgerrors.Wrap(sgerrors.KindInternal, err, "failed to open worktree")
	}
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author:            &author,
		Committer:         sig,
		Amend:             true,
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", sgerrors.Wrap(sgerrors.KindInternal, err, "failed to amend commit")
	}
	return hash.String(), nil
}

// Revert creates a commit undoing the given commit. A conflicting revert is
// aborted so the working tree is left as it was.
func (r *Repository) Revert(ctx context.Context, rev string) (string, error) {
	if strings.TrimSpace(rev) == "" {
		return "", sgerrors.NewValidationError("commit hash is required")
	}
	if _, err := r.headCommit(); err != nil {
		return "", err
	}
	target, err := r.resolveCommit(rev)
	if err != nil {
		return "", err
	}

	args := []string{"revert", "--no-edit"}
	if target.NumParents() > 1 {
		args = append(args, "-m", "1")
	}
	args = append(args, target.Hash.String())

	if _, err := r.runner.Run(ctx, args...); err != nil {
		out := commandOutput(err)
		if r.inProgress(ctx, "REVERT_HEAD") {
			_, _ = r.runner.Run(ctx, "revert", "--abort")
			return "", sgerrors.Wrap(sgerrors.KindConflict, err, "revert of %s conflicts with the working tree; revert aborted", shortHash(target.Hash))
		}
		if strings.Contains(out, "would be overwritten") || strings.Contains(out, "local changes") {
			return "", sgerrors.Wrap(sgerrors.KindConflict, err, "revert of %s blocked by local changes", shortHash(target.Hash))
		}
		return "", sgerrors.Wrap(sgerrors.KindInternal, err, "revert of %s failed", shortHash(target.Hash))
	}

	head, err := r.headCommit()
	if err != nil {
		return "", err
	}
	return head.Hash.String(), nil
}

// inProgress reports whether a pseudo-ref such as MERGE_HEAD or REVERT_HEAD exists
func (r *Repository) inProgress(ctx context.Context, name string) bool {
	_, err := r.runner.Run(ctx, "rev-parse", "-q", "--verify", name)
	return err == nil
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:7]
}
