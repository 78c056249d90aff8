package git

import (
	"context"
	"strings"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// StashPush saves local changes, including untracked files, and cleans the working tree
func (r *Repository) StashPush(ctx context.Context, message string) error {
	if _, err := r.headCommit(); err != nil {
		return err
	}
	args := []string{"stash", "push", "-u"}
	if message != "" {
		args = append(args, "-m", message)
	}
	output, err := r.runner.Run(ctx, args...)
	if err != nil {
		return sgerrors.Wrap(sgerrors.KindInternal, err, "stash push failed")
	}
	if strings.Contains(output, "No local changes to save") {
		return sgerrors.NewStateError("no local changes to stash")
	}
	return nil
}

// StashPop applies and drops the most recent stash entry
func (r *Repository) StashPop(ctx context.Context) error {
	entries, err := r.StashList(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return sgerrors.NewStateError("no stash entries to pop")
	}
	if _, err := r.runner.Run(ctx, "stash", "pop"); err != nil {
		out := commandOutput(err)
		if strings.Contains(out, "CONFLICT") {
			// git keeps the entry; drop the half-applied merge so the tree is usable again.
			if _, rerr := r.runner.Run(ctx, "reset", "--merge"); rerr != nil {
				return sgerrors.Wrap(sgerrors.KindInternal, rerr, "failed to undo conflicted stash pop")
			}
			return sgerrors.Wrap(sgerrors.KindConflict, err, "stash pop conflicts with the working tree; the stash entry was kept")
		}
		if strings.Contains(out, "would be overwritten") || strings.Contains(out, "already exists") {
			return sgerrors.Wrap(sgerrors.KindConflict, err, "stash pop conflicts with the working tree")
		}
		return sgerrors.Wrap(sgerrors.KindInternal, err, "stash pop failed")
	}
	return nil
}

// StashList returns stash entries, most recent first
func (r *Repository) StashList(ctx context.Context) ([]string, error) {
	if _, err := r.headCommit(); err != nil {
		if sgerrors.KindOf(err) == sgerrors.KindState {
			return []string{}, nil
		}
		return nil, err
	}
	lines, err := r.runner.RunLines(ctx, "stash", "list")
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to list stash entries")
	}
	return lines, nil
}
