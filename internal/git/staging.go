package git

import (
	"context"
	"sort"

	"github.com/go-git/go-git/v5"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// StageAll stages all changes including untracked files and deletions.
// It returns the number of paths that differ between the index and HEAD afterwards.
func (r *Repository) StageAll(ctx context.Context) (int, error) {
	if _, err := r.runner.Run(ctx, "add", "-A"); err != nil {
		return 0, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to stage all changes")
	}
	staged, err := r.StagedPaths()
	if err != nil {
		return 0, err
	}
	return len(staged), nil
}

// StagedPaths returns the paths whose index entry differs from HEAD, sorted
func (r *Repository) StagedPaths() ([]string, error) {
	status, err := r.status()
	if err != nil {
		return nil, err
	}
	var paths []string
	for path, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// IsClean reports whether the working tree and index match HEAD, ignoring untracked files
func (r *Repository) IsClean() (bool, error) {
	status, err := r.status()
	if err != nil {
		return false, err
	}
	for _, s := range status {
		if s.Staging == git.Untracked && s.Worktree == git.Untracked {
			continue
		}
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			return false, nil
		}
	}
	return true, nil
}

func (r *Repository) status() (git.Status, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to open worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to read status")
	}
	return status, nil
}
