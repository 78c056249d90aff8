package git

import (
	"errors"
	"io"

	"github.com/go-git/go-git/v5"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// Stats holds lightweight repository metrics
type Stats struct {
	Commits      int `json:"commits"`
	Branches     int `json:"branches"`
	Contributors int `json:"contributors"`
}

// Stats counts commits reachable from HEAD, local branches and distinct
// committer emails. An empty repository has zero commits and contributors.
func (r *Repository) Stats() (Stats, error) {
	branches, err := r.ListBranches()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Branches: len(branches)}

	head, err := r.headCommit()
	if err != nil {
		if sgerrors.KindOf(err) == sgerrors.KindState {
			return stats, nil
		}
		return Stats{}, err
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash})
	if err != nil {
		return Stats{}, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to read log")
	}
	defer iter.Close()

	committers := map[string]struct{}{}
	for {
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Stats{}, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to walk log")
		}
		stats.Commits++
		committers[c.Committer.Email] = struct{}{}
	}
	stats.Contributors = len(committers)
	return stats, nil
}
