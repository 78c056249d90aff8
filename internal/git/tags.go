package git

import (
	"context"
	"errors"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// CreateTag tags HEAD. An empty message creates a lightweight tag,
// anything else an annotated one.
func (r *Repository) CreateTag(ctx context.Context, name, message string) error {
	if err := r.validateRefName(ctx, "tag", name); err != nil {
		return err
	}
	if _, err := r.repo.Reference(plumbing.NewTagReferenceName(name), false); err == nil {
		return sgerrors.NewConflictError("tag %s already exists", name)
	}
	head, err := r.headCommit()
	if err != nil {
		return err
	}

	var opts *git.CreateTagOptions
	if message != "" {
		sig, err := r.signature()
		if err != nil {
			return err
		}
		opts = &git.CreateTagOptions{Tagger: sig, Message: message}
	}

	if _, err := r.repo.CreateTag(name, head.Hash, opts); err != nil {
		if errors.Is(err, git.ErrTagExists) {
			return sgerrors.NewConflictError("tag %s already exists", name)
		}
		return sgerrors.Wrap(sgerrors.KindInternal, err, "failed to create tag %s", name)
	}
	return nil
}

// ListTags returns tag names, sorted
func (r *Repository) ListTags() ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to list tags")
	}
	names := []string{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to iterate tags")
	}
	sort.Strings(names)
	return names, nil
}
