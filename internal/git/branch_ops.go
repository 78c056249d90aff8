package git

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// MergeResult describes a completed merge
type MergeResult struct {
	Hash        string `json:"hash"`
	FastForward bool   `json:"fastForward"`
	UpToDate    bool   `json:"upToDate"`
}

// validateRefName checks a branch or tag name the way git does
func (r *Repository) validateRefName(ctx context.Context, kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return sgerrors.NewValidationError("%s name is required", kind)
	}
	prefix := "refs/heads/"
	if kind == "tag" {
		prefix = "refs/tags/"
	}
	if _, err := r.runner.Run(ctx, "check-ref-format", prefix+name); err != nil {
		return sgerrors.NewValidationError("%q is not a valid %s name", name, kind)
	}
	return nil
}

func (r *Repository) branchExists(name string) bool {
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	return err == nil
}

// CreateBranch creates a branch at HEAD without checking it out
func (r *Repository) CreateBranch(ctx context.Context, name string) error {
	if err := r.validateRefName(ctx, "branch", name); err != nil {
		return err
	}
	if r.branchExists(name) {
		return sgerrors.NewConflictError("branch %s already exists", name)
	}
	head, err := r.headCommit()
	if err != nil {
		return err
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return sgerrors.Wrap(sgerrors.KindInternal, err, "failed to create branch %s", name)
	}
	return nil
}

// CheckoutBranch switches the working tree to an existing branch.
// Local changes that the switch would overwrite make it a ConflictError.
func (r *Repository) CheckoutBranch(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return sgerrors.NewValidationError("branch name is required")
	}
	if !r.branchExists(name) {
		return sgerrors.NewNotFoundError("branch %s does not exist", name)
	}
	if _, err := r.runner.Run(ctx, "checkout", name, "--"); err != nil {
		out := commandOutput(err)
		if strings.Contains(out, "would be overwritten") || strings.Contains(out, "local changes") {
			return sgerrors.Wrap(sgerrors.KindConflict, err, "checkout of %s blocked by local changes", name)
		}
		return sgerrors.Wrap(sgerrors.KindInternal, err, "failed to checkout branch %s", name)
	}
	return nil
}

// MergeBranch merges a branch into the current one. A conflicting merge is
// aborted and reported with the conflicted paths.
func (r *Repository) MergeBranch(ctx context.Context, name string) (MergeResult, error) {
	if strings.TrimSpace(name) == "" {
		return MergeResult{}, sgerrors.NewValidationError("branch name is required")
	}
	if !r.branchExists(name) {
		return MergeResult{}, sgerrors.NewNotFoundError("branch %s does not exist", name)
	}
	current, _, err := r.CurrentBranch()
	if err != nil {
		return MergeResult{}, err
	}
	if current == name {
		return MergeResult{}, sgerrors.NewStateError("cannot merge branch %s into itself", name)
	}
	if _, err := r.headCommit(); err != nil {
		return MergeResult{}, err
	}

	out, err := r.runner.Run(ctx, "merge", "--no-edit", name)
	if err != nil {
		if r.inProgress(ctx, "MERGE_HEAD") {
			conflicts, _ := r.runner.RunLines(ctx, "diff", "--name-only", "--diff-filter=U")
			_, _ = r.runner.Run(ctx, "merge", "--abort")
			msg := "merge of " + name + " has conflicts; merge aborted"
			if len(conflicts) > 0 {
				msg += ": " + strings.Join(conflicts, ", ")
			}
			return MergeResult{}, sgerrors.Wrap(sgerrors.KindConflict, err, "%s", msg)
		}
		text := commandOutput(err)
		if strings.Contains(text, "would be overwritten") || strings.Contains(text, "local changes") {
			return MergeResult{}, sgerrors.Wrap(sgerrors.KindConflict, err, "merge of %s blocked by local changes", name)
		}
		return MergeResult{}, sgerrors.Wrap(sgerrors.KindInternal, err, "merge of %s failed", name)
	}

	head, err := r.headCommit()
	if err != nil {
		return MergeResult{}, err
	}
	return MergeResult{
		Hash:        head.Hash.String(),
		FastForward: strings.Contains(out, "Fast-forward"),
		UpToDate:    strings.Contains(out, "Already up to date"),
	}, nil
}

// DeleteBranch deletes a local branch that is not checked out
func (r *Repository) DeleteBranch(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return sgerrors.NewValidationError("branch name is required")
	}
	if !r.branchExists(name) {
		return sgerrors.NewNotFoundError("branch %s does not exist", name)
	}
	current, _, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	if current == name {
		return sgerrors.NewStateError("cannot delete the checked-out branch %s", name)
	}
	if err := r.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name)); err != nil {
		return sgerrors.Wrap(sgerrors.KindInternal, err, "failed to delete branch %s", name)
	}
	if err := r.repo.DeleteBranch(name); err != nil && !errors.Is(err, git.ErrBranchNotFound) {
		return sgerrors.Wrap(sgerrors.KindInternal, err, "failed to remove configuration of branch %s", name)
	}
	return nil
}

// CurrentBranch returns the checked-out branch name. On a detached HEAD it
// returns an empty name and detached set. An unborn branch is reported by name.
func (r *Repository) CurrentBranch() (name string, detached bool, err error) {
	head, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", false, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to read HEAD")
	}
	if head.Type() == plumbing.SymbolicReference {
		return head.Target().Short(), false, nil
	}
	return "", true, nil
}

// ListBranches returns local branch names, sorted
func (r *Repository) ListBranches() ([]string, error) {
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to list branches")
	}
	names := []string{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to iterate branches")
	}
	sort.Strings(names)
	return names, nil
}
