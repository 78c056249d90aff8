package git

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// DefaultRemote is used when an operation names no remote
const DefaultRemote = "origin"

// RemoteInfo describes a configured remote
type RemoteInfo struct {
	Name string   `json:"name"`
	URLs []string `json:"urls"`
}

// ListRemotes returns the configured remotes sorted by name. No remotes is an empty list.
func (r *Repository) ListRemotes() ([]RemoteInfo, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to list remotes")
	}
	infos := make([]RemoteInfo, 0, len(remotes))
	for _, remote := range remotes {
		cfg := remote.Config()
		infos = append(infos, RemoteInfo{Name: cfg.Name, URLs: cfg.URLs})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// RemoteURL returns the first URL of the named remote
func (r *Repository) RemoteURL(name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", sgerrors.NewNotFoundError("remote %s does not exist", name)
		}
		return "", sgerrors.Wrap(sgerrors.KindInternal, err, "failed to read remote %s", name)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", sgerrors.NewStateError("remote %s has no URL", name)
	}
	return urls[0], nil
}

// TransferResult describes a push or pull
type TransferResult struct {
	Remote   string `json:"remote"`
	Branch   string `json:"branch"`
	UpToDate bool   `json:"upToDate"`
}

// currentBranchForTransfer returns the checked-out branch or a StateError
func (r *Repository) currentBranchForTransfer() (string, error) {
	if _, err := r.headCommit(); err != nil {
		return "", err
	}
	branch, detached, err := r.CurrentBranch()
	if err != nil {
		return "", err
	}
	if detached {
		return "", sgerrors.NewStateError("HEAD is detached; check out a branch first")
	}
	return branch, nil
}

// Push sends the current branch to the same-named branch on the remote.
// A rejected non-fast-forward update is a ConflictError.
func (r *Repository) Push(ctx context.Context, remoteName, token string) (TransferResult, error) {
	if remoteName == "" {
		remoteName = DefaultRemote
	}
	branch, err := r.currentBranchForTransfer()
	if err != nil {
		return TransferResult{}, err
	}
	url, err := r.RemoteURL(remoteName)
	if err != nil {
		return TransferResult{}, err
	}

	ref := plumbing.NewBranchReferenceName(branch)
	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(ref.String() + ":" + ref.String())},
		Auth:       authMethod(url, token),
	})
	result := TransferResult{Remote: remoteName, Branch: branch}
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		result.UpToDate = true
		return result, nil
	default:
		return TransferResult{}, classifyRemoteError(ctx, err, "push of %s to %s failed", branch, remoteName)
	}
}

// Pull fast-forwards the current branch from the same-named remote branch.
// Diverged histories and local changes in the way are ConflictErrors.
func (r *Repository) Pull(ctx context.Context, remoteName, token string) (TransferResult, error) {
	if remoteName == "" {
		remoteName = DefaultRemote
	}
	branch, err := r.currentBranchForTransfer()
	if err != nil {
		return TransferResult{}, err
	}
	url, err := r.RemoteURL(remoteName)
	if err != nil {
		return TransferResult{}, err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return TransferResult{}, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to open worktree")
	}
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    remoteName,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Auth:          authMethod(url, token),
	})
	result := TransferResult{Remote: remoteName, Branch: branch}
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		result.UpToDate = true
		return result, nil
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		return TransferResult{}, sgerrors.Wrap(sgerrors.KindConflict, err, "pull from %s: local and remote %s have diverged", remoteName, branch)
	case errors.Is(err, git.ErrUnstagedChanges):
		return TransferResult{}, sgerrors.Wrap(sgerrors.KindConflict, err, "pull from %s blocked by local changes", remoteName)
	case errors.Is(err, plumbing.ErrReferenceNotFound) || strings.Contains(err.Error(), "couldn't find remote ref"):
		return TransferResult{}, sgerrors.Wrap(sgerrors.KindNotFound, err, "branch %s does not exist on %s", branch, remoteName)
	default:
		return TransferResult{}, classifyRemoteError(ctx, err, "pull of %s from %s failed", branch, remoteName)
	}
}
