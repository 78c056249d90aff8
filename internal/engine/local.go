package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/internal/git"
)

func (e *Engine) executeLocal(ctx context.Context, req LocalOperation) Result {
	op := req.Kind

	switch op {
	case OpOpen:
		// Opening a repository is what brings it into scope.
		path, err := absPath(req.Path)
		if err != nil {
			return failure(op, err)
		}
		return e.open(op, path)
	case OpRemoveRepository:
		path, err := e.removalPath(req.Path)
		if err != nil {
			return failure(op, err)
		}
		unlock := e.locks.lock(path)
		defer unlock()
		return e.removeRepository(op, path)
	}

	path, err := e.scope.Check(req.Path)
	if err != nil {
		return failure(op, err)
	}
	repo, err := e.repository(path)
	if err != nil {
		return failure(op, err)
	}

	// Subdirectories of one working tree share the root's lock.
	unlock := e.locks.lock(repo.Path())
	defer unlock()

	res := e.runLocal(ctx, op, repo, req.Params)
	if res.OK && mutates(op) {
		e.stats.invalidate(repo.Path())
	}
	return res
}

// removalPath resolves the target of a remove. A repository removed earlier
// stays addressable after it left the scope, so removing it again succeeds.
func (e *Engine) removalPath(raw string) (string, error) {
	path, err := e.scope.Check(raw)
	if err == nil {
		return path, nil
	}
	if abs, aerr := absPath(raw); aerr == nil && e.scope.Removed(abs) {
		return abs, nil
	}
	return "", err
}

func mutates(op OperationKind) bool {
	switch op {
	case OpListRemotes, OpViewDiff, OpViewLog, OpListBranches, OpListTags,
		OpCurrentBranch, OpRepositorySettings, OpStats:
		return false
	}
	return true
}

func (e *Engine) open(op OperationKind, path string) Result {
	repo, err := e.opts.Backend.Open(path)
	if err != nil {
		return failure(op, err)
	}
	unlock := e.locks.lock(repo.Path())
	defer unlock()

	e.scope.Allow(repo.Path())
	e.attach(path, repo, true)

	stats, err := e.stats.local(repo)
	if err != nil {
		e.log.Warn("could not compute stats", "path", repo.Path(), "error", err)
	}
	return success(op, OpenPayload{Path: repo.Path(), Stats: stats}, "Opened repository %s", repo.Path())
}

// removeRepository deletes the working tree. A missing path counts as removed.
func (e *Engine) removeRepository(op OperationKind, path string) Result {
	if path == e.scope.Root() {
		return failure(op, sgerrors.NewValidationError("refusing to remove the clone root %s", path))
	}

	e.release(path)
	e.stats.invalidate(path)
	e.scope.Revoke(path)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return success(op, nil, "Repository directory %s was already removed", path)
	}
	if err := os.RemoveAll(path); err != nil {
		return failure(op, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to remove %s", path))
	}
	e.log.Info("removed repository", "path", path)
	return success(op, nil, "Removed repository %s", path)
}

func (e *Engine) runLocal(ctx context.Context, op OperationKind, repo Repository, params map[string]string) Result {
	switch op {
	case OpStageAll:
		n, err := repo.StageAll(ctx)
		if err != nil {
			return failure(op, err)
		}
		if n == 0 {
			return success(op, nil, "No changes to stage")
		}
		return success(op, nil, "Staged %d %s", n, plural(n, "file", "files"))

	case OpCommit:
		hash, err := repo.Commit(ctx, params[ParamMessage])
		if err != nil {
			return failure(op, err)
		}
		return success(op, CommitPayload{Hash: hash}, "Created commit %s", short(hash))

	case OpAmend:
		var message *string
		if m, ok := params[ParamMessage]; ok {
			message = &m
		}
		hash, err := repo.Amend(ctx, message)
		if err != nil {
			return failure(op, err)
		}
		return success(op, CommitPayload{Hash: hash}, "Amended commit, now %s", short(hash))

	case OpRevert:
		hash, err := repo.Revert(ctx, params[ParamCommit])
		if err != nil {
			return failure(op, err)
		}
		return success(op, CommitPayload{Hash: hash}, "Reverted %s in new commit %s", short(params[ParamCommit]), short(hash))

	case OpCreateBranch:
		if err := repo.CreateBranch(ctx, params[ParamBranch]); err != nil {
			return failure(op, err)
		}
		return success(op, nil, "Created branch %s", params[ParamBranch])

	case OpCheckoutBranch:
		if err := repo.CheckoutBranch(ctx, params[ParamBranch]); err != nil {
			return failure(op, err)
		}
		return success(op, nil, "Switched to branch %s", params[ParamBranch])

	case OpMergeBranch:
		result, err := repo.MergeBranch(ctx, params[ParamBranch])
		if err != nil {
			return failure(op, err)
		}
		switch {
		case result.UpToDate:
			return success(op, result, "Already up to date with %s", params[ParamBranch])
		case result.FastForward:
			return success(op, result, "Fast-forwarded to %s (%s)", params[ParamBranch], short(result.Hash))
		default:
			return success(op, result, "Merged %s in commit %s", params[ParamBranch], short(result.Hash))
		}

	case OpDeleteBranch:
		if err := repo.DeleteBranch(ctx, params[ParamBranch]); err != nil {
			return failure(op, err)
		}
		return success(op, nil, "Deleted branch %s", params[ParamBranch])

	case OpPush:
		return e.push(ctx, op, repo, params[ParamRemote])

	case OpPull:
		token, err := e.requireToken(op)
		if err != nil {
			return failure(op, err)
		}
		if err := e.checkTransferRemote(repo, params[ParamRemote]); err != nil {
			return failure(op, err)
		}
		nctx, cancel := e.networkContext(ctx)
		defer cancel()
		result, err := repo.Pull(nctx, params[ParamRemote], token)
		if err != nil {
			return failure(op, err)
		}
		if result.UpToDate {
			return success(op, result, "Already up to date")
		}
		return success(op, result, "Pulled %s from %s", result.Branch, result.Remote)

	case OpStashPush:
		if err := repo.StashPush(ctx, params[ParamMessage]); err != nil {
			return failure(op, err)
		}
		return success(op, nil, "Stashed local changes")

	case OpStashPop:
		if err := repo.StashPop(ctx); err != nil {
			return failure(op, err)
		}
		return success(op, nil, "Restored stashed changes")

	case OpCreateTag:
		if err := repo.CreateTag(ctx, params[ParamTag], params[ParamMessage]); err != nil {
			return failure(op, err)
		}
		return success(op, nil, "Created tag %s", params[ParamTag])

	case OpResetHard:
		hash, err := repo.ResetHard(ctx, params[ParamCommit])
		if err != nil {
			return failure(op, err)
		}
		return success(op, CommitPayload{Hash: hash}, "HEAD is now at %s", short(hash))

	case OpListRemotes:
		remotes, err := repo.ListRemotes()
		if err != nil {
			return failure(op, err)
		}
		names := make([]string, 0, len(remotes))
		for _, r := range remotes {
			names = append(names, r.Name)
		}
		return success(op, names, "%d %s", len(names), plural(len(names), "remote", "remotes"))

	case OpViewDiff:
		entries, err := repo.Diff()
		if err != nil {
			return failure(op, err)
		}
		if entries == nil {
			entries = []git.DiffEntry{}
		}
		return success(op, entries, "%d changed %s", len(entries), plural(len(entries), "file", "files"))

	case OpViewLog:
		limit, err := parseLimit(params[ParamLimit])
		if err != nil {
			return failure(op, err)
		}
		commits, err := repo.Log(limit)
		if err != nil {
			return failure(op, err)
		}
		if commits == nil {
			commits = []git.CommitInfo{}
		}
		return success(op, commits, "%d %s", len(commits), plural(len(commits), "commit", "commits"))

	case OpListBranches:
		branches, err := repo.ListBranches()
		if err != nil {
			return failure(op, err)
		}
		return success(op, nonNil(branches), "%d %s", len(branches), plural(len(branches), "branch", "branches"))

	case OpListTags:
		tags, err := repo.ListTags()
		if err != nil {
			return failure(op, err)
		}
		return success(op, nonNil(tags), "%d %s", len(tags), plural(len(tags), "tag", "tags"))

	case OpCurrentBranch:
		name, detached, err := repo.CurrentBranch()
		if err != nil {
			return failure(op, err)
		}
		if detached {
			return success(op, CurrentBranchPayload{Branch: name, Detached: true}, "HEAD is detached at %s", short(name))
		}
		return success(op, CurrentBranchPayload{Branch: name}, "On branch %s", name)

	case OpRepositorySettings:
		settings, err := repo.Settings(ctx)
		if err != nil {
			return failure(op, err)
		}
		return success(op, settings, "Settings for %s", settings.Path)

	case OpStats:
		stats, err := e.stats.local(repo)
		if err != nil {
			return failure(op, err)
		}
		return success(op, stats, "%d commits, %d branches, %d contributors", stats.Commits, stats.Branches, stats.Contributors)
	}

	return failure(op, sgerrors.NewValidationError("%s is not supported for local repositories", op))
}

// push requires a token even when the remote would accept anonymous pushes
func (e *Engine) push(ctx context.Context, op OperationKind, repo Repository, remote string) Result {
	token, err := e.requireToken(op)
	if err != nil {
		return failure(op, err)
	}
	if err := e.checkTransferRemote(repo, remote); err != nil {
		return failure(op, err)
	}
	nctx, cancel := e.networkContext(ctx)
	defer cancel()
	result, err := repo.Push(nctx, remote, token)
	if err != nil {
		return failure(op, err)
	}
	if result.UpToDate {
		return success(op, result, "Everything up-to-date")
	}
	return success(op, result, "Pushed %s to %s", result.Branch, result.Remote)
}

// checkTransferRemote refuses a push or pull that would hand the token to
// a host off the allow-list.
func (e *Engine) checkTransferRemote(repo Repository, remote string) error {
	if e.opts.AllowList == nil {
		return nil
	}
	if remote == "" {
		remote = git.DefaultRemote
	}
	url, err := repo.RemoteURL(remote)
	if err != nil {
		return err
	}
	if !git.SendsToken(url) {
		return nil
	}
	return e.opts.AllowList.CheckURL(url)
}

func parseLimit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, sgerrors.NewValidationError("limit must be a non-negative integer, got %q", s)
	}
	return n, nil
}

func short(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// cloneName derives the directory name for a clone source
func cloneName(source string) string {
	name := filepath.Base(strings.TrimRight(source, "/"))
	return strings.TrimSuffix(name, ".git")
}
