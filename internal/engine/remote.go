package engine

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/internal/git"
	"simplegit.dev/simplegit/internal/github"
)

func (e *Engine) executeRemote(ctx context.Context, req RemoteOperation) Result {
	op := req.Kind
	switch op {
	case OpClone:
		return e.clone(ctx, op, req.Identifier, req.Params[ParamDestination])
	case OpRevert:
		return e.revertRemote(ctx, op, req.Identifier, req.Params[ParamCommit])
	case OpPush:
		return e.pushRemote(ctx, op, req.Identifier, req.Params[ParamRemote])
	case OpStats:
		return e.remoteStats(ctx, op, req.Identifier)
	case OpListRemoteRepositories:
		svc, err := e.remoteService(ctx, op)
		if err != nil {
			return failure(op, err)
		}
		repos, err := svc.ListRepositories(ctx)
		if err != nil {
			return failure(op, err)
		}
		if repos == nil {
			repos = []github.Repository{}
		}
		return success(op, repos, "%d %s", len(repos), plural(len(repos), "repository", "repositories"))
	case OpValidateToken:
		svc, err := e.remoteService(ctx, op)
		if err != nil {
			return failure(op, err)
		}
		login, err := svc.ValidateToken(ctx)
		if err != nil {
			return failure(op, err)
		}
		return success(op, TokenPayload{Login: login}, "Signed in as %s", login)
	}
	return failure(op, sgerrors.NewValidationError("%s is not supported for remote repositories", op))
}

// cloneSource is a resolved clone origin
type cloneSource struct {
	url     string
	name    string
	network bool
}

// resolveCloneSource accepts owner/name identifiers, http(s) URLs and
// absolute paths of local repositories inside the scope.
func (e *Engine) resolveCloneSource(identifier string) (cloneSource, error) {
	if filepath.IsAbs(identifier) {
		path, err := e.scope.Check(identifier)
		if err != nil {
			return cloneSource{}, err
		}
		return cloneSource{url: path, name: cloneName(path)}, nil
	}

	src := cloneSource{network: true}
	if strings.Contains(identifier, "://") {
		u, err := url.Parse(identifier)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
			return cloneSource{}, sgerrors.NewValidationError("unsupported clone URL %q", identifier)
		}
		src.url = identifier
		src.name = cloneName(u.Path)
	} else {
		id, err := github.ParseIdentifier(identifier)
		if err != nil {
			return cloneSource{}, err
		}
		src.url = id.CloneURL()
		src.name = id.Name
	}
	if src.name == "" || src.name == "." {
		return cloneSource{}, sgerrors.NewValidationError("cannot derive a repository name from %q", identifier)
	}
	if e.opts.AllowList != nil {
		if err := e.opts.AllowList.CheckURL(src.url); err != nil {
			return cloneSource{}, err
		}
	}
	return src, nil
}

func (e *Engine) clone(ctx context.Context, op OperationKind, identifier, destination string) Result {
	token, err := e.requireToken(op)
	if err != nil {
		return failure(op, err)
	}
	src, err := e.resolveCloneSource(identifier)
	if err != nil {
		return failure(op, err)
	}

	if destination == "" {
		destination = filepath.Join(e.scope.Root(), src.name)
	}
	dest, err := e.scope.Check(destination)
	if err != nil {
		return failure(op, err)
	}

	unlock := e.locks.lock(dest)
	defer unlock()

	nctx, cancel := e.networkContext(ctx)
	defer cancel()

	if src.network && e.opts.Remote != nil {
		svc, err := e.opts.Remote(nctx, token)
		if err != nil {
			return failure(op, err)
		}
		if _, err := svc.ValidateToken(nctx); err != nil {
			if sgerrors.KindOf(err) == sgerrors.KindAuthRequired {
				return failure(op, sgerrors.Wrap(sgerrors.KindAuthRequired, err, "the GitHub token is invalid or expired, sign in again"))
			}
			return failure(op, err)
		}
	}

	e.log.Info("cloning repository", "source", src.url, "destination", dest)
	repo, err := e.opts.Backend.Clone(nctx, git.CloneOptions{URL: src.url, Destination: dest, Token: token})
	if err != nil {
		return failure(op, err)
	}

	e.scope.Allow(repo.Path())
	e.attach(dest, repo, true)
	stats, err := e.stats.local(repo)
	if err != nil {
		e.log.Warn("could not compute stats", "path", repo.Path(), "error", err)
	}
	return success(op, OpenPayload{Path: repo.Path(), Stats: stats}, "Cloned %s into %s", identifier, repo.Path())
}

// clonedPath returns the working tree a remote identifier was cloned into
func (e *Engine) clonedPath(identifier string) (string, error) {
	src, err := e.resolveCloneSource(identifier)
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.scope.Root(), src.name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", sgerrors.NewNotFoundError("%s has not been cloned into %s", identifier, e.scope.Root())
	}
	return path, nil
}

func (e *Engine) pushRemote(ctx context.Context, op OperationKind, identifier, remote string) Result {
	if _, err := e.requireToken(op); err != nil {
		return failure(op, err)
	}
	path, err := e.clonedPath(identifier)
	if err != nil {
		return failure(op, err)
	}

	unlock := e.locks.lock(path)
	defer unlock()
	repo, err := e.repository(path)
	if err != nil {
		return failure(op, err)
	}
	return e.push(ctx, op, repo, remote)
}

// revertRemote reverts a commit in the local clone of identifier and
// pushes it. When the push fails the revert commit is dropped again.
func (e *Engine) revertRemote(ctx context.Context, op OperationKind, identifier, commit string) Result {
	if _, err := e.requireToken(op); err != nil {
		return failure(op, err)
	}
	path, err := e.clonedPath(identifier)
	if err != nil {
		return failure(op, err)
	}

	unlock := e.locks.lock(path)
	defer unlock()
	repo, err := e.repository(path)
	if err != nil {
		return failure(op, err)
	}

	head, err := repo.Log(1)
	if err != nil {
		return failure(op, err)
	}
	if len(head) == 0 {
		return failure(op, sgerrors.NewStateError("%s has no commits", identifier))
	}

	hash, err := repo.Revert(ctx, commit)
	if err != nil {
		return failure(op, err)
	}
	e.stats.invalidate(repo.Path())

	pushed := e.push(ctx, op, repo, "")
	if !pushed.OK {
		if _, resetErr := repo.ResetHard(ctx, head[0].Hash); resetErr != nil {
			e.log.Error("could not drop unpushed revert commit", "path", repo.Path(), "error", resetErr)
		}
		return pushed
	}
	return success(op, CommitPayload{Hash: hash}, "Reverted %s and pushed %s", short(commit), short(hash))
}

func (e *Engine) remoteStats(ctx context.Context, op OperationKind, identifier string) Result {
	id, err := github.ParseIdentifier(identifier)
	if err != nil {
		return failure(op, err)
	}
	svc, err := e.remoteService(ctx, op)
	if err != nil {
		return failure(op, err)
	}
	nctx, cancel := e.networkContext(ctx)
	defer cancel()
	stats, err := e.stats.remote(nctx, svc, id)
	if err != nil {
		return failure(op, err)
	}
	return success(op, stats, "%d commits, %d branches, %d contributors", stats.Commits, stats.Branches, stats.Contributors)
}
