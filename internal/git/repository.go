package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// Repository is an opened working tree
type Repository struct {
	repo   *git.Repository
	path   string
	runner *CommandRunner
}

// Open opens the working tree containing path.
// A path that does not exist or is not inside a repository is a NotFoundError.
func Open(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, sgerrors.NewValidationError("invalid path %q: %v", path, err)
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return nil, sgerrors.NewNotFoundError("path %s does not exist", absPath)
		}
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to stat %s", absPath)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, sgerrors.NewNotFoundError("%s is not a git repository", absPath)
		}
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to open repository at %s", absPath)
	}
	return newRepository(repo)
}

func newRepository(repo *git.Repository) (*Repository, error) {
	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return nil, sgerrors.NewStateError("bare repositories have no working tree")
		}
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to open worktree")
	}
	root := wt.Filesystem.Root()
	return &Repository{
		repo:   repo,
		path:   root,
		runner: NewCommandRunner(root),
	}, nil
}

// CloneOptions configures Clone
type CloneOptions struct {
	URL         string
	Destination string
	// Token authenticates HTTP(S) transfers. It is not sent to other transports.
	Token string
}

// Clone clones opts.URL into opts.Destination.
// The destination must be absent or an empty directory. On failure anything
// Clone created is removed again.
func Clone(ctx context.Context, opts CloneOptions) (*Repository, error) {
	if opts.URL == "" {
		return nil, sgerrors.NewValidationError("clone URL is required")
	}
	if opts.Destination == "" {
		return nil, sgerrors.NewValidationError("clone destination is required")
	}

	created, err := prepareDestination(opts.Destination)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainCloneContext(ctx, opts.Destination, false, &git.CloneOptions{
		URL:  opts.URL,
		Auth: authMethod(opts.URL, opts.Token),
	})
	if err != nil {
		cleanupDestination(opts.Destination, created)
		return nil, classifyRemoteError(ctx, err, "clone of %s failed", opts.URL)
	}
	return newRepository(repo)
}

// prepareDestination reports whether it created the directory
func prepareDestination(dest string) (bool, error) {
	entries, err := os.ReadDir(dest)
	switch {
	case err == nil:
		if len(entries) > 0 {
			return false, sgerrors.NewConflictError("destination %s already exists and is not empty", dest)
		}
		return false, nil
	case os.IsNotExist(err):
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return false, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to create %s", dest)
		}
		return true, nil
	default:
		return false, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to inspect %s", dest)
	}
}

func cleanupDestination(dest string, created bool) {
	if created {
		_ = os.RemoveAll(dest)
		return
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		return
	}
	for _, e := range entries {
		_ = os.RemoveAll(filepath.Join(dest, e.Name()))
	}
}

// authMethod returns token auth for HTTP(S) URLs and nil for everything else
func authMethod(url, token string) transport.AuthMethod {
	if token == "" || !SendsToken(url) {
		return nil
	}
	return &http.BasicAuth{Username: "x-access-token", Password: token}
}

// SendsToken reports whether a push or pull to url carries the access token.
// Only http(s) remotes do; local paths and ssh remotes never see it.
func SendsToken(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://")
}

// classifyRemoteError maps transport failures onto the error taxonomy
func classifyRemoteError(ctx context.Context, err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return sgerrors.NewNetworkError(err, "%s: timed out", msg)
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return sgerrors.Wrap(sgerrors.KindAuthRequired, err, "%s: the remote rejected the credentials", msg)
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return sgerrors.Wrap(sgerrors.KindNotFound, err, "%s: repository not found", msg)
	case errors.Is(err, git.ErrNonFastForwardUpdate), errors.Is(err, git.ErrForceNeeded),
		strings.Contains(err.Error(), "non-fast-forward"):
		return sgerrors.Wrap(sgerrors.KindConflict, err, "%s: non-fast-forward update rejected", msg)
	default:
		return sgerrors.NewNetworkError(err, "%s: %v", msg, err)
	}
}

// Path returns the root of the working tree
func (r *Repository) Path() string {
	return r.path
}

// Runner returns the git executable runner bound to this working tree
func (r *Repository) Runner() *CommandRunner {
	return r.runner
}

// headCommit returns the commit HEAD points to, or a StateError for an empty repository
func (r *Repository) headCommit() (*object.Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, sgerrors.NewStateError("repository has no commits")
		}
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to read HEAD")
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to read HEAD commit")
	}
	return commit, nil
}

// resolveCommit resolves a hash or revision to a commit, or a NotFoundError
func (r *Repository) resolveCommit(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, sgerrors.NewNotFoundError("commit %s not found", rev)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, sgerrors.NewNotFoundError("commit %s not found", rev)
	}
	return commit, nil
}

// signature builds the author identity from the repository and global config
func (r *Repository) signature() (*object.Signature, error) {
	cfg, err := r.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to read git config")
	}
	name, email := cfg.User.Name, cfg.User.Email
	if name == "" {
		name = cfg.Author.Name
	}
	if email == "" {
		email = cfg.Author.Email
	}
	if name == "" || email == "" {
		return nil, sgerrors.NewStateError("user.name and user.email must be configured")
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}, nil
}
