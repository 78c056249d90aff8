package engine

import (
	"context"
	"time"

	"simplegit.dev/simplegit/internal/git"
	"simplegit.dev/simplegit/internal/github"
)

// Repository is the capability set the engine needs from an opened working tree
type Repository interface {
	Path() string

	StageAll(ctx context.Context) (int, error)
	Commit(ctx context.Context, message string) (string, error)
	Amend(ctx context.Context, message *string) (string, error)
	Revert(ctx context.Context, rev string) (string, error)
	ResetHard(ctx context.Context, rev string) (string, error)

	CreateBranch(ctx context.Context, name string) error
	CheckoutBranch(ctx context.Context, name string) error
	MergeBranch(ctx context.Context, name string) (git.MergeResult, error)
	DeleteBranch(ctx context.Context, name string) error
	CurrentBranch() (string, bool, error)
	ListBranches() ([]string, error)

	CreateTag(ctx context.Context, name, message string) error
	ListTags() ([]string, error)

	StashPush(ctx context.Context, message string) error
	StashPop(ctx context.Context) error

	ListRemotes() ([]git.RemoteInfo, error)
	RemoteURL(name string) (string, error)
	Push(ctx context.Context, remote, token string) (git.TransferResult, error)
	Pull(ctx context.Context, remote, token string) (git.TransferResult, error)

	Diff() ([]git.DiffEntry, error)
	Log(limit int) ([]git.CommitInfo, error)
	Settings(ctx context.Context) (git.Settings, error)
	Stats() (git.Stats, error)

	Watch(ctx context.Context, debounce time.Duration) (Watcher, error)
}

// Watcher signals changes to an opened repository
type Watcher interface {
	Events() <-chan struct{}
	Close() error
}

// Backend opens and clones repositories
type Backend interface {
	Open(path string) (Repository, error)
	Clone(ctx context.Context, opts git.CloneOptions) (Repository, error)
}

// RemoteService is the hosting provider API used for remote stats and account operations
type RemoteService interface {
	ValidateToken(ctx context.Context) (string, error)
	ListRepositories(ctx context.Context) ([]github.Repository, error)
	RepositoryStats(ctx context.Context, id github.Identifier) (github.RepositoryStats, error)
}

// RemoteFactory builds a RemoteService for a token
type RemoteFactory func(ctx context.Context, token string) (RemoteService, error)

// GitHubRemote returns a RemoteFactory backed by the GitHub REST API
func GitHubRemote(apiURL string, allow *github.AllowList) RemoteFactory {
	return func(ctx context.Context, token string) (RemoteService, error) {
		return github.NewClient(ctx, github.ClientOptions{Token: token, APIURL: apiURL, AllowList: allow})
	}
}

// NewGitBackend returns the Backend implemented by internal/git
func NewGitBackend() Backend {
	return gitBackend{}
}

type gitBackend struct{}

func (gitBackend) Open(path string) (Repository, error) {
	repo, err := git.Open(path)
	if err != nil {
		return nil, err
	}
	return gitRepository{repo}, nil
}

func (gitBackend) Clone(ctx context.Context, opts git.CloneOptions) (Repository, error) {
	repo, err := git.Clone(ctx, opts)
	if err != nil {
		return nil, err
	}
	return gitRepository{repo}, nil
}

type gitRepository struct {
	*git.Repository
}

func (r gitRepository) Watch(ctx context.Context, debounce time.Duration) (Watcher, error) {
	w, err := r.Repository.Watch(ctx, debounce)
	if err != nil {
		return nil, err
	}
	return w, nil
}
