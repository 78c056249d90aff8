package engine_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"simplegit.dev/simplegit/internal/credentials"
	"simplegit.dev/simplegit/internal/engine"
	"simplegit.dev/simplegit/internal/git"
	"simplegit.dev/simplegit/internal/github"
	"simplegit.dev/simplegit/testhelpers"
)

// recorder counts calls that would reach the network
type recorder struct {
	clones  atomic.Int32
	pushes  atomic.Int32
	pulls   atomic.Int32
	remotes atomic.Int32
}

func (r *recorder) networkCalls() int32 {
	return r.clones.Load() + r.pushes.Load() + r.pulls.Load() + r.remotes.Load()
}

type recordingBackend struct {
	engine.Backend
	rec *recorder
}

func (b recordingBackend) Open(path string) (engine.Repository, error) {
	repo, err := b.Backend.Open(path)
	if err != nil {
		return nil, err
	}
	return recordingRepo{Repository: repo, rec: b.rec}, nil
}

func (b recordingBackend) Clone(ctx context.Context, opts git.CloneOptions) (engine.Repository, error) {
	b.rec.clones.Add(1)
	repo, err := b.Backend.Clone(ctx, opts)
	if err != nil {
		return nil, err
	}
	return recordingRepo{Repository: repo, rec: b.rec}, nil
}

type recordingRepo struct {
	engine.Repository
	rec *recorder
}

func (r recordingRepo) Push(ctx context.Context, remote, token string) (git.TransferResult, error) {
	r.rec.pushes.Add(1)
	return r.Repository.Push(ctx, remote, token)
}

func (r recordingRepo) Pull(ctx context.Context, remote, token string) (git.TransferResult, error) {
	r.rec.pulls.Add(1)
	return r.Repository.Pull(ctx, remote, token)
}

type fakeRemote struct {
	mu       sync.Mutex
	login    string
	err      error
	stats    github.RepositoryStats
	repos    []github.Repository
	statsFor []github.Identifier
}

func (f *fakeRemote) ValidateToken(context.Context) (string, error) {
	return f.login, f.err
}

func (f *fakeRemote) ListRepositories(context.Context) ([]github.Repository, error) {
	return f.repos, f.err
}

func (f *fakeRemote) RepositoryStats(_ context.Context, id github.Identifier) (github.RepositoryStats, error) {
	f.mu.Lock()
	f.statsFor = append(f.statsFor, id)
	f.mu.Unlock()
	return f.stats, f.err
}

type fixture struct {
	scene  *testhelpers.Scene
	engine *engine.Engine
	store  *credentials.Store
	rec    *recorder
	remote *fakeRemote
}

type fixtureOption func(*engine.Options)

func withAllowList(hosts ...string) fixtureOption {
	return func(o *engine.Options) { o.AllowList = github.NewAllowList(hosts) }
}

func withCloneRoot(dir string) fixtureOption {
	return func(o *engine.Options) { o.CloneRoot = dir }
}

func withWatch() fixtureOption {
	return func(o *engine.Options) { o.Watch = true }
}

func newFixture(t *testing.T, setup testhelpers.SceneSetup, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{
		scene:  testhelpers.NewScene(t, setup),
		store:  credentials.NewStore(),
		rec:    &recorder{},
		remote: &fakeRemote{login: "octocat"},
	}
	o := engine.Options{
		CloneRoot: f.scene.Root,
		Store:     f.store,
		Backend:   recordingBackend{Backend: engine.NewGitBackend(), rec: f.rec},
		Remote: func(context.Context, string) (engine.RemoteService, error) {
			f.rec.remotes.Add(1)
			return f.remote, nil
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	e, err := engine.New(o)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	f.engine = e
	return f
}

func (f *fixture) local(t *testing.T, op engine.OperationKind, params map[string]string) engine.Result {
	t.Helper()
	return f.engine.Execute(context.Background(), engine.LocalOperation{Kind: op, Path: f.scene.Dir, Params: params})
}

func (f *fixture) remoteOp(t *testing.T, op engine.OperationKind, identifier string, params map[string]string) engine.Result {
	t.Helper()
	return f.engine.Execute(context.Background(), engine.RemoteOperation{Kind: op, Identifier: identifier, Params: params})
}

func requireOK(t *testing.T, res engine.Result) {
	t.Helper()
	require.True(t, res.OK, "expected success, got %s: %s", res.ErrorKind, res.Message)
}
