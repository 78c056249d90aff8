package engine_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/internal/engine"
	"simplegit.dev/simplegit/internal/github"
	"simplegit.dev/simplegit/testhelpers"
)

func originURL(t *testing.T, f *fixture) string {
	t.Helper()
	url, err := f.scene.Repo.RunGitCommandAndGetOutput("remote", "get-url", "origin")
	require.NoError(t, err)
	return url
}

func remoteHead(t *testing.T, f *fixture) string {
	t.Helper()
	out, err := f.scene.Repo.RunGitCommandAndGetOutput("ls-remote", "origin", "refs/heads/main")
	require.NoError(t, err)
	hash, _, _ := strings.Cut(out, "\t")
	return hash
}

func TestRemoteOperationsRequireToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  func(f *fixture) engine.Request
	}{
		{"push", func(f *fixture) engine.Request {
			return engine.LocalOperation{Kind: engine.OpPush, Path: f.scene.Dir}
		}},
		{"pull", func(f *fixture) engine.Request {
			return engine.LocalOperation{Kind: engine.OpPull, Path: f.scene.Dir}
		}},
		{"remote push", func(f *fixture) engine.Request {
			return engine.RemoteOperation{Kind: engine.OpPush, Identifier: "octo/hello"}
		}},
		{"clone", func(f *fixture) engine.Request {
			return engine.RemoteOperation{Kind: engine.OpClone, Identifier: "octo/hello"}
		}},
		{"remote revert", func(f *fixture) engine.Request {
			return engine.RemoteOperation{Kind: engine.OpRevert, Identifier: "octo/hello", Params: map[string]string{"commit": "abc123"}}
		}},
		{"remote stats", func(f *fixture) engine.Request {
			return engine.RemoteOperation{Kind: engine.OpStats, Identifier: "octo/hello"}
		}},
		{"list remote repositories", func(f *fixture) engine.Request {
			return engine.RemoteOperation{Kind: engine.OpListRemoteRepositories}
		}},
		{"validate token", func(f *fixture) engine.Request {
			return engine.RemoteOperation{Kind: engine.OpValidateToken}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, testhelpers.RemoteSceneSetup)
			before := remoteHead(t, f)

			res := f.engine.Execute(context.Background(), tt.req(f))
			require.False(t, res.OK)
			require.Equal(t, sgerrors.KindAuthRequired, res.ErrorKind)
			require.ErrorIs(t, res.Err, sgerrors.ErrAuthRequired)
			require.Zero(t, f.rec.networkCalls(), "no network attempt without a token")
			require.Equal(t, before, remoteHead(t, f))
		})
	}
}

func TestPushAndPull(t *testing.T) {
	t.Parallel()

	t.Run("push sends the current branch", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, testhelpers.RemoteSceneSetup)
		f.store.Set("gho_token")
		require.NoError(t, f.scene.Repo.CreateChangeAndCommit("2", "2"))

		res := f.local(t, engine.OpPush, nil)
		requireOK(t, res)
		head, err := f.scene.Repo.GetRevision("HEAD")
		require.NoError(t, err)
		require.Equal(t, head, remoteHead(t, f))

		res = f.local(t, engine.OpPush, nil)
		requireOK(t, res)
		require.Equal(t, "Everything up-to-date", res.Message)
	})

	t.Run("non-fast-forward push is a conflict", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, testhelpers.RemoteSceneSetup)
		f.store.Set("gho_token")
		other := f.scene.Clone(t, "other")
		require.NoError(t, other.CreateChangeAndCommit("theirs", "theirs"))
		require.NoError(t, other.PushBranch("origin", "main"))
		theirs := remoteHead(t, f)

		require.NoError(t, f.scene.Repo.CreateChangeAndCommit("ours", "ours"))
		res := f.local(t, engine.OpPush, nil)
		require.Equal(t, sgerrors.KindConflict, res.ErrorKind)
		require.Equal(t, theirs, remoteHead(t, f))
	})

	t.Run("pull fast-forwards", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, testhelpers.RemoteSceneSetup)
		f.store.Set("gho_token")
		other := f.scene.Clone(t, "other")
		require.NoError(t, other.CreateChangeAndCommit("theirs", "theirs"))
		require.NoError(t, other.PushBranch("origin", "main"))

		res := f.local(t, engine.OpPull, nil)
		requireOK(t, res)
		head, err := f.scene.Repo.GetRevision("HEAD")
		require.NoError(t, err)
		require.Equal(t, remoteHead(t, f), head)
		require.FileExists(t, filepath.Join(f.scene.Dir, "theirs_test.txt"))
	})

	t.Run("remotes off the allow-list never see the token", func(t *testing.T) {
		t.Parallel()
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		t.Cleanup(srv.Close)

		f := newFixture(t, testhelpers.BasicSceneSetup, withAllowList("github.com", "api.github.com"))
		f.store.Set("gho_secret")
		require.NoError(t, f.scene.Repo.RunGitCommand("remote", "add", "origin", srv.URL+"/octocat/hello.git"))

		for _, op := range []engine.OperationKind{engine.OpPush, engine.OpPull} {
			res := f.local(t, op, nil)
			require.Equal(t, sgerrors.KindValidation, res.ErrorKind, "%s", op)
			require.Contains(t, res.Message, "not an allowed provider host")
		}
		require.Zero(t, hits.Load())
		require.Zero(t, f.rec.pushes.Load())
		require.Zero(t, f.rec.pulls.Load())
	})

	t.Run("allow-list leaves local remotes alone", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, testhelpers.RemoteSceneSetup, withAllowList("github.com"))
		f.store.Set("gho_token")
		require.NoError(t, f.scene.Repo.CreateChangeAndCommit("2", "2"))

		requireOK(t, f.local(t, engine.OpPush, nil))
		requireOK(t, f.local(t, engine.OpPull, nil))
	})
}

func TestClone(t *testing.T) {
	t.Parallel()

	t.Run("clones into the clone root", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, testhelpers.RemoteSceneSetup)
		f.store.Set("gho_token")
		source := originURL(t, f)

		res := f.remoteOp(t, engine.OpClone, source, nil)
		requireOK(t, res)
		payload := res.Payload.(engine.OpenPayload)
		require.Equal(t, filepath.Join(f.scene.Root, strings.TrimSuffix(filepath.Base(source), ".git")), payload.Path)
		require.Equal(t, 1, payload.Stats.Commits)
		require.Equal(t, payload.Path, f.engine.Selected())
		require.Equal(t, int32(0), f.rec.remotes.Load(), "local sources skip token validation")

		res = f.remoteOp(t, engine.OpClone, source, nil)
		require.Equal(t, sgerrors.KindConflict, res.ErrorKind, "destination is not empty")
	})

	t.Run("destination outside scope is refused", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, testhelpers.RemoteSceneSetup)
		f.store.Set("gho_token")
		res := f.remoteOp(t, engine.OpClone, originURL(t, f), map[string]string{"destination": t.TempDir()})
		require.Equal(t, sgerrors.KindValidation, res.ErrorKind)
		require.Zero(t, f.rec.clones.Load())
	})

	t.Run("hosts off the allow-list are refused", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, testhelpers.BasicSceneSetup, withAllowList("github.com"))
		f.store.Set("gho_token")
		res := f.remoteOp(t, engine.OpClone, "https://evil.example.com/octo/hello.git", nil)
		require.Equal(t, sgerrors.KindValidation, res.ErrorKind)
		require.Zero(t, f.rec.networkCalls())
	})

	t.Run("rejected token stops the clone", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, testhelpers.BasicSceneSetup, withAllowList("github.com"))
		f.store.Set("gho_expired")
		f.remote.err = sgerrors.NewAuthRequiredError("token rejected by GitHub")

		res := f.remoteOp(t, engine.OpClone, "octo/hello", nil)
		require.Equal(t, sgerrors.KindAuthRequired, res.ErrorKind)
		require.Zero(t, f.rec.clones.Load())
		require.NoDirExists(t, filepath.Join(f.scene.Root, "hello"))
	})
}

func TestRemoteRevertPushesTheRevert(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testhelpers.RemoteSceneSetup)
	f.store.Set("gho_token")
	require.NoError(t, f.scene.Repo.CreateChangeAndCommit("2", "2"))
	require.NoError(t, f.scene.Repo.PushBranch("origin", "main"))
	target, err := f.scene.Repo.GetRevision("HEAD")
	require.NoError(t, err)
	source := originURL(t, f)

	res := f.remoteOp(t, engine.OpClone, source, nil)
	requireOK(t, res)
	clone := &testhelpers.GitRepo{Dir: res.Payload.(engine.OpenPayload).Path}
	require.NoError(t, clone.RunGitCommand("config", "user.name", "Test User"))
	require.NoError(t, clone.RunGitCommand("config", "user.email", "test@example.com"))

	res = f.remoteOp(t, engine.OpRevert, source, map[string]string{"commit": target})
	requireOK(t, res)
	revert := res.Payload.(engine.CommitPayload).Hash
	require.Equal(t, revert, remoteHead(t, f))
}

func TestRemotePushRequiresClone(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testhelpers.BasicSceneSetup)
	f.store.Set("gho_token")
	res := f.remoteOp(t, engine.OpPush, "octo/never-cloned", nil)
	require.Equal(t, sgerrors.KindNotFound, res.ErrorKind)
}

func TestRemoteStats(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testhelpers.BasicSceneSetup)
	f.remote.stats = github.RepositoryStats{Commits: 12, Branches: 3, Contributors: 2}
	require.Equal(t, engine.Stats{}, f.engine.CachedStats("github.com/octo/hello"))

	f.store.Set("gho_token")
	res := f.remoteOp(t, engine.OpStats, "octo/hello", nil)
	requireOK(t, res)
	want := engine.Stats{Commits: 12, Branches: 3, Contributors: 2}
	require.Equal(t, want, res.Payload)
	require.Equal(t, want, f.engine.CachedStats("github.com/octo/hello"))
	require.Equal(t, []github.Identifier{{Host: "github.com", Owner: "octo", Name: "hello"}}, f.remote.statsFor)
}

func TestAccountOperations(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.store.Set("gho_token")
	f.remote.repos = []github.Repository{{FullName: "octo/hello"}}

	res := f.remoteOp(t, engine.OpValidateToken, "", nil)
	requireOK(t, res)
	require.Equal(t, engine.TokenPayload{Login: "octocat"}, res.Payload)

	res = f.remoteOp(t, engine.OpListRemoteRepositories, "", nil)
	requireOK(t, res)
	require.Equal(t, []github.Repository{{FullName: "octo/hello"}}, res.Payload)
}
