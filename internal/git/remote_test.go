package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/testhelpers"
)

func TestListRemotes(t *testing.T) {
	t.Parallel()

	t.Run("no remotes is an empty list", func(t *testing.T) {
		t.Parallel()
		_, repo := openScene(t, testhelpers.BasicSceneSetup)
		remotes, err := repo.ListRemotes()
		require.NoError(t, err)
		require.Empty(t, remotes)
	})

	t.Run("sorted by name", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, testhelpers.BasicSceneSetup)
		require.NoError(t, scene.Repo.RunGitCommand("remote", "add", "upstream", "https://github.com/acme/widgets.git"))
		require.NoError(t, scene.Repo.RunGitCommand("remote", "add", "origin", "https://github.com/me/widgets.git"))

		remotes, err := repo.ListRemotes()
		require.NoError(t, err)
		require.Len(t, remotes, 2)
		require.Equal(t, "origin", remotes[0].Name)
		require.Equal(t, []string{"https://github.com/me/widgets.git"}, remotes[0].URLs)
		require.Equal(t, "upstream", remotes[1].Name)
	})
}

func TestPush(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("pushes the current branch", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, testhelpers.RemoteSceneSetup)
		require.NoError(t, scene.Repo.CommitFile("f.txt", "new\n", "second"))
		local, err := scene.Repo.GetRevision("HEAD")
		require.NoError(t, err)

		result, err := repo.Push(ctx, "", "")
		require.NoError(t, err)
		require.Equal(t, "origin", result.Remote)
		require.Equal(t, "main", result.Branch)
		require.False(t, result.UpToDate)

		remote, err := scene.Repo.RunGitCommandAndGetOutput("ls-remote", "origin", "refs/heads/main")
		require.NoError(t, err)
		require.Contains(t, remote, local)
	})

	t.Run("nothing new is up to date", func(t *testing.T) {
		t.Parallel()
		_, repo := openScene(t, testhelpers.RemoteSceneSetup)
		result, err := repo.Push(ctx, "origin", "")
		require.NoError(t, err)
		require.True(t, result.UpToDate)
	})

	t.Run("non-fast-forward is a conflict", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, testhelpers.RemoteSceneSetup)
		other := scene.Clone(t, "other")
		require.NoError(t, other.CommitFile("theirs.txt", "theirs\n", "theirs"))
		require.NoError(t, other.PushBranch("origin", "main"))

		require.NoError(t, scene.Repo.CommitFile("ours.txt", "ours\n", "ours"))
		_, err := repo.Push(ctx, "origin", "")
		require.ErrorIs(t, err, sgerrors.ErrConflict)
	})

	t.Run("unknown remote is not found", func(t *testing.T) {
		t.Parallel()
		_, repo := openScene(t, testhelpers.BasicSceneSetup)
		_, err := repo.Push(ctx, "origin", "")
		require.ErrorIs(t, err, sgerrors.ErrNotFound)
	})
}

func TestPull(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("fast-forwards from the remote", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, testhelpers.RemoteSceneSetup)
		other := scene.Clone(t, "other")
		require.NoError(t, other.CommitFile("theirs.txt", "theirs\n", "theirs"))
		require.NoError(t, other.PushBranch("origin", "main"))
		want, err := other.GetRevision("HEAD")
		require.NoError(t, err)

		result, err := repo.Pull(ctx, "origin", "")
		require.NoError(t, err)
		require.False(t, result.UpToDate)

		got, err := scene.Repo.GetRevision("HEAD")
		require.NoError(t, err)
		require.Equal(t, want, got)
		content, err := scene.Repo.ReadFile("theirs.txt")
		require.NoError(t, err)
		require.Equal(t, "theirs\n", content)
	})

	t.Run("already up to date", func(t *testing.T) {
		t.Parallel()
		_, repo := openScene(t, testhelpers.RemoteSceneSetup)
		result, err := repo.Pull(ctx, "origin", "")
		require.NoError(t, err)
		require.True(t, result.UpToDate)
	})

	t.Run("diverged history is a conflict", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, testhelpers.RemoteSceneSetup)
		other := scene.Clone(t, "other")
		require.NoError(t, other.CommitFile("theirs.txt", "theirs\n", "theirs"))
		require.NoError(t, other.PushBranch("origin", "main"))
		require.NoError(t, scene.Repo.CommitFile("ours.txt", "ours\n", "ours"))
		before, err := scene.Repo.GetRevision("HEAD")
		require.NoError(t, err)

		_, err = repo.Pull(ctx, "origin", "")
		require.ErrorIs(t, err, sgerrors.ErrConflict)

		after, err := scene.Repo.GetRevision("HEAD")
		require.NoError(t, err)
		require.Equal(t, before, after)
	})
}
