package git_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/internal/git"
	"simplegit.dev/simplegit/testhelpers"
)

func openScene(t *testing.T, setup testhelpers.SceneSetup) (*testhelpers.Scene, *git.Repository) {
	t.Helper()
	scene := testhelpers.NewScene(t, setup)
	repo, err := git.Open(scene.Dir)
	require.NoError(t, err)
	return scene, repo
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("opens a working tree", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, testhelpers.BasicSceneSetup)
		want, err := filepath.EvalSymlinks(scene.Dir)
		require.NoError(t, err)
		got, err := filepath.EvalSymlinks(repo.Path())
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("missing path is not found", func(t *testing.T) {
		t.Parallel()
		_, err := git.Open(filepath.Join(t.TempDir(), "nope"))
		require.ErrorIs(t, err, sgerrors.ErrNotFound)
	})

	t.Run("plain directory is not found", func(t *testing.T) {
		t.Parallel()
		_, err := git.Open(t.TempDir())
		require.ErrorIs(t, err, sgerrors.ErrNotFound)
	})
}

func TestClone(t *testing.T) {
	t.Parallel()

	t.Run("clones a remote into an absent destination", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.RemoteSceneSetup)
		dest := filepath.Join(scene.Root, "clone")

		repo, err := git.Clone(context.Background(), git.CloneOptions{
			URL:         scene.Dir + "-origin.git",
			Destination: dest,
			Token:       "ignored-for-local-paths",
		})
		require.NoError(t, err)

		_, err = os.Stat(filepath.Join(repo.Path(), "1_test.txt"))
		require.NoError(t, err)
	})

	t.Run("non-empty destination is a conflict", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.RemoteSceneSetup)
		dest := filepath.Join(scene.Root, "busy")
		require.NoError(t, os.MkdirAll(dest, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dest, "keep"), []byte("x"), 0o600))

		_, err := git.Clone(context.Background(), git.CloneOptions{URL: scene.Dir + "-origin.git", Destination: dest})
		require.ErrorIs(t, err, sgerrors.ErrConflict)

		data, err := os.ReadFile(filepath.Join(dest, "keep"))
		require.NoError(t, err)
		require.Equal(t, "x", string(data))
	})

	t.Run("failed clone removes the destination it created", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		dest := filepath.Join(root, "clone")

		_, err := git.Clone(context.Background(), git.CloneOptions{
			URL:         filepath.Join(root, "does-not-exist.git"),
			Destination: dest,
		})
		require.Error(t, err)
		_, statErr := os.Stat(dest)
		require.True(t, os.IsNotExist(statErr))
	})

	t.Run("missing URL is a validation error", func(t *testing.T) {
		t.Parallel()
		_, err := git.Clone(context.Background(), git.CloneOptions{Destination: t.TempDir()})
		require.ErrorIs(t, err, sgerrors.ErrValidation)
	})
}
