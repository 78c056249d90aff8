package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/testhelpers"
)

func TestResetHard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("moves HEAD and discards changes", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, func(s *testhelpers.Scene) error {
			if err := s.Repo.CommitFile("f.txt", "one\n", "one"); err != nil {
				return err
			}
			return s.Repo.CommitFile("f.txt", "two\n", "two")
		})
		first, err := scene.Repo.GetRevision("HEAD~1")
		require.NoError(t, err)
		require.NoError(t, scene.Repo.WriteFile("f.txt", "dirty\n"))

		hash, err := repo.ResetHard(ctx, first)
		require.NoError(t, err)
		require.Equal(t, first, hash)

		content, err := scene.Repo.ReadFile("f.txt")
		require.NoError(t, err)
		require.Equal(t, "one\n", content)
	})

	t.Run("unknown hash is refused without changes", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, testhelpers.BasicSceneSetup)
		require.NoError(t, scene.Repo.WriteFile("1_test.txt", "dirty"))
		before, err := scene.Repo.GetRevision("HEAD")
		require.NoError(t, err)

		_, err = repo.ResetHard(ctx, "0123456789abcdef0123456789abcdef01234567")
		require.ErrorIs(t, err, sgerrors.ErrNotFound)

		after, err := scene.Repo.GetRevision("HEAD")
		require.NoError(t, err)
		require.Equal(t, before, after)
		content, err := scene.Repo.ReadFile("1_test.txt")
		require.NoError(t, err)
		require.Equal(t, "dirty", content)
	})
}
