package git_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"simplegit.dev/simplegit/internal/git"
	"simplegit.dev/simplegit/testhelpers"
)

func TestDiff(t *testing.T) {
	t.Parallel()

	t.Run("unchanged tree has no entries", func(t *testing.T) {
		t.Parallel()
		_, repo := openScene(t, testhelpers.BasicSceneSetup)
		entries, err := repo.Diff()
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("modified file keeps line markers", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CommitFile("f.txt", "a\nb\nc\n", "base")
		})
		require.NoError(t, scene.Repo.WriteFile("f.txt", "a\nB\nc\n"))

		entries, err := repo.Diff()
		require.NoError(t, err)
		require.Len(t, entries, 1)

		entry := entries[0]
		require.Equal(t, git.StatusModified, entry.Status)
		require.Equal(t, "f.txt", entry.OldPath)
		require.Equal(t, "f.txt", entry.NewPath)
		require.Len(t, entry.Hunks, 1)

		hunk := entry.Hunks[0]
		require.Equal(t, git.LineModification, hunk.LineType)
		require.Equal(t, 1, hunk.OldStart)
		require.Equal(t, 3, hunk.OldCount)
		require.Equal(t, 1, hunk.NewStart)
		require.Equal(t, 3, hunk.NewCount)
		require.Equal(t, []string{" a", "-b", "+B", " c"}, hunk.Lines())
	})

	t.Run("new, deleted and sorted by path", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CommitFile("z.txt", "z\n", "base")
		})
		require.NoError(t, os.Remove(filepath.Join(scene.Dir, "z.txt")))
		require.NoError(t, scene.Repo.WriteFile("a.txt", "new\n"))

		entries, err := repo.Diff()
		require.NoError(t, err)
		require.Len(t, entries, 2)

		require.Equal(t, git.StatusNew, entries[0].Status)
		require.Equal(t, "a.txt", entries[0].NewPath)
		require.Empty(t, entries[0].OldPath)
		require.Len(t, entries[0].Hunks, 1)
		require.Equal(t, git.LineAddition, entries[0].Hunks[0].LineType)
		require.Equal(t, 0, entries[0].Hunks[0].OldCount)
		require.Equal(t, 1, entries[0].Hunks[0].NewCount)

		require.Equal(t, git.StatusDeleted, entries[1].Status)
		require.Equal(t, "z.txt", entries[1].OldPath)
		require.Empty(t, entries[1].NewPath)
		require.Equal(t, git.LineDeletion, entries[1].Hunks[0].LineType)
	})

	t.Run("identical content moved is a rename", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CommitFile("old.txt", "same content\n", "base")
		})
		require.NoError(t, scene.Repo.RunGitCommand("mv", "old.txt", "new.txt"))

		entries, err := repo.Diff()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, git.StatusRenamed, entries[0].Status)
		require.Equal(t, "old.txt", entries[0].OldPath)
		require.Equal(t, "new.txt", entries[0].NewPath)
		require.Empty(t, entries[0].Hunks)
	})

	t.Run("binary file has a status and no hunks", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, testhelpers.BasicSceneSetup)
		require.NoError(t, scene.Repo.WriteFile("blob.bin", "\x00\x01\x02binary"))

		entries, err := repo.Diff()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, git.StatusNew, entries[0].Status)
		require.True(t, entries[0].Binary)
		require.NotNil(t, entries[0].Hunks)
		require.Empty(t, entries[0].Hunks)
	})

	t.Run("staged then discarded file disappears", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CommitFile("f.txt", "one\n", "base")
		})
		require.NoError(t, scene.Repo.WriteFile("f.txt", "two\n"))
		_, err := repo.StageAll(context.Background())
		require.NoError(t, err)

		entries, err := repo.Diff()
		require.NoError(t, err)
		require.Len(t, entries, 1)

		_, err = repo.ResetHard(context.Background(), "HEAD")
		require.NoError(t, err)

		entries, err = repo.Diff()
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("empty repository reports every file as new", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, nil)
		require.NoError(t, scene.Repo.WriteFile("first.txt", "hello"))

		entries, err := repo.Diff()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, git.StatusNew, entries[0].Status)
		require.Equal(t, []string{"+hello", `\ No newline at end of file`}, entries[0].Hunks[0].Lines())
	})

	t.Run("dropping the final newline has a hunk", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CommitFile("f.txt", "a\nb\n", "base")
		})
		require.NoError(t, scene.Repo.WriteFile("f.txt", "a\nb"))

		entries, err := repo.Diff()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, git.StatusModified, entries[0].Status)
		require.Len(t, entries[0].Hunks, 1)

		hunk := entries[0].Hunks[0]
		require.Equal(t, git.LineModification, hunk.LineType)
		require.Equal(t, 2, hunk.OldCount)
		require.Equal(t, 2, hunk.NewCount)
		require.Equal(t, []string{" a", "-b", "+b", `\ No newline at end of file`}, hunk.Lines())
	})
}
