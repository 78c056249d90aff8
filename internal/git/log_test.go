package git_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"simplegit.dev/simplegit/testhelpers"
)

func TestLog(t *testing.T) {
	t.Parallel()

	t.Run("empty repository has an empty log", func(t *testing.T) {
		t.Parallel()
		_, repo := openScene(t, nil)
		commits, err := repo.Log(0)
		require.NoError(t, err)
		require.NotNil(t, commits)
		require.Empty(t, commits)
	})

	t.Run("newest first with limit", func(t *testing.T) {
		t.Parallel()
		scene, repo := openScene(t, func(s *testhelpers.Scene) error {
			for _, msg := range []string{"first", "second", "third"} {
				if err := s.Repo.CommitFile(msg+".txt", msg, msg); err != nil {
					return err
				}
			}
			return nil
		})

		all, err := repo.Log(0)
		require.NoError(t, err)
		require.Len(t, all, 3)

		head, err := scene.Repo.GetRevision("HEAD")
		require.NoError(t, err)
		require.Equal(t, head, all[0].Hash)
		require.Equal(t, "third", all[0].Subject())
		require.Equal(t, "Test User", all[0].Author)
		require.Equal(t, "test@example.com", all[0].Email)

		limited, err := repo.Log(2)
		require.NoError(t, err)
		require.Len(t, limited, 2)
		require.Equal(t, "second", limited[1].Subject())
	})
}

func TestStats(t *testing.T) {
	t.Parallel()

	t.Run("empty repository", func(t *testing.T) {
		t.Parallel()
		_, repo := openScene(t, nil)
		stats, err := repo.Stats()
		require.NoError(t, err)
		require.Zero(t, stats.Commits)
		require.Zero(t, stats.Contributors)
	})

	t.Run("counts commits, branches and committers", func(t *testing.T) {
		t.Parallel()
		_, repo := openScene(t, func(s *testhelpers.Scene) error {
			if err := s.Repo.CommitFile("a.txt", "a", "a"); err != nil {
				return err
			}
			if err := s.Repo.RunGitCommand("-c", "user.email=other@example.com", "-c", "user.name=Other",
				"commit", "--allow-empty", "-m", "other"); err != nil {
				return err
			}
			return s.Repo.CreateBranch("feature")
		})
		stats, err := repo.Stats()
		require.NoError(t, err)
		require.Equal(t, 2, stats.Commits)
		require.Equal(t, 2, stats.Branches)
		require.Equal(t, 2, stats.Contributors)
	})
}
