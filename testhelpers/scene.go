package testhelpers

import (
	"path/filepath"
	"testing"
)

// Scene represents a test scene with a temporary directory and Git repository.
type Scene struct {
	// Root is a scratch directory; the repository lives in Root/repo.
	Root string
	Dir  string
	Repo *GitRepo
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a test scene with a fresh repository on branch main.
// The directory is removed by t.TempDir's cleanup. The process working
// directory is never changed, so scenes can be used from parallel tests.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "repo")
	repo, err := NewGitRepo(dir)
	if err != nil {
		t.Fatalf("Failed to create Git repo: %v", err)
	}

	scene := &Scene{Root: root, Dir: dir, Repo: repo}
	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}
	return scene
}

// BasicSceneSetup is a setup function that creates a basic scene with a single commit.
func BasicSceneSetup(scene *Scene) error {
	return scene.Repo.CreateChangeAndCommit("1", "1")
}

// RemoteSceneSetup creates one commit and pushes main to a bare "origin" remote.
func RemoteSceneSetup(scene *Scene) error {
	if err := BasicSceneSetup(scene); err != nil {
		return err
	}
	if _, err := scene.Repo.CreateBareRemote("origin"); err != nil {
		return err
	}
	return scene.Repo.PushBranch("origin", "main")
}

// Clone clones the scene's origin remote into Root/<name> as a second working copy.
func (s *Scene) Clone(t *testing.T, name string) *GitRepo {
	t.Helper()
	remote, err := s.Repo.RunGitCommandAndGetOutput("remote", "get-url", "origin")
	if err != nil {
		t.Fatalf("Scene has no origin remote: %v", err)
	}
	repo, err := NewGitRepoFromURL(filepath.Join(s.Root, name), remote)
	if err != nil {
		t.Fatalf("Failed to clone origin: %v", err)
	}
	return repo
}
