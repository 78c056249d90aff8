package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/config"
)

// NoDescription is reported when a repository has no description set
const NoDescription = "No description"

const defaultDescriptionPrefix = "Unnamed repository"

// Settings summarizes repository configuration
type Settings struct {
	Path          string       `json:"path"`
	Description   string       `json:"description"`
	CurrentBranch string       `json:"currentBranch"`
	UserName      string       `json:"userName,omitempty"`
	UserEmail     string       `json:"userEmail,omitempty"`
	Remotes       []RemoteInfo `json:"remotes"`
}

// Settings reads the repository description, identity and remotes
func (r *Repository) Settings(ctx context.Context) (Settings, error) {
	s := Settings{Path: r.path, Description: r.description(ctx)}

	branch, _, err := r.CurrentBranch()
	if err != nil {
		return Settings{}, err
	}
	s.CurrentBranch = branch

	if cfg, err := r.repo.ConfigScoped(config.GlobalScope); err == nil {
		s.UserName = cfg.User.Name
		s.UserEmail = cfg.User.Email
	}

	remotes, err := r.ListRemotes()
	if err != nil {
		return Settings{}, err
	}
	s.Remotes = remotes
	return s, nil
}

// description reads .git/description, ignoring the template placeholder
func (r *Repository) description(ctx context.Context) string {
	gitDir, err := r.runner.Run(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return NoDescription
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(r.path, gitDir)
	}
	data, err := os.ReadFile(filepath.Join(gitDir, "description"))
	if err != nil {
		return NoDescription
	}
	desc := strings.TrimSpace(string(data))
	if desc == "" || strings.HasPrefix(desc, defaultDescriptionPrefix) {
		return NoDescription
	}
	return desc
}
