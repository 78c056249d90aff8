package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GITHUB_CLIENT_ID", "")
	t.Setenv("GITHUB_CLIENT_SECRET", "")
	t.Setenv("CLONE_DIRECTORY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".simplegit"), cfg.CloneRoot)
	require.Equal(t, 120*time.Second, cfg.Auth.Timeout)
	require.Equal(t, "127.0.0.1", cfg.Auth.CallbackHost)
	require.Equal(t, []string{"repo", "user"}, cfg.GitHub.Scopes)
	require.ElementsMatch(t, []string{"github.com", "api.github.com"}, cfg.ProviderHosts())
	require.Error(t, cfg.ValidateOAuth())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GITHUB_CLIENT_ID", "")
	t.Setenv("GITHUB_CLIENT_SECRET", "")
	t.Setenv("CLONE_DIRECTORY", "")
	path := filepath.Join(dir, "config.yaml")
	content := `clone_root: ` + filepath.Join(dir, "repos") + `
github:
  client_id: abc
  client_secret: shh
  api_url: https://ghe.example.com/api/v3/
auth:
  timeout: 30s
network:
  operation_timeout: 1m
  allowed_hosts: [ghe.example.com]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "repos"), cfg.CloneRoot)
	require.Equal(t, 30*time.Second, cfg.Auth.Timeout)
	require.Equal(t, time.Minute, cfg.Network.OperationTimeout)
	require.NoError(t, cfg.ValidateOAuth())
	require.Contains(t, cfg.ProviderHosts(), "ghe.example.com")
	require.Contains(t, cfg.ProviderHosts(), "github.com")
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GITHUB_CLIENT_ID", "from-env")
	t.Setenv("GITHUB_CLIENT_SECRET", "secret-env")
	t.Setenv("CLONE_DIRECTORY", filepath.Join(dir, "clones"))

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.GitHub.ClientID)
	require.Equal(t, filepath.Join(dir, "clones"), cfg.CloneRoot)
	require.NoError(t, cfg.ValidateOAuth())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			CloneRoot: "/tmp/repos",
			GitHub: GitHubConfig{
				AuthURL:  "https://github.com/login/oauth/authorize",
				TokenURL: "https://github.com/login/oauth/access_token",
				APIURL:   "https://api.github.com/",
			},
			Auth:    AuthConfig{Timeout: time.Second},
			Network: NetworkConfig{OperationTimeout: time.Second},
		}
	}

	t.Run("accepts a complete config", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("rejects relative clone root", func(t *testing.T) {
		cfg := valid()
		cfg.CloneRoot = "repos"
		require.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive timeouts", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.Timeout = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("rejects endpoint without host", func(t *testing.T) {
		cfg := valid()
		cfg.GitHub.TokenURL = "not a url"
		require.Error(t, cfg.Validate())
	})
}
