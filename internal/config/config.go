package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the resolved application configuration.
type Config struct {
	// CloneRoot is where repositories are cloned and the only directory tree,
	// besides explicitly opened repositories, that operations may touch.
	CloneRoot string        `mapstructure:"clone_root"`
	GitHub    GitHubConfig  `mapstructure:"github"`
	Auth      AuthConfig    `mapstructure:"auth"`
	Network   NetworkConfig `mapstructure:"network"`
	Watch     WatchConfig   `mapstructure:"watch"`
	Log       LogConfig     `mapstructure:"log"`
}

// GitHubConfig describes the OAuth application and API endpoints.
type GitHubConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	AuthURL      string   `mapstructure:"auth_url"`
	TokenURL     string   `mapstructure:"token_url"`
	APIURL       string   `mapstructure:"api_url"`
	Scopes       []string `mapstructure:"scopes"`
}

// AuthConfig controls the browser login session.
type AuthConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	CallbackHost string        `mapstructure:"callback_host"`
}

// NetworkConfig bounds remote operations.
type NetworkConfig struct {
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
	AllowedHosts     []string      `mapstructure:"allowed_hosts"`
}

// WatchConfig controls the repository watcher started on open.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	File string `mapstructure:"file"`
}

// Load reads configuration from the given file, or from
// ~/.config/simplegit/config.yaml when path is empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(configDirectory())
	}

	setDefaults(v)

	v.SetEnvPrefix("SIMPLEGIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Names used by existing installs.
	_ = v.BindEnv("github.client_id", "SIMPLEGIT_GITHUB_CLIENT_ID", "GITHUB_CLIENT_ID")
	_ = v.BindEnv("github.client_secret", "SIMPLEGIT_GITHUB_CLIENT_SECRET", "GITHUB_CLIENT_SECRET")
	_ = v.BindEnv("clone_root", "SIMPLEGIT_CLONE_ROOT", "CLONE_DIRECTORY")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is fine, use defaults.
		var notFound viper.ConfigFileNotFoundError
		if !asNotFound(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.CloneRoot = expandHome(cfg.CloneRoot)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// asNotFound treats both viper's not-found error and a missing explicit file as "no config".
func asNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	if e, ok := err.(viper.ConfigFileNotFoundError); ok {
		*target = e
		return true
	}
	return os.IsNotExist(err)
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("clone_root", filepath.Join(home, ".simplegit"))
	v.SetDefault("github.client_id", "")
	v.SetDefault("github.client_secret", "")
	v.SetDefault("github.auth_url", "https://github.com/login/oauth/authorize")
	v.SetDefault("github.token_url", "https://github.com/login/oauth/access_token")
	v.SetDefault("github.api_url", "https://api.github.com/")
	v.SetDefault("github.scopes", []string{"repo", "user"})
	v.SetDefault("auth.timeout", 120*time.Second)
	v.SetDefault("auth.callback_host", "127.0.0.1")
	v.SetDefault("network.operation_timeout", 5*time.Minute)
	v.SetDefault("network.allowed_hosts", []string{"github.com", "api.github.com"})
	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce", 300*time.Millisecond)
	v.SetDefault("log.file", filepath.Join(configDirectory(), "simplegit.log"))
}

// Validate checks values that would otherwise fail deep inside an operation.
func (c *Config) Validate() error {
	if c.CloneRoot == "" {
		return fmt.Errorf("clone_root must be set")
	}
	if !filepath.IsAbs(c.CloneRoot) {
		return fmt.Errorf("clone_root must be an absolute path, got %q", c.CloneRoot)
	}
	if c.Auth.Timeout <= 0 {
		return fmt.Errorf("auth.timeout must be positive")
	}
	if c.Network.OperationTimeout <= 0 {
		return fmt.Errorf("network.operation_timeout must be positive")
	}
	for _, raw := range []string{c.GitHub.AuthURL, c.GitHub.TokenURL, c.GitHub.APIURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid GitHub endpoint %q", raw)
		}
	}
	return nil
}

// ValidateOAuth reports which OAuth application settings are missing.
func (c *Config) ValidateOAuth() error {
	var missing []string
	if c.GitHub.ClientID == "" {
		missing = append(missing, "GITHUB_CLIENT_ID")
	}
	if c.GitHub.ClientSecret == "" {
		missing = append(missing, "GITHUB_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required OAuth settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ProviderHosts returns the hosts outbound HTTP may reach: the configured
// allow-list plus the hosts of the OAuth and API endpoints.
func (c *Config) ProviderHosts() []string {
	seen := map[string]bool{}
	var hosts []string
	add := func(h string) {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && !seen[h] {
			seen[h] = true
			hosts = append(hosts, h)
		}
	}
	for _, h := range c.Network.AllowedHosts {
		add(h)
	}
	for _, raw := range []string{c.GitHub.AuthURL, c.GitHub.TokenURL, c.GitHub.APIURL} {
		if u, err := url.Parse(raw); err == nil {
			add(u.Host)
		}
	}
	return hosts
}

func configDirectory() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "simplegit")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "simplegit")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
