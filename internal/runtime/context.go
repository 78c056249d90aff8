package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"simplegit.dev/simplegit/internal/auth"
	"simplegit.dev/simplegit/internal/config"
	"simplegit.dev/simplegit/internal/credentials"
	"simplegit.dev/simplegit/internal/engine"
	"simplegit.dev/simplegit/internal/github"
)

// TokenEnvVar is read at startup so a token obtained by an earlier login can be reused
const TokenEnvVar = "GITHUB_TOKEN"

// Context provides access to the engine, auth manager and logger for commands
type Context struct {
	Config    *config.Config
	Log       *slog.Logger
	Store     *credentials.Store
	AllowList *github.AllowList
	Auth      *auth.Manager
	Engine    *engine.Engine

	closers []io.Closer
}

// NewContext builds the runtime from a loaded configuration
func NewContext(cfg *config.Config, log *slog.Logger) (*Context, error) {
	store := credentials.NewStore()
	if token := os.Getenv(TokenEnvVar); token != "" {
		store.Set(token)
	}

	allow := github.NewAllowList(cfg.ProviderHosts())

	var exchanger auth.Exchanger
	if cfg.ValidateOAuth() == nil {
		exchanger = auth.NewOAuthExchanger(cfg.GitHub, allow.Client())
	}
	manager := auth.NewManager(auth.Options{
		Exchanger:    exchanger,
		Store:        store,
		Timeout:      cfg.Auth.Timeout,
		CallbackHost: cfg.Auth.CallbackHost,
		Logger:       log,
	})

	eng, err := engine.New(engine.Options{
		CloneRoot:        cfg.CloneRoot,
		Store:            store,
		Backend:          engine.NewGitBackend(),
		Remote:           engine.GitHubRemote(cfg.GitHub.APIURL, allow),
		AllowList:        allow,
		OperationTimeout: cfg.Network.OperationTimeout,
		Watch:            cfg.Watch.Enabled,
		WatchDebounce:    cfg.Watch.Debounce,
		Logger:           log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return &Context{
		Config:    cfg,
		Log:       log,
		Store:     store,
		AllowList: allow,
		Auth:      manager,
		Engine:    eng,
	}, nil
}

// AddCloser registers a resource released by Close, such as the log file
func (c *Context) AddCloser(closer io.Closer) {
	c.closers = append(c.closers, closer)
}

// Close cancels a pending login, stops repository watchers and then
// releases registered resources in reverse order.
func (c *Context) Close() error {
	c.Auth.Cancel()
	errs := []error{c.Engine.Close()}
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i].Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}

type contextKey struct{}

// WithContext returns a copy of parent carrying rc
func WithContext(parent context.Context, rc *Context) context.Context {
	return context.WithValue(parent, contextKey{}, rc)
}

// GetContext returns the runtime stored by WithContext
func GetContext(ctx context.Context) (*Context, error) {
	if ctx != nil {
		if rc, ok := ctx.Value(contextKey{}).(*Context); ok && rc != nil {
			return rc, nil
		}
	}
	return nil, fmt.Errorf("runtime context is not initialized")
}
