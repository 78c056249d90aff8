package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"simplegit.dev/simplegit/internal/credentials"
	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/internal/github"
	"simplegit.dev/simplegit/internal/output"
)

const (
	defaultOperationTimeout = 5 * time.Minute
	defaultWatchDebounce    = 300 * time.Millisecond
	eventBuffer             = 16
)

// Options configures an Engine
type Options struct {
	CloneRoot string
	Store     *credentials.Store
	Backend   Backend
	Remote    RemoteFactory
	// AllowList restricts clone URLs to the provider's hosts. Nil allows any host.
	AllowList        *github.AllowList
	OperationTimeout time.Duration
	Watch            bool
	WatchDebounce    time.Duration
	Logger           *slog.Logger
}

// EventRepositoryChanged is published when a watched repository changes on disk
const EventRepositoryChanged = "repository-changed"

// Event notifies subscribers about repository changes
type Event struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type handle struct {
	repo    Repository
	watcher Watcher
}

// Engine executes operations. It is safe for concurrent use.
type Engine struct {
	opts  Options
	log   *slog.Logger
	scope *Scope
	locks *pathLocks
	stats *statsCollector

	mu       sync.Mutex
	handles  map[string]*handle
	selected string
	events   chan Event
	closed   bool
}

// New creates an engine
func New(opts Options) (*Engine, error) {
	if opts.CloneRoot == "" || !filepath.IsAbs(opts.CloneRoot) {
		return nil, sgerrors.NewValidationError("clone root must be an absolute path, got %q", opts.CloneRoot)
	}
	if opts.Store == nil {
		opts.Store = credentials.NewStore()
	}
	if opts.Backend == nil {
		opts.Backend = NewGitBackend()
	}
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = defaultOperationTimeout
	}
	if opts.WatchDebounce <= 0 {
		opts.WatchDebounce = defaultWatchDebounce
	}
	log := opts.Logger
	if log == nil {
		log = output.Discard()
	}

	return &Engine{
		opts:    opts,
		log:     log.With("component", "engine"),
		scope:   NewScope(opts.CloneRoot),
		locks:   newPathLocks(),
		stats:   newStatsCollector(),
		handles: map[string]*handle{},
		events:  make(chan Event, eventBuffer),
	}, nil
}

// Scope returns the filesystem scope operations are confined to
func (e *Engine) Scope() *Scope {
	return e.scope
}

// Events delivers repository-changed notifications for watched repositories
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Selected returns the path of the selected repository, or ""
func (e *Engine) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// CachedStats returns the last stats computed for a path or identifier.
// Zero stats mean they have not been loaded yet.
func (e *Engine) CachedStats(key string) Stats {
	return e.stats.cached(key)
}

// Submit runs req in the background and delivers its result on the returned channel
func (e *Engine) Submit(ctx context.Context, req Request) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		ch <- e.Execute(ctx, req)
		close(ch)
	}()
	return ch
}

// Execute runs one operation and returns its result. Failures, including
// panics inside the backend, are returned as failed results.
func (e *Engine) Execute(ctx context.Context, req Request) (res Result) {
	var op OperationKind
	if req != nil {
		op = req.Operation()
	}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("operation panicked", "op", op, "panic", r, "stack", string(debug.Stack()))
			res = failure(op, sgerrors.Wrap(sgerrors.KindInternal, fmt.Errorf("%v", r), "%s failed unexpectedly", op))
		}
	}()

	if err := validate(req); err != nil {
		e.log.Debug("rejected operation", "op", op, "error", err)
		return failure(op, err)
	}

	switch r := req.(type) {
	case LocalOperation:
		res = e.executeLocal(ctx, r)
	case RemoteOperation:
		res = e.executeRemote(ctx, r)
	}

	if res.OK {
		e.log.Debug("operation finished", "op", op, "duration", time.Since(start))
	} else {
		e.log.Debug("operation failed", "op", op, "kind", res.ErrorKind, "error", res.Message)
	}
	return res
}

// Close stops all repository watchers and closes the event channel
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	for path, h := range e.handles {
		if h.watcher != nil {
			_ = h.watcher.Close()
		}
		delete(e.handles, path)
	}
	e.selected = ""
	close(e.events)
	return nil
}

// requireToken returns the current token or an AuthRequiredError
func (e *Engine) requireToken(op OperationKind) (string, error) {
	token, ok := e.opts.Store.Token()
	if !ok {
		return "", sgerrors.NewAuthRequiredError("%s requires signing in to GitHub first", op)
	}
	return token, nil
}

func (e *Engine) remoteService(ctx context.Context, op OperationKind) (RemoteService, error) {
	token, err := e.requireToken(op)
	if err != nil {
		return nil, err
	}
	if e.opts.Remote == nil {
		return nil, sgerrors.NewStateError("no hosting provider is configured")
	}
	return e.opts.Remote(ctx, token)
}

func (e *Engine) networkContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.opts.OperationTimeout)
}

// repository returns the open handle for path, opening it on first use
func (e *Engine) repository(path string) (Repository, error) {
	e.mu.Lock()
	h, ok := e.handles[path]
	e.mu.Unlock()
	if ok {
		return h.repo, nil
	}

	repo, err := e.opts.Backend.Open(path)
	if err != nil {
		return nil, err
	}
	e.attach(path, repo, false)
	return repo, nil
}

// attach registers repo under path and the repository root, replacing any
// previous handle. With watch set a watcher is started when enabled.
func (e *Engine) attach(path string, repo Repository, watch bool) {
	var w Watcher
	if watch && e.opts.Watch {
		var err error
		w, err = repo.Watch(context.Background(), e.opts.WatchDebounce)
		if err != nil {
			e.log.Warn("could not watch repository", "path", repo.Path(), "error", err)
			w = nil
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		if w != nil {
			_ = w.Close()
		}
		return
	}
	h := &handle{repo: repo, watcher: w}
	for _, key := range uniquePaths(path, repo.Path()) {
		if old, ok := e.handles[key]; ok && old.watcher != nil && old.watcher != w {
			_ = old.watcher.Close()
		}
		e.handles[key] = h
	}
	if watch {
		e.selected = repo.Path()
	}
	if w != nil {
		go e.forward(repo.Path(), w)
	}
}

// release drops every handle rooted at path
func (e *Engine) release(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, h := range e.handles {
		if key == path || h.repo.Path() == path {
			if h.watcher != nil {
				_ = h.watcher.Close()
			}
			delete(e.handles, key)
		}
	}
	if e.selected == path {
		e.selected = ""
	}
}

func (e *Engine) forward(path string, w Watcher) {
	for range w.Events() {
		e.stats.invalidate(path)
		e.publish(Event{Type: EventRepositoryChanged, Path: path})
	}
}

func (e *Engine) publish(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.log.Debug("dropping repository event", "path", ev.Path)
	}
}

func uniquePaths(paths ...string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
