package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a repository's git state and top-level files.
// Bursts of filesystem events are coalesced into one notification per debounce window.
type Watcher struct {
	fs     *fsnotify.Watcher
	events chan struct{}
	done   chan struct{}
	once   sync.Once
}

// Watch starts watching the repository. Only .git state paths and the
// top-level directory of the working tree are watched, never the whole tree.
func (r *Repository) Watch(ctx context.Context, debounce time.Duration) (*Watcher, error) {
	gitDir, err := r.runner.Run(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		gitDir = filepath.Join(r.path, ".git")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	targets := []string{
		r.path,
		gitDir,                              // HEAD, index, MERGE_HEAD etc.
		filepath.Join(gitDir, "refs"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
	}
	remotesDir := filepath.Join(gitDir, "refs", "remotes")
	if entries, err := os.ReadDir(remotesDir); err == nil {
		targets = append(targets, remotesDir)
		for _, e := range entries {
			if e.IsDir() {
				targets = append(targets, filepath.Join(remotesDir, e.Name()))
			}
		}
	}
	for _, t := range targets {
		if info, statErr := os.Stat(t); statErr == nil && info.IsDir() {
			// Non-fatal: a ref directory may not exist yet.
			_ = fw.Add(t)
		}
	}

	w := &Watcher{
		fs:     fw,
		events: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.loop(debounce)
	return w, nil
}

// Events delivers one value per debounced burst of changes. It is closed by Close.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) loop(debounce time.Duration) {
	defer close(w.events)
	var timer *time.Timer

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if shouldIgnore(ev.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
		case <-timerChan(timer):
			timer = nil
			select {
			case w.events <- struct{}{}:
			default:
			}
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// timerChan returns the timer's channel, or a nil channel if timer is nil.
func timerChan(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// shouldIgnore returns true for events that should not trigger a refresh.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)

	// Lock files appear while git is mid-operation.
	if strings.HasSuffix(base, ".lock") {
		return true
	}
	if strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swo") ||
		strings.HasSuffix(base, "~") || strings.HasPrefix(base, ".#") {
		return true
	}
	if base == "COMMIT_EDITMSG" || base == "gc.log" || strings.HasPrefix(base, "fsmonitor") {
		return true
	}
	return false
}
