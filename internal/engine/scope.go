package engine

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/internal/utils"
)

// Scope is the set of directories operations may touch: the clone root
// plus every repository the user explicitly opened.
type Scope struct {
	root string

	mu      sync.RWMutex
	opened  map[string]struct{}
	removed map[string]struct{}
}

// NewScope creates a scope rooted at cloneRoot
func NewScope(cloneRoot string) *Scope {
	return &Scope{
		root:    filepath.Clean(cloneRoot),
		opened:  map[string]struct{}{},
		removed: map[string]struct{}{},
	}
}

// Root returns the clone root
func (s *Scope) Root() string {
	return s.root
}

// Allow adds an explicitly opened repository
func (s *Scope) Allow(path string) {
	path = filepath.Clean(path)
	s.mu.Lock()
	s.opened[path] = struct{}{}
	delete(s.removed, path)
	s.mu.Unlock()
}

// Revoke takes a removed repository out of scope and remembers it
func (s *Scope) Revoke(path string) {
	path = filepath.Clean(path)
	s.mu.Lock()
	delete(s.opened, path)
	s.removed[path] = struct{}{}
	s.mu.Unlock()
}

// Removed reports whether path was revoked earlier and its directory is
// still gone.
func (s *Scope) Removed(path string) bool {
	path = filepath.Clean(path)
	s.mu.RLock()
	_, ok := s.removed[path]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	_, err := os.Stat(path)
	return errors.Is(err, os.ErrNotExist)
}

// Check returns the absolute form of path, or a ValidationError when it
// lies outside the clone root and every opened repository.
func (s *Scope) Check(path string) (string, error) {
	abs, err := absPath(path)
	if err != nil {
		return "", err
	}
	if utils.IsWithin(s.root, abs) {
		return abs, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for dir := range s.opened {
		if utils.IsWithin(dir, abs) {
			return abs, nil
		}
	}
	return "", sgerrors.NewValidationError("%s is outside the clone root and the opened repositories", abs)
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", sgerrors.NewValidationError("invalid path %q", path)
	}
	return abs, nil
}
