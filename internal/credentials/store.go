// Package credentials holds the process-wide access token used by remote operations.
//
// The store never talks to the network and never persists the token; loading a
// token from disk or a keychain is left to the caller.
package credentials

import (
	"strings"
	"sync"
)

// Store holds at most one access token. The zero value is an empty store.
type Store struct {
	mu    sync.RWMutex
	token string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Set replaces the current token. An empty or blank token clears the store.
func (s *Store) Set(token string) {
	token = strings.TrimSpace(token)
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear removes the current token (logout)
func (s *Store) Clear() {
	s.Set("")
}

// Token returns the current token and whether one is present
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// HasToken reports whether a token is present
func (s *Store) HasToken() bool {
	_, ok := s.Token()
	return ok
}
