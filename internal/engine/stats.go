package engine

import (
	"context"
	"sync"

	"simplegit.dev/simplegit/internal/github"
)

// Stats are the lightweight counts shown next to a repository.
// The zero value means "not yet loaded".
type Stats struct {
	Commits      int `json:"commits"`
	Branches     int `json:"branches"`
	Contributors int `json:"contributors"`
}

// statsCollector computes and caches repository stats keyed by path or identifier
type statsCollector struct {
	mu    sync.RWMutex
	cache map[string]Stats
}

func newStatsCollector() *statsCollector {
	return &statsCollector{cache: map[string]Stats{}}
}

func (c *statsCollector) local(repo Repository) (Stats, error) {
	s, err := repo.Stats()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Commits: s.Commits, Branches: s.Branches, Contributors: s.Contributors}
	c.store(repo.Path(), stats)
	return stats, nil
}

func (c *statsCollector) remote(ctx context.Context, svc RemoteService, id github.Identifier) (Stats, error) {
	s, err := svc.RepositoryStats(ctx, id)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Commits: s.Commits, Branches: s.Branches, Contributors: s.Contributors}
	c.store(id.String(), stats)
	return stats, nil
}

func (c *statsCollector) store(key string, s Stats) {
	c.mu.Lock()
	c.cache[key] = s
	c.mu.Unlock()
}

func (c *statsCollector) cached(key string) Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache[key]
}

func (c *statsCollector) invalidate(key string) {
	c.mu.Lock()
	delete(c.cache, key)
	c.mu.Unlock()
}
