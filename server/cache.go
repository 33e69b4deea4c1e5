package main

import (
	"context"
	"sync"
	"time"
)

// LiveStatusCache holds the per-tenant live-status rows with a TTL, so the
// admin dashboard polling does not hammer both stores on every refresh.
type LiveStatusCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]liveEntry
}

type liveEntry struct {
	rows     []LiveSession
	cachedAt time.Time
}

// NewLiveStatusCache creates a live-status cache with the specified TTL
func NewLiveStatusCache(ttl time.Duration) *LiveStatusCache {
	return &LiveStatusCache{
		ttl:     ttl,
		entries: make(map[string]liveEntry),
	}
}

// Get returns cached rows for the tenant if fresh, otherwise calls fetch
// and caches the result.
func (lc *LiveStatusCache) Get(ctx context.Context, companyID string, fetch func(context.Context) ([]LiveSession, error)) ([]LiveSession, error) {
	lc.mu.RLock()
	if entry, ok := lc.entries[companyID]; ok && time.Since(entry.cachedAt) < lc.ttl {
		rows := entry.rows
		lc.mu.RUnlock()
		return rows, nil
	}
	lc.mu.RUnlock()

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine might have refreshed)
	if entry, ok := lc.entries[companyID]; ok && time.Since(entry.cachedAt) < lc.ttl {
		return entry.rows, nil
	}

	rows, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	lc.entries[companyID] = liveEntry{rows: rows, cachedAt: time.Now()}
	return rows, nil
}

// Invalidate clears the tenant's cached rows.
func (lc *LiveStatusCache) Invalidate(companyID string) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	delete(lc.entries, companyID)
}
