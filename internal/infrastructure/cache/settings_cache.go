// Package cache provides in-memory caching for slowly changing reference
// data. The payment engine reads agency settings on nearly every operation;
// the cache keeps those reads off the backing source for a bounded interval.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/propflow/backend/internal/domain/shared"
)

// SettingsCache wraps a shared.SettingsProvider with a TTL cache. Reads
// within the TTL are served from memory; the first read after expiry or
// Invalidate goes back to the source.
type SettingsCache struct {
	source shared.SettingsProvider
	ttl    time.Duration

	mu        sync.RWMutex
	cached    *shared.AgencySettings
	fetchedAt time.Time
}

// NewSettingsCache creates a settings cache over the given source
func NewSettingsCache(source shared.SettingsProvider, ttl time.Duration) *SettingsCache {
	return &SettingsCache{
		source: source,
		ttl:    ttl,
	}
}

// Get implements shared.SettingsProvider
func (c *SettingsCache) Get(ctx context.Context) (*shared.AgencySettings, error) {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.fetchedAt) < c.ttl {
		settings := c.cached
		c.mu.RUnlock()
		return settings, nil
	}
	c.mu.RUnlock()

	settings, err := c.source.Get(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cached = settings
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return settings, nil
}

// Invalidate drops the cached value so the next read refetches. Called when
// agency settings are edited.
func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

// StaticSource is a SettingsProvider that always returns the same settings.
// Used for wiring tests and single-tenant deployments configured from file.
type StaticSource struct {
	Settings shared.AgencySettings
}

// Get implements shared.SettingsProvider
func (s *StaticSource) Get(ctx context.Context) (*shared.AgencySettings, error) {
	settings := s.Settings
	return &settings, nil
}
