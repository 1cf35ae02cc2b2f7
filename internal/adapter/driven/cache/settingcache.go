// Package cache provides a time-bounded read-through cache in front of the
// settings store.
package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/ericfisherdev/storeadmin/internal/domain/model"
	"github.com/ericfisherdev/storeadmin/internal/domain/port/driven"
)

// DefaultTTL bounds how long a cached read may be served.
const DefaultTTL = time.Hour

// Compile-time interface satisfaction check.
var _ driven.SettingStore = (*SettingCache)(nil)

// keyEntry distinguishes a cached miss from an absent cache entry.
type keyEntry struct {
	setting *model.Setting
}

// SettingCache decorates a SettingStore with per-section and per-key caches.
// Every write through the decorator invalidates the affected keys and
// sections, so callers never manage invalidation themselves. Writes made
// directly against the underlying store are visible after at most the TTL.
type SettingCache struct {
	next     driven.SettingStore
	sections *ttlcache.Cache[string, []model.Setting]
	keys     *ttlcache.Cache[string, keyEntry]
}

// NewSettingCache wraps next. A ttl of 0 selects DefaultTTL.
func NewSettingCache(next driven.SettingStore, ttl time.Duration) *SettingCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SettingCache{
		next: next,
		sections: ttlcache.New(
			ttlcache.WithTTL[string, []model.Setting](ttl),
			ttlcache.WithDisableTouchOnHit[string, []model.Setting](),
		),
		keys: ttlcache.New(
			ttlcache.WithTTL[string, keyEntry](ttl),
			ttlcache.WithDisableTouchOnHit[string, keyEntry](),
		),
	}
}

// Start runs the expiry loops and blocks until Stop is called. Expired items
// are already ignored on read; the loops only reclaim memory.
func (c *SettingCache) Start() {
	go c.sections.Start()
	c.keys.Start()
}

// Stop halts the expiry loops started by Start.
func (c *SettingCache) Stop() {
	c.sections.Stop()
	c.keys.Stop()
}

// ListBySection serves section reads from cache, loading on miss. Errors are
// not cached.
func (c *SettingCache) ListBySection(ctx context.Context, section string) ([]model.Setting, error) {
	if item := c.sections.Get(section); item != nil {
		return cloneSettings(item.Value()), nil
	}

	settings, err := c.next.ListBySection(ctx, section)
	if err != nil {
		return nil, err
	}
	c.sections.Set(section, cloneSettings(settings), ttlcache.DefaultTTL)
	return settings, nil
}

// Get serves key reads from cache, loading on miss. A missing key is cached
// as a miss.
func (c *SettingCache) Get(ctx context.Context, key string) (*model.Setting, error) {
	if item := c.keys.Get(key); item != nil {
		return cloneSetting(item.Value().setting), nil
	}

	s, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.keys.Set(key, keyEntry{setting: cloneSetting(s)}, ttlcache.DefaultTTL)
	return s, nil
}

// UpsertAll writes through to the underlying store and then invalidates every
// touched key and section, including the section a key previously lived in.
func (c *SettingCache) UpsertAll(ctx context.Context, settings []model.Setting) error {
	defer c.invalidate(settings)
	return c.next.UpsertAll(ctx, settings)
}

// Count is not cached.
func (c *SettingCache) Count(ctx context.Context) (int, error) {
	return c.next.Count(ctx)
}

// Flush drops every cached entry.
func (c *SettingCache) Flush() {
	c.sections.DeleteAll()
	c.keys.DeleteAll()
}

func (c *SettingCache) invalidate(settings []model.Setting) {
	for _, s := range settings {
		if item := c.keys.Get(s.Key); item != nil && item.Value().setting != nil {
			c.sections.Delete(item.Value().setting.Section)
		}
		c.keys.Delete(s.Key)
		c.sections.Delete(s.Section)
	}
}

func cloneSettings(in []model.Setting) []model.Setting {
	out := make([]model.Setting, len(in))
	copy(out, in)
	return out
}

func cloneSetting(s *model.Setting) *model.Setting {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
