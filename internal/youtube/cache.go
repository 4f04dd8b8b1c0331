package youtube

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type infoFetcher func(ctx context.Context, token, videoID string) (json.RawMessage, error)

type cacheEntry struct {
	body    json.RawMessage
	expires time.Time
}

// InfoCache keeps video-info responses in memory for a fixed TTL, keyed by
// video id. Failed lookups are not cached.
type InfoCache struct {
	fetch infoFetcher
	ttl   time.Duration
	now   func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewInfoCache wraps fetch with a TTL cache.
func NewInfoCache(fetch infoFetcher, ttl time.Duration) *InfoCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &InfoCache{
		fetch: fetch,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
}

// Lookup returns the cached body when fresh, otherwise it fetches and stores it.
func (c *InfoCache) Lookup(ctx context.Context, token, videoID string) (json.RawMessage, error) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[videoID]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.body, nil
	}

	body, err := c.fetch(ctx, token, videoID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items[videoID] = cacheEntry{body: body, expires: now.Add(c.ttl)}
	for id, e := range c.items {
		if !now.Before(e.expires) {
			delete(c.items, id)
		}
	}
	c.mu.Unlock()

	return body, nil
}
