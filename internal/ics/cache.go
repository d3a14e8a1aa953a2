package ics

import (
	"context"
	"sync"
	"time"

	"github.com/gatherhub/gatherhub-api/internal/domain"
)

// FetchFunc produces the current per-source calendar events. The production
// implementation is Fetcher.FetchAll bound to the configured calendars.
type FetchFunc func(ctx context.Context) map[string][]domain.CalendarEvent

// Cache memoizes a calendar fetch for a fixed TTL so that overlapping read
// requests do not hammer upstream. The (events, fetchedAt) pair is swapped
// under one lock, so readers never observe a half-updated cache. Invalidation
// is purely by elapsed time.
type Cache struct {
	fetch FetchFunc
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	events    map[string][]domain.CalendarEvent
	fetchedAt time.Time
}

func NewCache(fetch FetchFunc, ttl time.Duration) *Cache {
	return &Cache{
		fetch: fetch,
		ttl:   ttl,
		now:   time.Now,
	}
}

// GetOrRefresh returns the cached events when they are younger than the TTL,
// otherwise refetches and swaps the cache. The refetch happens under the
// cache lock; a hung upstream therefore stalls concurrent readers rather
// than fanning out duplicate fetches.
func (c *Cache) GetOrRefresh(ctx context.Context) map[string][]domain.CalendarEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fetchedAt.IsZero() || c.now().Sub(c.fetchedAt) >= c.ttl {
		c.events = c.fetch(ctx)
		c.fetchedAt = c.now()
	}

	return c.events
}
