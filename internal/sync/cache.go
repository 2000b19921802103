package sync

import (
	"sync"
	"time"

	"github.com/mkondo/notionsync/internal/models"
)

// resultCache is the single-slot, process-lifetime cache for the last
// sync result. It is mutex-guarded: syncs may run from multiple server
// goroutines.
type resultCache struct {
	mu        sync.Mutex
	pageID    string
	result    *models.SyncResult
	fetchedAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl: ttl,
		now: time.Now,
	}
}

// fresh returns the cached result if it belongs to pageID and is still
// inside the revalidation window.
func (c *resultCache) fresh(pageID string) *models.SyncResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil || c.pageID != pageID {
		return nil
	}
	if c.now().Sub(c.fetchedAt) > c.ttl {
		return nil
	}
	out := *c.result
	return &out
}

// stale returns the last-good result for pageID regardless of age,
// marked as served from stale cache. Used when a fetch fails.
func (c *resultCache) stale(pageID string) *models.SyncResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil || c.pageID != pageID {
		return nil
	}
	out := *c.result
	out.Source = "stale-cache"
	return &out
}

func (c *resultCache) put(pageID string, result *models.SyncResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageID = pageID
	c.result = result
	c.fetchedAt = c.now()
}
