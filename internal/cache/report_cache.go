package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/tmeier/occuboard/backend/internal/report"
	"github.com/tmeier/occuboard/backend/internal/types"
)

// maxEntries bounds the cache; the oldest entry is evicted when full.
const maxEntries = 64

// ReportCache keeps recently assembled reports in memory so repeated
// dashboard refreshes of the same window don't refetch and recompute.
type ReportCache struct {
	entries map[string]*entry
	ttl     time.Duration
	mu      sync.RWMutex
}

type entry struct {
	report  *report.Report
	addedAt time.Time
}

// NewReportCache creates a report cache with the given entry lifetime. A
// non-positive ttl disables caching entirely.
func NewReportCache(ttl time.Duration) *ReportCache {
	return &ReportCache{
		entries: make(map[string]*entry, maxEntries),
		ttl:     ttl,
	}
}

// Key derives the cache key for one report request.
func Key(from, to time.Time, alignment time.Duration, filter types.AgentFilter) string {
	return fmt.Sprintf("%d|%d|%d|%s|%s", from.Unix(), to.Unix(), alignment, filter.Name, filter.Extension)
}

// Get returns the cached report for the key, or nil when absent or expired.
func (c *ReportCache) Get(key string) *report.Report {
	if c.ttl <= 0 {
		return nil
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	if time.Since(e.addedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil
	}
	return e.report
}

// Put stores an assembled report, evicting the oldest entry when full.
func (c *ReportCache) Put(key string, r *report.Report) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.addedAt.Before(oldest) {
				oldestKey, oldest = k, e.addedAt
			}
		}
		delete(c.entries, oldestKey)
	}
	c.entries[key] = &entry{report: r, addedAt: time.Now()}
}

// Size returns the current number of cached reports.
func (c *ReportCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
