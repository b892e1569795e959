// Package core provides the two-tier memory store orchestrator.
package core

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/engramlabs/engram-go/pkg/scoring"
)

// shortTermCache is the bounded, insertion-ordered in-process tier.
//
// It holds at most capacity memories; appending beyond capacity evicts the
// oldest entry (strict FIFO, not scored eviction). All mutations are
// serialized by the mutex. The mutex is never held across backing-store I/O;
// search copies entries out under the lock and scores the copies.
type shortTermCache struct {
	mu       sync.Mutex
	capacity int
	entries  []*Memory
}

func newShortTermCache(capacity int) *shortTermCache {
	return &shortTermCache{
		capacity: capacity,
		entries:  make([]*Memory, 0, capacity),
	}
}

// append adds a memory, evicting the oldest entry when capacity is exceeded.
// The evicted entry is silently dropped; its durable copy survives.
func (c *shortTermCache) append(m *Memory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, m)
	if len(c.entries) > c.capacity {
		c.entries = c.entries[1:]
	}
}

// len returns the current number of cached memories.
func (c *shortTermCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// search filters the cache by case-insensitive substring match on content
// and by "any tag in filter set" membership, then scores and sorts the
// matches in descending relevance order. The sort is stable, so equal
// scores preserve insertion order.
//
// Returned memories are copies; mutating them does not affect the cache.
func (c *shortTermCache) search(query string, tags []string, scorer *scoring.Scorer, now time.Time) []*Memory {
	c.mu.Lock()
	matched := make([]*Memory, 0, len(c.entries))
	queryLower := strings.ToLower(query)
	for _, m := range c.entries {
		if query != "" && !strings.Contains(strings.ToLower(m.Content), queryLower) {
			continue
		}
		if len(tags) > 0 && !hasAnyTag(m.Tags, tags) {
			continue
		}
		matched = append(matched, m.clone())
	}
	c.mu.Unlock()

	for _, m := range matched {
		m.Score = scorer.Score(m.CreatedAt, m.AccessCount, now)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Score > matched[j].Score
	})

	return matched
}

// removeByID drops cached entries with the given durable id and returns the
// number removed. Cache-only entries have no id and are never matched.
func (c *shortTermCache) removeByID(id int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.entries[:0]
	removed := 0
	for _, m := range c.entries {
		if m.ID != 0 && m.ID == id {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	c.entries = kept
	return removed
}

// pruneOlderThan rebuilds the cache without entries created at or before
// the cutoff and returns the number removed.
func (c *shortTermCache) pruneOlderThan(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.entries[:0]
	removed := 0
	for _, m := range c.entries {
		if m.CreatedAt.After(cutoff) {
			kept = append(kept, m)
			continue
		}
		removed++
	}
	c.entries = kept
	return removed
}

// snapshot returns copies of all cached entries in insertion order.
func (c *shortTermCache) snapshot() []*Memory {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Memory, len(c.entries))
	for i, m := range c.entries {
		out[i] = m.clone()
	}
	return out
}

// hasAnyTag reports whether any filter tag appears in the memory's tags.
func hasAnyTag(memoryTags, filter []string) bool {
	for _, want := range filter {
		for _, have := range memoryTags {
			if have == want {
				return true
			}
		}
	}
	return false
}
