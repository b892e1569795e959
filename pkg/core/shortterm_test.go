package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engramlabs/engram-go/pkg/scoring"
)

func TestShortTermFIFOEviction(t *testing.T) {
	cache := newShortTermCache(3)
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		cache.append(&Memory{
			Content:      fmt.Sprintf("memory %d", i),
			CreatedAt:    now.Add(time.Duration(i) * time.Second),
			LastAccessed: now.Add(time.Duration(i) * time.Second),
			AccessCount:  1,
		})
	}

	assert.Equal(t, 3, cache.len())

	// The two oldest entries were evicted; insertion order survives
	entries := cache.snapshot()
	require.Len(t, entries, 3)
	assert.Equal(t, "memory 2", entries[0].Content)
	assert.Equal(t, "memory 4", entries[2].Content)
}

func TestShortTermSearchSubstring(t *testing.T) {
	cache := newShortTermCache(10)
	scorer := scoring.NewScorer()
	now := time.Now().UTC()

	for _, content := range []string{"I like apples", "applesauce recipe", "banana bread"} {
		cache.append(&Memory{Content: content, CreatedAt: now, LastAccessed: now, AccessCount: 1})
	}

	results := cache.search("apples", nil, scorer, now)
	require.Len(t, results, 2)
	for _, m := range results {
		assert.Contains(t, m.Content, "apples")
	}

	// Matching is case-insensitive
	results = cache.search("APPLES", nil, scorer, now)
	assert.Len(t, results, 2)

	// An empty query matches everything
	results = cache.search("", nil, scorer, now)
	assert.Len(t, results, 3)
}

func TestShortTermSearchTagFilter(t *testing.T) {
	cache := newShortTermCache(10)
	scorer := scoring.NewScorer()
	now := time.Now().UTC()

	cache.append(&Memory{Content: "a", Tags: []string{"work", "todo"}, CreatedAt: now, LastAccessed: now, AccessCount: 1})
	cache.append(&Memory{Content: "b", Tags: []string{"personal"}, CreatedAt: now, LastAccessed: now, AccessCount: 1})
	cache.append(&Memory{Content: "c", CreatedAt: now, LastAccessed: now, AccessCount: 1})

	// Any-tag membership: one shared tag is enough
	results := cache.search("", []string{"todo", "personal"}, scorer, now)
	require.Len(t, results, 2)

	// Untagged memories never match a tag filter
	results = cache.search("", []string{"missing"}, scorer, now)
	assert.Empty(t, results)
}

func TestShortTermSearchOrdering(t *testing.T) {
	cache := newShortTermCache(10)
	scorer := scoring.NewScorer()
	now := time.Now().UTC()

	// Older entry first, fresher entry second
	cache.append(&Memory{Content: "old", CreatedAt: now.Add(-48 * time.Hour), LastAccessed: now, AccessCount: 1})
	cache.append(&Memory{Content: "fresh", CreatedAt: now, LastAccessed: now, AccessCount: 1})

	results := cache.search("", nil, scorer, now)
	require.Len(t, results, 2)
	assert.Equal(t, "fresh", results[0].Content)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestShortTermSearchStableTies(t *testing.T) {
	cache := newShortTermCache(10)
	scorer := scoring.NewScorer()
	now := time.Now().UTC()

	// Identical age and access count, so identical scores
	for i := 0; i < 4; i++ {
		cache.append(&Memory{
			Content:      fmt.Sprintf("tie %d", i),
			CreatedAt:    now,
			LastAccessed: now,
			AccessCount:  1,
		})
	}

	// Equal scores keep insertion order
	results := cache.search("tie", nil, scorer, now)
	require.Len(t, results, 4)
	for i, m := range results {
		assert.Equal(t, fmt.Sprintf("tie %d", i), m.Content)
	}
}

func TestShortTermSearchReturnsCopies(t *testing.T) {
	cache := newShortTermCache(10)
	scorer := scoring.NewScorer()
	now := time.Now().UTC()

	cache.append(&Memory{Content: "original", CreatedAt: now, LastAccessed: now, AccessCount: 1})

	results := cache.search("", nil, scorer, now)
	require.Len(t, results, 1)
	results[0].Content = "mutated"

	entries := cache.snapshot()
	assert.Equal(t, "original", entries[0].Content)
}

func TestShortTermRemoveByID(t *testing.T) {
	cache := newShortTermCache(10)
	now := time.Now().UTC()

	cache.append(&Memory{ID: 42, Content: "durable", CreatedAt: now, LastAccessed: now, AccessCount: 1})
	cache.append(&Memory{Content: "cache only", CreatedAt: now, LastAccessed: now, AccessCount: 1})

	assert.Equal(t, 1, cache.removeByID(42))
	assert.Equal(t, 1, cache.len())

	// Cache-only entries carry no id and never match an id selector
	assert.Equal(t, 0, cache.removeByID(0))
	assert.Equal(t, 1, cache.len())
}

func TestShortTermPruneOlderThan(t *testing.T) {
	cache := newShortTermCache(10)
	now := time.Now().UTC()

	cache.append(&Memory{Content: "old", CreatedAt: now.Add(-72 * time.Hour), LastAccessed: now, AccessCount: 1})
	cache.append(&Memory{Content: "recent", CreatedAt: now.Add(-time.Hour), LastAccessed: now, AccessCount: 1})

	removed := cache.pruneOlderThan(now.Add(-24 * time.Hour))
	assert.Equal(t, 1, removed)

	entries := cache.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "recent", entries[0].Content)

	// A cutoff of now removes everything that remains
	assert.Equal(t, 1, cache.pruneOlderThan(now))
	assert.Equal(t, 0, cache.len())
}
