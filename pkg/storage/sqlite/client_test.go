package sqlite_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engramlabs/engram-go/pkg/storage"
	sqliteStore "github.com/engramlabs/engram-go/pkg/storage/sqlite"
)

func setupSQLiteTest(t *testing.T) (storage.Store, func()) {
	testDBPath := "./test_engram.db"

	// Clean up any existing test database
	_ = os.Remove(testDBPath)

	store, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: testDBPath,
	})
	require.NoError(t, err)
	require.NotNil(t, store)

	require.NoError(t, store.EnsureSchema(context.Background()))

	cleanup := func() {
		_ = store.Close()
		_ = os.Remove(testDBPath)
	}

	return store, cleanup
}

func insertMemory(t *testing.T, store storage.Store, content string, tags []string, createdAt time.Time, accessCount int) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := store.Insert(ctx, &storage.Memory{
		Content:      content,
		Metadata:     map[string]interface{}{"source": "test"},
		CreatedAt:    createdAt,
		LastAccessed: createdAt,
		AccessCount:  accessCount,
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	require.NoError(t, store.InsertTags(ctx, id, tags))
	return id
}

func defaultQueryOptions() *storage.QueryOptions {
	return &storage.QueryOptions{
		Limit:           10,
		RecencyWeight:   0.7,
		FrequencyWeight: 0.3,
		HalfLifeDays:    30,
	}
}

func TestSQLiteClient_EnsureSchemaIdempotent(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	// The setup helper already ran it once
	assert.NoError(t, store.EnsureSchema(context.Background()))
}

func TestSQLiteClient_InsertAndQuery(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	now := time.Now().UTC()
	id := insertMemory(t, store, "User prefers dark mode", []string{"preference", "ui"}, now, 1)

	results, err := store.QueryRanked(context.Background(), defaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)

	memory := results[0]
	assert.Equal(t, id, memory.ID)
	assert.Equal(t, "User prefers dark mode", memory.Content)
	assert.ElementsMatch(t, []string{"preference", "ui"}, memory.Tags)
	assert.Equal(t, 1, memory.AccessCount)
	assert.Equal(t, "test", memory.Metadata["source"])

	// A just-accessed memory with count 1: 0.7*~1.0 + 0.3*0.1
	assert.InDelta(t, 0.73, memory.Score, 0.01)
}

func TestSQLiteClient_QuerySubstringFilter(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	now := time.Now().UTC()
	insertMemory(t, store, "I like apples", nil, now, 1)
	insertMemory(t, store, "Applesauce recipe from grandma", nil, now, 1)
	insertMemory(t, store, "banana bread", nil, now, 1)

	opts := defaultQueryOptions()
	opts.Query = "apples"
	results, err := store.QueryRanked(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Matching is case-insensitive in both directions
	opts.Query = "APPLES"
	results, err = store.QueryRanked(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	opts.Query = "cherry"
	results, err = store.QueryRanked(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteClient_TagsWithCommas(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	now := time.Now().UTC()
	insertMemory(t, store, "tricky tags", []string{"last, first", "plain"}, now, 1)

	results, err := store.QueryRanked(context.Background(), defaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)

	// A comma inside a tag must not split it on the aggregation round-trip
	assert.ElementsMatch(t, []string{"last, first", "plain"}, results[0].Tags)
}

func TestSQLiteClient_QueryTagFilter(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	now := time.Now().UTC()
	insertMemory(t, store, "sprint planning", []string{"work"}, now, 1)
	insertMemory(t, store, "buy groceries", []string{"errand"}, now, 1)
	insertMemory(t, store, "untagged note", nil, now, 1)

	opts := defaultQueryOptions()
	opts.Tags = []string{"work", "errand"}
	results, err := store.QueryRanked(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	opts.Tags = []string{"missing"}
	results, err = store.QueryRanked(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteClient_QueryRankedOrdering(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	now := time.Now().UTC()

	// Same age, different access counts: frequency decides
	insertMemory(t, store, "rarely used", nil, now, 1)
	frequent := insertMemory(t, store, "frequently used", nil, now, 9)

	// Much older last access: recency pulls it down despite saturation
	stale := insertMemory(t, store, "stale but popular", nil, now.Add(-90*24*time.Hour), 50)

	results, err := store.QueryRanked(context.Background(), defaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, frequent, results[0].ID)
	assert.Equal(t, stale, results[2].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Greater(t, results[1].Score, results[2].Score)
}

func TestSQLiteClient_QueryLimit(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		insertMemory(t, store, "note", nil, now, 1)
	}

	opts := defaultQueryOptions()
	opts.Limit = 2
	results, err := store.QueryRanked(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSQLiteClient_TouchMany(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	first := insertMemory(t, store, "touched", nil, past, 1)
	second := insertMemory(t, store, "also touched", nil, past, 3)
	untouched := insertMemory(t, store, "left alone", nil, past, 1)

	require.NoError(t, store.TouchMany(ctx, []int64{first, second}))

	results, err := store.QueryRanked(ctx, defaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, results, 3)

	byID := make(map[int64]*storage.Memory)
	for _, m := range results {
		byID[m.ID] = m
	}

	assert.Equal(t, 2, byID[first].AccessCount)
	assert.Equal(t, 4, byID[second].AccessCount)
	assert.Equal(t, 1, byID[untouched].AccessCount)

	assert.True(t, byID[first].LastAccessed.After(past))
	assert.False(t, byID[untouched].LastAccessed.After(past.Add(time.Minute)))

	// An empty id list is a no-op, not an error
	assert.NoError(t, store.TouchMany(ctx, nil))
}

func TestSQLiteClient_DeleteByID(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	id := insertMemory(t, store, "doomed", []string{"temp"}, now, 1)

	affected, err := store.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// Deleting again affects nothing
	affected, err = store.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	// Tag rows went with the memory: a filter on the dead tag finds nothing
	opts := defaultQueryOptions()
	opts.Tags = []string{"temp"}
	results, err := store.QueryRanked(ctx, opts)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteClient_DeleteOlderThan(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	insertMemory(t, store, "ancient", nil, now.Add(-100*24*time.Hour), 1)
	insertMemory(t, store, "old", nil, now.Add(-50*24*time.Hour), 1)
	keep := insertMemory(t, store, "recent", nil, now.Add(-time.Hour), 1)

	affected, err := store.DeleteOlderThan(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	results, err := store.QueryRanked(ctx, defaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, keep, results[0].ID)
}

func TestSQLiteClient_AggregateSummary(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	insertMemory(t, store, "outside the window", []string{"work"}, now.Add(-60*24*time.Hour), 1)
	insertMemory(t, store, "first in window", []string{"work", "project"}, now.Add(-10*24*time.Hour), 1)
	insertMemory(t, store, "second in window", []string{"work"}, now.Add(-2*24*time.Hour), 1)

	since := now.Add(-30 * 24 * time.Hour)
	summary, err := store.AggregateSummary(ctx, since, nil)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 2, summary.TotalCount)
	assert.WithinDuration(t, now.Add(-10*24*time.Hour), summary.Earliest, time.Second)
	assert.WithinDuration(t, now.Add(-2*24*time.Hour), summary.Latest, time.Second)

	require.NotEmpty(t, summary.TopTags)
	assert.Equal(t, "work", summary.TopTags[0].Tag)
	assert.Equal(t, 2, summary.TopTags[0].Count)
}

func TestSQLiteClient_AggregateSummaryTagFilter(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	insertMemory(t, store, "project note", []string{"project"}, now.Add(-24*time.Hour), 1)
	insertMemory(t, store, "personal note", []string{"personal"}, now.Add(-24*time.Hour), 1)

	summary, err := store.AggregateSummary(ctx, now.Add(-7*24*time.Hour), []string{"project"})
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 1, summary.TotalCount)
	require.Len(t, summary.TopTags, 1)
	assert.Equal(t, "project", summary.TopTags[0].Tag)
}

func TestSQLiteClient_AggregateSummaryEmpty(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	summary, err := store.AggregateSummary(context.Background(), time.Now().UTC().Add(-30*24*time.Hour), nil)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.TotalCount)
	assert.Empty(t, summary.TopTags)
}
