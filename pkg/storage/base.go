// Package storage provides interfaces and types for durable memory storage backends.
//
// It defines the Store interface that all storage implementations must satisfy,
// along with the memory row type and query options.
package storage

import (
	"context"
	"time"
)

// Memory represents a memory row in the durable store.
//
// This type is defined in the storage package to avoid circular dependencies
// with the core package. It mirrors the core.Memory structure.
type Memory struct {
	// ID is the unique identifier of the memory, assigned on insert.
	ID int64

	// Content is the text content of the memory.
	Content string

	// Tags are the tags associated with the memory.
	Tags []string

	// Metadata contains additional structured information.
	Metadata map[string]interface{}

	// CreatedAt is when the memory was created.
	CreatedAt time.Time

	// LastAccessed is when the memory was last returned by a recall.
	LastAccessed time.Time

	// AccessCount is the number of times the memory has been recalled.
	// Starts at 1 when the memory is stored.
	AccessCount int

	// Score is the relevance score computed by ranked queries.
	Score float64
}

// QueryOptions contains options for ranked query operations.
type QueryOptions struct {
	// Query filters results to memories whose content contains this
	// substring (case-insensitive). Empty means no content filter.
	Query string

	// Tags filters results to memories carrying at least one of these tags.
	// Empty means no tag filter.
	Tags []string

	// Limit sets the maximum number of results to return.
	Limit int

	// RecencyWeight is the weight of the recency component of the score.
	RecencyWeight float64

	// FrequencyWeight is the weight of the frequency component of the score.
	FrequencyWeight float64

	// HalfLifeDays is the characteristic decay time, in days, applied to
	// the interval since the memory was last accessed.
	HalfLifeDays float64
}

// TagCount is a tag together with the number of memories carrying it.
type TagCount struct {
	Tag   string
	Count int
}

// Summary holds aggregate statistics over a slice of the durable store.
type Summary struct {
	// TotalCount is the number of memories matching the summary window.
	TotalCount int

	// Earliest is the creation time of the oldest matching memory.
	Earliest time.Time

	// Latest is the creation time of the newest matching memory.
	Latest time.Time

	// TopTags are the most frequent tags among matching memories,
	// most frequent first.
	TopTags []TagCount
}

// Store defines the interface for durable memory storage backends.
//
// All storage implementations (SQLite, PostgreSQL, MySQL) must implement
// this interface. Every method may fail with a backend error; callers treat
// any failure as a store-unavailable condition.
type Store interface {
	// EnsureSchema creates the memories and memory_tags tables and their
	// indices if they do not exist. Safe to call repeatedly.
	EnsureSchema(ctx context.Context) error

	// Insert inserts a memory and returns its assigned id.
	//
	// The caller provides CreatedAt, LastAccessed, and AccessCount so both
	// storage tiers agree on the record's age.
	Insert(ctx context.Context, memory *Memory) (int64, error)

	// InsertTags associates tags with a previously inserted memory.
	// A nil or empty tag list is a no-op.
	InsertTags(ctx context.Context, memoryID int64, tags []string) error

	// QueryRanked returns at most opts.Limit memories matching the filters,
	// ordered by descending relevance score. The score is computed by the
	// backend from the recency of last access and the access count, using
	// the weights and half-life in opts.
	QueryRanked(ctx context.Context, opts *QueryOptions) ([]*Memory, error)

	// TouchMany increments access_count by 1 and resets last_accessed to
	// the current time for every given id, in a single statement.
	TouchMany(ctx context.Context, ids []int64) error

	// DeleteByID deletes a memory by id and returns the number of rows
	// removed (0 or 1). Associated tags are removed by cascade.
	DeleteByID(ctx context.Context, id int64) (int64, error)

	// DeleteOlderThan deletes all memories created before the cutoff and
	// returns the number of rows removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// AggregateSummary computes aggregate statistics over memories created
	// after since, optionally restricted to memories carrying at least one
	// of the given tags.
	AggregateSummary(ctx context.Context, since time.Time, tags []string) (*Summary, error)

	// Close closes the store and releases resources.
	Close() error
}
