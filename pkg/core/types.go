// Package core provides the two-tier memory store orchestrator.
package core

import "time"

// Memory represents a single memory stored in the system.
//
// A memory contains:
//   - Content: The text content of the memory
//   - Tags: Short strings used for categorical filtering
//   - Metadata: Additional structured information
//   - Access bookkeeping: CreatedAt, LastAccessed, AccessCount
//
// Example:
//
//	memory := &core.Memory{
//	    Content: "User prefers tabs over spaces",
//	    Tags:    []string{"preference", "editor"},
//	}
type Memory struct {
	// ID is the unique identifier assigned by the durable store on the
	// first durable write. Zero for records that exist only in the
	// short-term cache.
	ID int64 `json:"id,omitempty"`

	// Content is the text content of the memory. Never empty.
	Content string `json:"content"`

	// Tags are short strings used for categorical filtering.
	// Duplicates are tolerated.
	Tags []string `json:"tags,omitempty"`

	// Metadata contains additional structured information with no schema
	// beyond being JSON-serializable.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CreatedAt is when the memory was created. Immutable.
	CreatedAt time.Time `json:"created_at"`

	// LastAccessed is when the memory was last returned by a recall.
	// Always >= CreatedAt.
	LastAccessed time.Time `json:"last_accessed"`

	// AccessCount is the number of recalls that returned this memory,
	// starting at 1 when stored.
	AccessCount int `json:"access_count"`

	// Score is the relevance score from recall operations.
	// Higher scores indicate better matches.
	Score float64 `json:"score,omitempty"`
}

// clone returns a shallow copy of the memory. Tags share the backing array;
// callers treat recalled memories as read-only.
func (m *Memory) clone() *Memory {
	out := *m
	return &out
}

// TagCount is a tag together with the number of memories carrying it.
type TagCount struct {
	// Tag is the tag text.
	Tag string `json:"tag"`

	// Count is the number of memories carrying the tag within the
	// summary window.
	Count int `json:"count"`
}

// Summary holds aggregate statistics over the durable tier.
type Summary struct {
	// TotalCount is the number of memories within the summary window.
	TotalCount int `json:"total_count"`

	// Earliest is the creation time of the oldest matching memory.
	Earliest time.Time `json:"earliest"`

	// Latest is the creation time of the newest matching memory.
	Latest time.Time `json:"latest"`

	// TopTags are the most frequent tags, most frequent first.
	TopTags []TagCount `json:"top_tags,omitempty"`

	// Days is the look-back window the summary covers, in days.
	Days int `json:"days"`
}
