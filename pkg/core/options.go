// Package core provides the two-tier memory store orchestrator.
package core

// DefaultRecallLimit is the default maximum number of memories returned
// by a recall.
const DefaultRecallLimit = 5

// DefaultSummaryDays is the default look-back window for summaries, in days.
const DefaultSummaryDays = 30

// RememberOption is a function type for configuring Remember operations.
//
// Options are applied using the functional options pattern, allowing
// flexible configuration without requiring all parameters.
type RememberOption func(*RememberOptions)

// RememberOptions contains configuration options for Remember operations.
type RememberOptions struct {
	// Tags are attached to the stored memory for later filtering.
	Tags []string

	// Metadata contains additional metadata about the memory.
	Metadata map[string]interface{}
}

// WithTags sets the tags for a Remember operation.
//
// Example:
//
//	memory, _ := store.Remember(ctx, "content", core.WithTags("project", "todo"))
func WithTags(tags ...string) RememberOption {
	return func(opts *RememberOptions) {
		opts.Tags = tags
	}
}

// WithMetadata sets the metadata for a Remember operation.
//
// Example:
//
//	memory, _ := store.Remember(ctx, "content",
//	    core.WithMetadata(map[string]interface{}{"source": "conversation"}))
func WithMetadata(metadata map[string]interface{}) RememberOption {
	return func(opts *RememberOptions) {
		opts.Metadata = metadata
	}
}

func applyRememberOptions(opts []RememberOption) *RememberOptions {
	options := &RememberOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// RecallOption is a function type for configuring Recall operations.
type RecallOption func(*RecallOptions)

// RecallOptions contains configuration options for Recall operations.
type RecallOptions struct {
	// Tags filters results to memories carrying at least one of these tags.
	Tags []string

	// Limit sets the maximum number of memories to return.
	Limit int

	// UseLongTerm controls whether the durable tier is queried when the
	// short-term cache cannot satisfy the limit.
	UseLongTerm bool
}

// WithTagFilter restricts a Recall to memories carrying at least one of the
// given tags.
//
// Example:
//
//	results, _ := store.Recall(ctx, "", core.WithTagFilter("project"))
func WithTagFilter(tags ...string) RecallOption {
	return func(opts *RecallOptions) {
		opts.Tags = tags
	}
}

// WithLimit sets the maximum number of memories returned by a Recall.
// Non-positive values fall back to the default of 5.
//
// Example:
//
//	results, _ := store.Recall(ctx, "deploy", core.WithLimit(10))
func WithLimit(limit int) RecallOption {
	return func(opts *RecallOptions) {
		opts.Limit = limit
	}
}

// WithoutLongTerm restricts a Recall to the short-term cache, skipping the
// durable tier even when the cache cannot satisfy the limit.
//
// Example:
//
//	results, _ := store.Recall(ctx, "deploy", core.WithoutLongTerm())
func WithoutLongTerm() RecallOption {
	return func(opts *RecallOptions) {
		opts.UseLongTerm = false
	}
}

func applyRecallOptions(opts []RecallOption) *RecallOptions {
	options := &RecallOptions{
		Limit:       DefaultRecallLimit,
		UseLongTerm: true,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.Limit <= 0 {
		options.Limit = DefaultRecallLimit
	}
	return options
}

// ForgetOption is a function type for configuring Forget operations.
type ForgetOption func(*ForgetOptions)

// ForgetOptions contains configuration options for Forget operations.
//
// Exactly one selector is honored per call; the id selector takes
// precedence when both are supplied.
type ForgetOptions struct {
	// MemoryID selects a single memory by its durable id.
	MemoryID int64

	// OlderThanDays selects all memories created more than this many days
	// ago. Zero is a valid threshold and selects everything.
	OlderThanDays int

	// HasOlderThan records whether the age selector was supplied, so a
	// zero-day threshold is distinguishable from an absent one.
	HasOlderThan bool
}

// WithMemoryID selects the memory to forget by its durable id.
//
// Example:
//
//	removed, _ := store.Forget(ctx, core.WithMemoryID(id))
func WithMemoryID(id int64) ForgetOption {
	return func(opts *ForgetOptions) {
		opts.MemoryID = id
	}
}

// WithOlderThan selects memories created more than the given number of days
// ago. A threshold of zero forgets every memory.
//
// Example:
//
//	removed, _ := store.Forget(ctx, core.WithOlderThan(90))
func WithOlderThan(days int) ForgetOption {
	return func(opts *ForgetOptions) {
		opts.OlderThanDays = days
		opts.HasOlderThan = true
	}
}

func applyForgetOptions(opts []ForgetOption) *ForgetOptions {
	options := &ForgetOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// SummarizeOption is a function type for configuring Summarize operations.
type SummarizeOption func(*SummarizeOptions)

// SummarizeOptions contains configuration options for Summarize operations.
type SummarizeOptions struct {
	// Tags restricts the summary to memories carrying at least one of
	// these tags.
	Tags []string

	// Days is the look-back window in days.
	Days int
}

// WithTagFilterForSummary restricts a Summarize to memories carrying at
// least one of the given tags.
//
// Example:
//
//	summary, _ := store.Summarize(ctx, core.WithTagFilterForSummary("project"))
func WithTagFilterForSummary(tags ...string) SummarizeOption {
	return func(opts *SummarizeOptions) {
		opts.Tags = tags
	}
}

// WithDays sets the look-back window for a Summarize, in days.
// Non-positive values fall back to the default of 30.
//
// Example:
//
//	summary, _ := store.Summarize(ctx, core.WithDays(7))
func WithDays(days int) SummarizeOption {
	return func(opts *SummarizeOptions) {
		opts.Days = days
	}
}

func applySummarizeOptions(opts []SummarizeOption) *SummarizeOptions {
	options := &SummarizeOptions{
		Days: DefaultSummaryDays,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.Days <= 0 {
		options.Days = DefaultSummaryDays
	}
	return options
}
