// Package tool exposes the memory store as a named tool for an agent host.
//
// The facade validates the requested action, maps it to a memory store
// operation, and adapts results and errors to the ToolResult convention
// consumed by the host: every call yields either output text or error text,
// never both.
package tool

import "fmt"

// Action identifies a memory operation. Actions arrive from the agent host
// as strings and are validated into this type at the boundary.
type Action string

const (
	// ActionStore stores a new memory.
	ActionStore Action = "store"

	// ActionRecall retrieves relevant memories.
	ActionRecall Action = "recall"

	// ActionForget removes memories by id or age.
	ActionForget Action = "forget"

	// ActionSummarize reports aggregate statistics.
	ActionSummarize Action = "summarize"
)

// validActions lists the accepted actions, in the order they are
// enumerated in error messages and the tool schema.
var validActions = []Action{ActionStore, ActionRecall, ActionForget, ActionSummarize}

// ParseAction validates an action string from the agent host.
//
// Returns the typed Action, or an error enumerating the valid actions.
func ParseAction(s string) (Action, error) {
	for _, a := range validActions {
		if Action(s) == a {
			return a, nil
		}
	}
	return "", fmt.Errorf("invalid memory action: %q. Valid actions are: store, recall, forget, summarize", s)
}

// Request is a fully-typed memory tool invocation.
//
// Only the fields relevant to the requested action are consulted:
//   - store: Content, Tags, Metadata
//   - recall: Query, Tags, Limit, UseLongTerm
//   - forget: MemoryID, OlderThanDays
//   - summarize: Tags, Days
type Request struct {
	// Action is the memory operation to perform.
	Action Action `json:"action"`

	// Content is the text to store (store).
	Content string `json:"content,omitempty"`

	// Query is the substring to search for (recall).
	Query string `json:"query,omitempty"`

	// Tags categorize (store) or filter (recall, summarize) memories.
	Tags []string `json:"tags,omitempty"`

	// Metadata is attached to the stored memory (store).
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// MemoryID selects a memory to forget (forget).
	MemoryID int64 `json:"memory_id,omitempty"`

	// OlderThanDays selects memories older than this many days (forget).
	// Nil means the age selector was not supplied; zero is a valid
	// threshold that forgets everything.
	OlderThanDays *int `json:"older_than_days,omitempty"`

	// Days is the look-back window for summaries (summarize). Zero means
	// the default of 30.
	Days int `json:"days,omitempty"`

	// Limit is the maximum number of memories to return (recall). Zero
	// means the default of 5.
	Limit int `json:"limit,omitempty"`

	// UseLongTerm controls whether recall may query the durable tier.
	// Nil means the default of true.
	UseLongTerm *bool `json:"use_long_term,omitempty"`
}

// Result is the outcome of a tool invocation: output text on success or
// error text on failure, never both.
type Result struct {
	// Output is the human-readable success payload.
	Output string `json:"output,omitempty"`

	// Error is the failure description.
	Error string `json:"error,omitempty"`
}

// Ok creates a success Result.
func Ok(output string) Result {
	return Result{Output: output}
}

// Errorf creates an error Result from a format string.
func Errorf(format string, args ...interface{}) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// IsError reports whether the result carries an error payload.
func (r Result) IsError() bool {
	return r.Error != ""
}
