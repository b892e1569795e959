package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/engramlabs/engram-go/pkg/core"
)

// Name is the tool name declared to the agent host.
const Name = "memory"

// Memory adapts a core.Store to the agent host's tool convention.
//
// The store's lifetime is owned by the caller (the composition root);
// the facade neither constructs nor closes it.
//
// Example usage:
//
//	store, _ := core.New(config)
//	memTool := tool.NewMemory(store)
//
//	result := memTool.Execute(ctx, tool.Request{
//	    Action:  tool.ActionStore,
//	    Content: "User prefers concise answers",
//	    Tags:    []string{"preference"},
//	})
type Memory struct {
	store *core.Store
}

// NewMemory creates a memory tool over an existing store.
func NewMemory(store *core.Store) *Memory {
	return &Memory{store: store}
}

// Execute validates the request, dispatches it to the store, and adapts
// the outcome to a Result. Backing-store failures come back as error
// results, not panics or raw faults.
func (t *Memory) Execute(ctx context.Context, req Request) Result {
	action, err := ParseAction(string(req.Action))
	if err != nil {
		return Errorf("%v", err)
	}

	switch action {
	case ActionStore:
		return t.executeStore(ctx, req)
	case ActionRecall:
		return t.executeRecall(ctx, req)
	case ActionForget:
		return t.executeForget(ctx, req)
	default:
		return t.executeSummarize(ctx, req)
	}
}

func (t *Memory) executeStore(ctx context.Context, req Request) Result {
	opts := []core.RememberOption{core.WithTags(req.Tags...)}
	if req.Metadata != nil {
		opts = append(opts, core.WithMetadata(req.Metadata))
	}

	if _, err := t.store.Remember(ctx, req.Content, opts...); err != nil {
		return Errorf("Failed to store memory: %v", err)
	}
	return Ok(fmt.Sprintf("Memory stored successfully with %d tags.", len(req.Tags)))
}

func (t *Memory) executeRecall(ctx context.Context, req Request) Result {
	var opts []core.RecallOption
	if len(req.Tags) > 0 {
		opts = append(opts, core.WithTagFilter(req.Tags...))
	}
	if req.Limit > 0 {
		opts = append(opts, core.WithLimit(req.Limit))
	}
	if req.UseLongTerm != nil && !*req.UseLongTerm {
		opts = append(opts, core.WithoutLongTerm())
	}

	memories, err := t.store.Recall(ctx, req.Query, opts...)
	if err != nil {
		return Errorf("Failed to recall memories: %v", err)
	}
	if len(memories) == 0 {
		return Ok("No memories found matching the criteria.")
	}
	return Ok(formatMemories(memories))
}

func (t *Memory) executeForget(ctx context.Context, req Request) Result {
	var opts []core.ForgetOption
	if req.MemoryID != 0 {
		opts = append(opts, core.WithMemoryID(req.MemoryID))
	} else if req.OlderThanDays != nil {
		opts = append(opts, core.WithOlderThan(*req.OlderThanDays))
	}

	count, err := t.store.Forget(ctx, opts...)
	if err != nil {
		return Errorf("Failed to forget memories: %v", err)
	}
	return Ok(fmt.Sprintf("Forgot %d memories.", count))
}

func (t *Memory) executeSummarize(ctx context.Context, req Request) Result {
	var opts []core.SummarizeOption
	if len(req.Tags) > 0 {
		opts = append(opts, core.WithTagFilterForSummary(req.Tags...))
	}
	if req.Days > 0 {
		opts = append(opts, core.WithDays(req.Days))
	}

	summary, err := t.store.Summarize(ctx, opts...)
	if err != nil {
		return Errorf("Failed to summarize memories: %v", err)
	}
	if summary == nil {
		days := req.Days
		if days <= 0 {
			days = core.DefaultSummaryDays
		}
		return Ok(fmt.Sprintf("No memories found in the past %d days.", days))
	}
	return Ok(formatSummary(summary))
}

// formatMemories renders recalled memories as a numbered list with tags
// and relevance.
func formatMemories(memories []*core.Memory) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d memories:\n", len(memories))
	for i, m := range memories {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, m.Content)
		if len(m.Tags) > 0 {
			fmt.Fprintf(&sb, " [Tags: %s]", strings.Join(m.Tags, ", "))
		}
		if m.Score > 0 {
			fmt.Fprintf(&sb, " (Relevance: %.2f)", m.Score)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatSummary renders a memory summary: totals, time span, top tags.
func formatSummary(summary *core.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Memory Summary (past %d days):\n\n", summary.Days)
	fmt.Fprintf(&sb, "Total memories: %d\n", summary.TotalCount)
	fmt.Fprintf(&sb, "Time span: %s to %s\n",
		summary.Earliest.Format("2006-01-02"),
		summary.Latest.Format("2006-01-02"))

	if len(summary.TopTags) > 0 {
		sb.WriteString("\nTop tags:\n")
		for _, tc := range summary.TopTags {
			fmt.Fprintf(&sb, "- %s (%d memories)\n", tc.Tag, tc.Count)
		}
	}
	return sb.String()
}
