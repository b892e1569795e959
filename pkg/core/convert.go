package core

import "github.com/engramlabs/engram-go/pkg/storage"

// toStorageMemory converts a core.Memory to a storage.Memory.
func toStorageMemory(m *Memory) *storage.Memory {
	if m == nil {
		return nil
	}
	return &storage.Memory{
		ID:           m.ID,
		Content:      m.Content,
		Tags:         m.Tags,
		Metadata:     m.Metadata,
		CreatedAt:    m.CreatedAt,
		LastAccessed: m.LastAccessed,
		AccessCount:  m.AccessCount,
	}
}

// fromStorageMemory converts a storage.Memory to a core.Memory.
func fromStorageMemory(m *storage.Memory) *Memory {
	if m == nil {
		return nil
	}
	return &Memory{
		ID:           m.ID,
		Content:      m.Content,
		Tags:         m.Tags,
		Metadata:     m.Metadata,
		CreatedAt:    m.CreatedAt,
		LastAccessed: m.LastAccessed,
		AccessCount:  m.AccessCount,
		Score:        m.Score,
	}
}

// fromStorageMemories converts a slice of storage memories.
func fromStorageMemories(memories []*storage.Memory) []*Memory {
	out := make([]*Memory, 0, len(memories))
	for _, m := range memories {
		out = append(out, fromStorageMemory(m))
	}
	return out
}

// fromStorageSummary converts a storage.Summary to a core.Summary.
func fromStorageSummary(s *storage.Summary) *Summary {
	out := &Summary{
		TotalCount: s.TotalCount,
		Earliest:   s.Earliest,
		Latest:     s.Latest,
	}
	for _, tc := range s.TopTags {
		out.TopTags = append(out.TopTags, TagCount{Tag: tc.Tag, Count: tc.Count})
	}
	return out
}
