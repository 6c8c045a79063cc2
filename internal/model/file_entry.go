package model

import "time"

// FileEntry is one committed file in the persisted metadata index,
// keyed by content hash. A hash never maps to two entries.
type FileEntry struct {
	CommittedAt  time.Time `json:"committedAt"`
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	CurrentPath  string    `json:"currentPath"`
	ContentHash  string    `json:"contentHash"`
	Category     string    `json:"category"`
	AISummary    string    `json:"aiSummary,omitempty"`
	AITags       []string  `json:"aiTags,omitempty"`
	AIConfidence float64   `json:"aiConfidence,omitempty"`
	UserOverride bool      `json:"userOverride"`
}
