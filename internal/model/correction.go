package model

import "time"

// CorrectionRecord captures one user override of an AI suggestion.
// The log is append-only and capped; replayed corrections outrank any
// resolver heuristic.
type CorrectionRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	AISuggested string    `json:"aiSuggested"`
	UserChosen  string    `json:"userChosen"`
	FileName    string    `json:"fileName"`
}
