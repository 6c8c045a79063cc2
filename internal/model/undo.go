package model

import "time"

// MoveOp is one committed file move. Source and Target record the
// already-moved locations: replaying an undo moves Target back to Source.
type MoveOp struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// UndoLog holds the inverse operations of the most recent commit.
// Only one log exists at a time; each commit overwrites it.
type UndoLog struct {
	Timestamp  time.Time `json:"timestamp"`
	Operations []MoveOp  `json:"operations"`
}

// Empty reports whether there is nothing to undo.
func (l *UndoLog) Empty() bool {
	return l == nil || len(l.Operations) == 0
}
