// Package journal records the transitions taken by flowgraph runs.
//
// Every node activation appends one Entry: which node ran, which visit it
// was, the action it returned and where the graph went next. The journal is
// an observability aid; writing to it never affects control flow.
package journal

import (
	"context"
	"errors"
	"time"
)

// Store persists journal entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores one entry. Entries of a run are kept in Sequence order.
	Append(ctx context.Context, e Entry) error

	// List returns all entries for a run, ordered by sequence.
	// Returns empty slice (not error) if run has no entries.
	List(ctx context.Context, runID string) ([]Entry, error)

	// DeleteRun removes all entries for a run.
	// Returns nil if run has no entries.
	DeleteRun(ctx context.Context, runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Entry is one node activation and the transition that followed it.
type Entry struct {
	RunID    string
	Sequence int
	NodeID   string
	Visit    int
	// Action is empty when the node failed.
	Action string
	// Next is the successor node ID, END, or empty when the action was not
	// routed and the run ended.
	Next     string
	Duration time.Duration
	Error    string
	At       time.Time
}

// Failed reports whether the activation ended with an error.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Sentinel errors for journal operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")

	// ErrDuplicateSequence indicates an entry with the same (run, sequence) exists.
	ErrDuplicateSequence = errors.New("duplicate journal sequence")
)
