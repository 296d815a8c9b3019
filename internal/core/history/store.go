package history

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a history entry is not found.
var ErrNotFound = errors.New("history entry not found")

// Store defines persistence operations for transition history.
type Store interface {
	// List returns all history entries, newest first.
	List(ctx context.Context) ([]Entry, error)
	// ListLane returns entries for one lane, newest first.
	ListLane(ctx context.Context, laneID string) ([]Entry, error)
	// Save adds a new history entry, pruning oldest entries if count exceeds the configured maximum.
	Save(ctx context.Context, entry Entry) error
	// Clear removes all history entries.
	Clear(ctx context.Context) error
	// LastError returns the most recent error transition. Returns ErrNotFound if none.
	LastError(ctx context.Context) (Entry, error)
}
