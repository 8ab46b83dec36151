// Package journal persists dispatched actions so sessions can be
// replayed through a reducer later.
package journal

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound indicates a replayed session has no journaled
// actions.
var ErrSessionNotFound = errors.New("session not found in journal")

// Entry is one journaled action.
type Entry struct {
	ID        int64
	SessionID string
	Type      string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// Journal defines the interface for persisting and retrieving
// dispatched actions.
type Journal interface {
	// Append adds an action to the journal.
	Append(ctx context.Context, sessionID, actionType string, payload []byte, metadata map[string]string) error

	// GetBySession retrieves all actions for a session, in dispatch order.
	GetBySession(ctx context.Context, sessionID string) ([]Entry, error)

	// GetRange retrieves actions within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Entry, error)

	// Sessions lists the distinct session IDs present in the journal.
	Sessions(ctx context.Context) ([]string, error)

	// Close closes the journal and releases resources.
	Close() error
}
