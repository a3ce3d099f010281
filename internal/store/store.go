// ABOUTME: ConversationStore interface and message types for scribe-gateway persistence
// ABOUTME: Sessions own an append-only, ordered list of user and assistant messages

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrStore marks failures of the underlying storage engine. Callers test for it
// with errors.Is to tell storage outages apart from validation problems.
var ErrStore = errors.New("conversation store failure")

// Role identifies who authored a message in a session.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one entry in a session's conversation history.
type Message struct {
	ID        string
	SessionID string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// ConversationStore persists per-session conversation history.
// Implementations must be safe for concurrent use.
type ConversationStore interface {
	// GetHistory returns every message of the session in append order.
	// An unknown session yields an empty slice, not an error.
	GetHistory(ctx context.Context, sessionID string) ([]*Message, error)

	// AppendMessage adds a message to the end of the session's history,
	// creating the session if needed. ID and CreatedAt are filled in when empty.
	AppendMessage(ctx context.Context, sessionID string, msg *Message) error

	// ClearHistory removes all messages of the session.
	ClearHistory(ctx context.Context, sessionID string) error

	// Close releases resources held by the store.
	Close() error
}
