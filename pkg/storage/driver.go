// Package storage persists chat sessions and their messages.
package storage

import (
	"context"

	"github.com/papercomputeco/chatstream/pkg/chat"
)

// Driver defines the interface for persisting and retrieving sessions in a
// storage backend.
type Driver interface {
	// SaveSession inserts the session or updates its title, model and
	// timestamps. Messages on s are ignored; use AppendMessages.
	SaveSession(ctx context.Context, s *chat.Session) error

	// GetSession returns the session with all of its messages in order.
	GetSession(ctx context.Context, id string) (*chat.Session, error)

	// ListSessions returns every session without messages, most recently
	// updated first.
	ListSessions(ctx context.Context) ([]*chat.Session, error)

	// DeleteSession removes the session and its messages.
	DeleteSession(ctx context.Context, id string) error

	// AppendMessages adds messages to the end of an existing session.
	// Messages whose ID is already stored are skipped.
	AppendMessages(ctx context.Context, sessionID string, msgs ...chat.Message) error

	// Close closes the store and releases any resources.
	Close() error
}
