// Package inmemory provides a map-backed storage driver for tests and
// throwaway sessions.
package inmemory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu guards sessions
	mu sync.RWMutex

	// sessions is keyed by session ID
	sessions map[string]*chat.Session
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		sessions: make(map[string]*chat.Session),
	}
}

// SaveSession inserts or updates a session header.
func (d *Driver) SaveSession(_ context.Context, s *chat.Session) error {
	if s == nil {
		return errors.New("cannot store nil session")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.sessions[s.ID]; ok {
		existing.Title = s.Title
		existing.Model = s.Model
		existing.UpdatedAt = s.UpdatedAt
		return nil
	}

	header := *s
	header.Messages = nil
	d.sessions[s.ID] = &header
	return nil
}

// GetSession returns a copy of the session with its messages.
func (d *Driver) GetSession(_ context.Context, id string) (*chat.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.sessions[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	out := *s
	out.Messages = slices.Clone(s.Messages)
	return &out, nil
}

// ListSessions returns session headers, most recently updated first.
func (d *Driver) ListSessions(_ context.Context) ([]*chat.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*chat.Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		header := *s
		header.Messages = nil
		out = append(out, &header)
	}

	slices.SortFunc(out, func(a, b *chat.Session) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// DeleteSession removes a session.
func (d *Driver) DeleteSession(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.sessions[id]; !ok {
		return storage.NotFoundError{ID: id}
	}
	delete(d.sessions, id)
	return nil
}

// AppendMessages adds messages not yet stored to the end of the session.
func (d *Driver) AppendMessages(_ context.Context, sessionID string, msgs ...chat.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[sessionID]
	if !ok {
		return storage.NotFoundError{ID: sessionID}
	}

	for _, m := range msgs {
		if slices.ContainsFunc(s.Messages, func(existing chat.Message) bool { return existing.ID == m.ID }) {
			continue
		}
		s.Messages = append(s.Messages, m)
	}
	return nil
}

// Count returns the number of stored sessions.
func (d *Driver) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

// Close is a no-op for the in-memory store.
func (d *Driver) Close() error {
	return nil
}
