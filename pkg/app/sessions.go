package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/storage"
)

// FindSession resolves id against the stored sessions. A unique prefix of
// a session ID is accepted, so the short IDs shown in listings work.
func (a *App) FindSession(ctx context.Context, id string) (*chat.Session, error) {
	return findSession(ctx, a.Store, id)
}

func findSession(ctx context.Context, store chat.Store, id string) (*chat.Session, error) {
	if s, err := store.GetSession(ctx, id); err == nil {
		return s, nil
	}

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	var match *chat.Session
	for _, s := range sessions {
		if !strings.HasPrefix(s.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("session id %q is ambiguous", id)
		}
		match = s
	}
	if match == nil {
		return nil, storage.NotFoundError{ID: id}
	}

	return store.GetSession(ctx, match.ID)
}
