package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/papercomputeco/chatstream/pkg/decoder"
	"github.com/papercomputeco/chatstream/pkg/logger"
)

// Streamer streams one completion. *Client implements it.
type Streamer interface {
	Stream(ctx context.Context, req Request, sink Sink) error
}

// Store persists sessions. storage.Driver implementations satisfy it.
type Store interface {
	SaveSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context) ([]*Session, error)
	DeleteSession(ctx context.Context, id string) error
	AppendMessages(ctx context.Context, sessionID string, msgs ...Message) error
}

// Recorder accepts finalized messages for asynchronous persistence. It
// returns false when the message pair was dropped.
type Recorder interface {
	Record(session Session, msgs []Message) bool
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithStore sets the session store used for listing, opening and deleting
// sessions. Without a recorder, finalized messages are written to it
// synchronously.
func WithStore(s Store) ConversationOption {
	return func(c *Conversation) {
		c.store = s
	}
}

// WithRecorder hands finalized messages to r instead of writing them inline.
func WithRecorder(r Recorder) ConversationOption {
	return func(c *Conversation) {
		c.recorder = r
	}
}

// WithConversationLogger sets the conversation logger.
func WithConversationLogger(l *slog.Logger) ConversationOption {
	return func(c *Conversation) {
		if l != nil {
			c.logger = l
		}
	}
}

// Conversation owns the active session and drives streamed replies into it.
// It is safe for concurrent use, but only one Send should be in flight.
type Conversation struct {
	streamer Streamer
	store    Store
	recorder Recorder
	logger   *slog.Logger

	mu     sync.Mutex
	model  string
	active *Session
}

// NewConversation returns a Conversation that starts new sessions on model.
func NewConversation(streamer Streamer, model string, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		streamer: streamer,
		model:    model,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewSession replaces the active session with an empty one. An empty model
// keeps the current selection.
func (c *Conversation) NewSession(model string) Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if model != "" {
		c.model = model
	}
	c.active = NewSession(c.model)
	return c.snapshot()
}

// Active returns a copy of the active session, if any.
func (c *Conversation) Active() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return Session{}, false
	}
	return c.snapshot(), true
}

// Model returns the model used for the next reply.
func (c *Conversation) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetModel selects the model for the next reply and for the active session.
func (c *Conversation) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.model = model
	if c.active != nil {
		c.active.Model = model
	}
}

// Sessions lists stored sessions, most recently updated first. Without a
// store only the active session is listed.
func (c *Conversation) Sessions(ctx context.Context) ([]*Session, error) {
	if c.store == nil {
		if s, ok := c.Active(); ok && len(s.Messages) > 0 {
			return []*Session{&s}, nil
		}
		return nil, nil
	}
	return c.store.ListSessions(ctx)
}

// Open loads session id and makes it active.
func (c *Conversation) Open(ctx context.Context, id string) (Session, error) {
	if c.store == nil {
		return Session{}, errors.New("no session store configured")
	}

	s, err := c.store.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = s
	if s.Model != "" {
		c.model = s.Model
	}
	return c.snapshot(), nil
}

// Delete removes session id. Deleting the active session clears it.
func (c *Conversation) Delete(ctx context.Context, id string) error {
	if c.store != nil {
		if err := c.store.DeleteSession(ctx, id); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && c.active.ID == id {
		c.active = nil
	}
	return nil
}

// Send appends text as a user message and streams the assistant reply.
// onUpdate, when set, is called with the in-flight reply after every applied
// event. The reply is returned even when streaming fails: it keeps the
// partial content and carries the error notice, and both messages are
// recorded either way.
func (c *Conversation) Send(ctx context.Context, text string, onUpdate func(*Message)) (*Message, error) {
	c.mu.Lock()
	if c.active == nil {
		c.active = NewSession(c.model)
	}
	model := c.model
	c.mu.Unlock()

	user := NewUserMessage(text, model)
	reply := NewAssistantMessage(model)

	notify := func() {
		if onUpdate != nil {
			onUpdate(reply)
		}
	}
	notify()

	streamErr := c.streamer.Stream(ctx, Request{Message: text, Model: model, Stream: true}, func(ev decoder.Event) error {
		reply.Apply(ev)
		notify()
		return nil
	})
	if streamErr != nil {
		c.logger.Warn("stream failed",
			"model", model,
			"received_bytes", len(reply.Content),
			"error", streamErr,
		)
		reply.Fail(streamErr)
		notify()
	} else if reply.Streaming {
		reply.Fail(nil)
		notify()
	}

	c.mu.Lock()
	c.active.Append(*user, *reply)
	header := c.snapshot()
	header.Messages = nil
	c.mu.Unlock()

	c.record(ctx, header, []Message{*user, *reply})

	return reply, streamErr
}

func (c *Conversation) record(ctx context.Context, header Session, msgs []Message) {
	switch {
	case c.recorder != nil:
		if !c.recorder.Record(header, msgs) {
			c.logger.Warn("recorder queue full, dropping messages", "session_id", header.ID)
		}

	case c.store != nil:
		if err := c.store.SaveSession(ctx, &header); err != nil {
			c.logger.Error("saving session", "session_id", header.ID, "error", err)
			return
		}
		if err := c.store.AppendMessages(ctx, header.ID, msgs...); err != nil {
			c.logger.Error("appending messages", "session_id", header.ID, "error", err)
		}
	}
}

// snapshot copies the active session. Callers hold c.mu.
func (c *Conversation) snapshot() Session {
	s := *c.active
	s.Messages = append([]Message(nil), c.active.Messages...)
	return s
}

