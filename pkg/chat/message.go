// Package chat holds the caller-owned side of a streamed conversation: the
// HTTP client that turns a completion response into decoder events, the
// message and session state those events update, and the model catalog.
package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/chatstream/pkg/decoder"
)

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation. Assistant messages are created in
// the streaming state and grow as Content events are applied.
type Message struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	Model     string        `json:"model,omitempty"`
	Streaming bool          `json:"streaming"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	// Warnings counts the malformed lines skipped while streaming.
	Warnings int `json:"warnings,omitempty"`

	// Error is the notice shown when the stream failed. Content keeps
	// whatever arrived before the failure.
	Error string `json:"error,omitempty"`
}

// NewUserMessage returns a complete user message.
func NewUserMessage(text, model string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   text,
		Model:     model,
		StartedAt: time.Now(),
	}
}

// NewAssistantMessage returns an empty assistant placeholder in the
// streaming state.
func NewAssistantMessage(model string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Model:     model,
		Streaming: true,
		StartedAt: time.Now(),
	}
}

// Apply folds one decoder event into the message.
func (m *Message) Apply(ev decoder.Event) {
	switch ev.Kind {
	case decoder.KindContent:
		m.Content += ev.Text
	case decoder.KindParseWarning:
		m.Warnings++
	case decoder.KindDone:
		m.finish()
	}
}

// Fail records err as the message error and stops streaming.
func (m *Message) Fail(err error) {
	if err != nil {
		m.Error = err.Error()
	}
	m.finish()
}

// Failed reports whether the stream ended in error.
func (m *Message) Failed() bool {
	return m.Error != ""
}

func (m *Message) finish() {
	if !m.Streaming {
		return
	}
	m.Streaming = false
	m.Duration = time.Since(m.StartedAt)
}
