// Package eventstream defines the events emitted when a streamed reply is
// finalized, and the publishers that deliver them.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/chatstream/pkg/chat"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMessageFinalized is emitted after an assistant reply stopped
	// streaming, successfully or not.
	EventTypeMessageFinalized = "chatstream.message.finalized"
)

// MessageFinalizedEvent is a transport-neutral event payload for a
// finalized exchange.
type MessageFinalizedEvent struct {
	SchemaVersion int           `json:"schema_version"`
	EventType     string        `json:"event_type"`
	EventID       string        `json:"event_id"`
	EmittedAt     time.Time     `json:"emitted_at"`
	SessionID     string        `json:"session_id"`
	RequestMeta   RequestMeta   `json:"request_meta"`
	Prompt        *chat.Message `json:"prompt,omitempty"`
	Message       chat.Message  `json:"message"`
}

// RequestMeta captures stream lifecycle metadata for the event.
type RequestMeta struct {
	Model       string    `json:"model"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Streaming   bool      `json:"streaming"`
	Warnings    int       `json:"warnings"`
	Error       string    `json:"error,omitempty"`
}

// NewMessageFinalizedEvent builds the event for reply. prompt is the user
// message that triggered it and may be nil.
func NewMessageFinalizedEvent(sessionID string, prompt *chat.Message, reply chat.Message) *MessageFinalizedEvent {
	now := time.Now().UTC()
	return &MessageFinalizedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeMessageFinalized,
		EventID:       uuid.NewString(),
		EmittedAt:     now,
		SessionID:     sessionID,
		RequestMeta: RequestMeta{
			Model:       reply.Model,
			StartedAt:   reply.StartedAt,
			CompletedAt: reply.StartedAt.Add(reply.Duration),
			DurationMs:  reply.Duration.Milliseconds(),
			Streaming:   true,
			Warnings:    reply.Warnings,
			Error:       reply.Error,
		},
		Prompt:  prompt,
		Message: reply,
	}
}
