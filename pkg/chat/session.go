package chat

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// maxTitleLen is the rune length of a derived session title.
const maxTitleLen = 48

// Session is an ordered conversation with one model selection.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	Messages  []Message `json:"messages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns an empty, untitled session.
func NewSession(model string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds finalized messages to the session. The first user message
// names an untitled session.
func (s *Session) Append(msgs ...Message) {
	for _, m := range msgs {
		if s.Title == "" && m.Role == RoleUser {
			s.Title = Title(m.Content)
		}
		s.Messages = append(s.Messages, m)
	}
	s.UpdatedAt = time.Now().UTC()
}

// Title derives a session title from the first line of text.
func Title(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	line = strings.Join(strings.Fields(line), " ")
	if utf8.RuneCountInString(line) <= maxTitleLen {
		return line
	}

	runes := []rune(line)
	return strings.TrimSpace(string(runes[:maxTitleLen-1])) + "…"
}
