package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/chatstream/pkg/chat"
)

// StreamWriter prints a streaming message as it grows, writing only the
// text appended since the previous update.
type StreamWriter struct {
	w       io.Writer
	written int
}

func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// Update writes the new tail of m.Content. It matches the signature of the
// onUpdate callback of chat.Conversation.Send.
func (s *StreamWriter) Update(m *chat.Message) {
	if len(m.Content) <= s.written {
		return
	}
	_, _ = io.WriteString(s.w, m.Content[s.written:])
	s.written = len(m.Content)
}

// Reset prepares the writer for the next message.
func (s *StreamWriter) Reset() {
	s.written = 0
}

// ReplyStatus summarizes a finished reply: its duration, skipped lines and
// error notice.
func ReplyStatus(m *chat.Message) string {
	parts := []string{FormatDuration(m.Duration)}
	if m.Warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d malformed line(s) skipped", m.Warnings))
	}

	status := DimStyle.Render("(" + strings.Join(parts, ", ") + ")")
	if m.Failed() {
		status = fmt.Sprintf("%s %s %s", FailMark, ErrorStyle.Render(m.Error), status)
	}
	return status
}
