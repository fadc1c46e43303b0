// Package decoder provides an incremental decoder for streamed chat completion
// response bodies. It accepts the raw bytes of an HTTP response in arbitrary
// chunks and turns every complete line into an Event.
//
// Two line formats are recognized without prior negotiation:
//
//	{"data": "..."}                                   NDJSON-style
//	data: {"choices":[{"delta":{"content":"..."}}]}   SSE-style
//
// The decoder performs no I/O. See Reader for an io.Reader driven wrapper.
package decoder

import "fmt"

// Kind discriminates the variants of an Event.
type Kind int

const (
	// KindContent carries a decoded text fragment in Event.Text.
	KindContent Kind = iota

	// KindDone is the terminal event of a decode session.
	KindDone

	// KindParseWarning carries a line that matched no known format, or
	// failed to parse, in Event.Raw.
	KindParseWarning
)

func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindDone:
		return "done"
	case KindParseWarning:
		return "parse_warning"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name, so events serialize as
// {"kind":"content",...}.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindContent, KindDone, KindParseWarning:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown event kind %d", int(k))
	}
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "content":
		*k = KindContent
	case "done":
		*k = KindDone
	case "parse_warning":
		*k = KindParseWarning
	default:
		return fmt.Errorf("unknown event kind %q", text)
	}
	return nil
}

// Event is a single decoded item produced from a complete line of the stream.
type Event struct {
	Kind Kind `json:"kind"`

	// Text is the decoded fragment for KindContent events.
	Text string `json:"text,omitempty"`

	// Raw is the offending line for KindParseWarning events.
	Raw string `json:"raw,omitempty"`
}

// Content returns a content event for text.
func Content(text string) Event {
	return Event{Kind: KindContent, Text: text}
}

// Done returns the terminal event.
func Done() Event {
	return Event{Kind: KindDone}
}

// ParseWarning returns a warning event for an unrecognized line.
func ParseWarning(raw string) Event {
	return Event{Kind: KindParseWarning, Raw: raw}
}

func (e Event) String() string {
	switch e.Kind {
	case KindContent:
		return fmt.Sprintf("content(%q)", e.Text)
	case KindParseWarning:
		return fmt.Sprintf("parse_warning(%q)", e.Raw)
	default:
		return e.Kind.String()
	}
}
