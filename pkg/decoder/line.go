package decoder

import (
	"encoding/json"
	"strings"
)

const (
	// ssePrefix is the field prefix of an SSE-style data line.
	ssePrefix = "data: "

	// doneSentinel is the conventional last SSE payload of a completion.
	doneSentinel = "[DONE]"
)

// parseLine decodes a single complete line and appends the resulting event,
// if any, to events.
func (d *Decoder) parseLine(events []Event, raw string) []Event {
	line := strings.TrimSpace(raw)
	if line == "" {
		return events
	}

	switch {
	case strings.HasPrefix(line, "{"):
		if !json.Valid([]byte(line)) {
			return append(events, ParseWarning(line))
		}
		if text := objectText(json.RawMessage(line)); text != "" {
			events = append(events, Content(text))
		}
		return events

	case strings.HasPrefix(line, ssePrefix):
		payload := strings.TrimSpace(line[len(ssePrefix):])
		if payload == doneSentinel {
			if d.opts.doneSentinel {
				d.finished = true
				d.sentinel = true
				events = append(events, Done())
			}
			return events
		}
		if !json.Valid([]byte(payload)) {
			return append(events, ParseWarning(line))
		}
		if text := sseText(json.RawMessage(payload)); text != "" {
			events = append(events, Content(text))
		}
		return events

	default:
		return append(events, ParseWarning(line))
	}
}

// objectText extracts the text of an NDJSON-style object: the first
// non-empty of "data", "content", "text", then Ollama's "message.content".
func objectText(raw json.RawMessage) string {
	return firstNonEmpty(
		stringAt(field(raw, "data")),
		stringAt(field(raw, "content")),
		stringAt(field(raw, "text")),
		stringAt(field(field(raw, "message"), "content")),
	)
}

// sseText extracts the text of an SSE-style payload: the OpenAI delta, then
// "content", "text", or the payload itself when it is a JSON string.
func sseText(raw json.RawMessage) string {
	return firstNonEmpty(
		stringAt(field(field(index(field(raw, "choices"), 0), "delta"), "content")),
		stringAt(field(raw, "content")),
		stringAt(field(raw, "text")),
		stringAt(raw),
	)
}

// field returns the raw value of key when raw is a JSON object holding it.
func field(raw json.RawMessage, key string) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj[key]
}

// index returns the raw element i when raw is a JSON array long enough.
func index(raw json.RawMessage, i int) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil || i >= len(arr) {
		return nil
	}
	return arr[i]
}

// stringAt returns raw as a Go string when it is a JSON string.
func stringAt(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
