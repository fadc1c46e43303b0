package api

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/config"
)

// malformedLine is injected by ?malformed=true to exercise client-side
// parse warnings.
const malformedLine = "{\"data\": unterminated"

// handleChat streams an echo of the request message, one word per frame.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chat.Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is required"})
	}

	format := c.Query("format", s.config.Format)
	if format == "" {
		format = config.FormatNDJSON
	}

	var frame func(token string) ([]byte, error)
	switch format {
	case config.FormatNDJSON:
		c.Set(fiber.HeaderContentType, "application/x-ndjson")
		frame = ndjsonFrame
	case config.FormatSSE:
		c.Set(fiber.HeaderContentType, "text/event-stream")
		frame = sseFrame
	default:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: fmt.Sprintf("unknown format %q", format)})
	}
	c.Set(fiber.HeaderCacheControl, "no-cache")

	tokens := Tokenize(req.Message)
	malformed := c.QueryBool("malformed")

	s.logger.Debug("streaming reply",
		"model", req.Model,
		"format", format,
		"tokens", len(tokens),
	)

	// io.Pipe gives per-chunk flushing: fasthttp writes each chunk to the
	// socket as soon as the pipe reader returns it.
	pr, pw := io.Pipe()
	go s.writeTokens(pw, tokens, frame, format == config.FormatSSE, malformed)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) writeTokens(pw *io.PipeWriter, tokens []string, frame func(string) ([]byte, error), sentinel, malformed bool) {
	var err error
	defer func() { pw.CloseWithError(err) }()

	for i, tok := range tokens {
		if i > 0 && s.config.TokenDelay > 0 {
			time.Sleep(s.config.TokenDelay)
		}

		var b []byte
		b, err = frame(tok)
		if err != nil {
			return
		}
		if _, err = pw.Write(b); err != nil {
			s.logger.Debug("client went away", "error", err)
			return
		}

		if malformed && i == 0 {
			if _, err = io.WriteString(pw, malformedLine+"\n"); err != nil {
				return
			}
		}
	}

	if sentinel {
		_, err = io.WriteString(pw, "data: [DONE]\n\n")
	}
}

func ndjsonFrame(token string) ([]byte, error) {
	b, err := json.Marshal(map[string]string{"data": token})
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

type sseDelta struct {
	Content string `json:"content"`
}

type sseChoice struct {
	Delta sseDelta `json:"delta"`
}

type ssePayload struct {
	Choices []sseChoice `json:"choices"`
}

func sseFrame(token string) ([]byte, error) {
	b, err := json.Marshal(ssePayload{Choices: []sseChoice{{Delta: sseDelta{Content: token}}}})
	if err != nil {
		return nil, err
	}
	return []byte("data: " + string(b) + "\n\n"), nil
}

// Tokenize splits text into word tokens, each keeping its trailing
// whitespace, so that concatenating the tokens yields text unchanged.
func Tokenize(text string) []string {
	var tokens []string
	start := 0
	inSpace := false
	for i, r := range text {
		space := r == ' ' || r == '\n' || r == '\t'
		if inSpace && !space {
			tokens = append(tokens, text[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(text) {
		tokens = append(tokens, text[start:])
	}
	return tokens
}
