package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/chatstream/pkg/decoder"
	"github.com/papercomputeco/chatstream/pkg/logger"
)

const (
	defaultPath       = "/api/chat"
	modelsPath        = "/api/models"
	defaultTimeout    = 5 * time.Minute
	maxErrorBodyBytes = 512
)

// Request is the body POSTed to the completion endpoint.
type Request struct {
	Message string `json:"message"`
	Model   string `json:"model"`
	Stream  bool   `json:"stream"`
}

// Sink receives every event of a stream in order. Returning an error aborts
// the stream.
type Sink func(decoder.Event) error

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPath sets the completion endpoint path. Defaults to /api/chat.
func WithPath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.path = path
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds a whole streamed response. Zero disables the bound.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithChunkSize sets the read size used against the response body.
func WithChunkSize(n int) ClientOption {
	return func(c *Client) {
		c.chunkSize = n
	}
}

// WithDecoderOptions passes options to the decoder of every stream.
func WithDecoderOptions(opts ...decoder.Option) ClientOption {
	return func(c *Client) {
		c.decoderOpts = append(c.decoderOpts, opts...)
	}
}

// WithTee copies every raw response byte to w.
func WithTee(w io.Writer) ClientOption {
	return func(c *Client) {
		c.tee = w
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client streams completions from a chat server.
type Client struct {
	target      string
	path        string
	http        *http.Client
	timeout     time.Duration
	chunkSize   int
	decoderOpts []decoder.Option
	tee         io.Writer
	logger      *slog.Logger
}

// NewClient returns a Client for the server at target, e.g.
// "http://localhost:8080".
func NewClient(target string, opts ...ClientOption) *Client {
	c := &Client{
		target:  strings.TrimRight(target, "/"),
		path:    defaultPath,
		http:    &http.Client{},
		timeout: defaultTimeout,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Target returns the server base URL.
func (c *Client) Target() string {
	return c.target
}

// Stream POSTs req and passes every decoded event to sink, ending with Done
// when the stream completes. Transport failures are returned as
// *TransportError and a malformed UTF-8 body as *decoder.ChunkDecodeError.
func (c *Client) Stream(ctx context.Context, req Request, sink Sink) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	url := c.target + c.path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson, text/event-stream")

	c.logger.Debug("sending chat request",
		"url", url,
		"model", req.Model,
	)

	resp, err := c.do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	opts := []decoder.ReaderOption{decoder.WithDecoderOptions(c.decoderOpts...)}
	if c.chunkSize > 0 {
		opts = append(opts, decoder.WithChunkSize(c.chunkSize))
	}
	if c.tee != nil {
		opts = append(opts, decoder.WithTee(c.tee))
	}

	return decoder.Drain(ctx, decoder.NewReader(resp.Body, opts...), func(ev decoder.Event) error {
		if ev.Kind == decoder.KindParseWarning {
			c.logger.Debug("skipping malformed stream line", "line", ev.Raw)
		}
		return sink(ev)
	})
}

// ListModels fetches the server's model catalog.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	url := c.target + modelsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var models []Model
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, fmt.Errorf("decoding models: %w", err)
	}
	return models, nil
}

// do sends req and converts connection failures and non-2xx statuses into
// *TransportError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	url := req.URL.String()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &TransportError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	return resp, nil
}
