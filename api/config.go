// Package api provides the development completion server: a fiber app that
// streams echo replies in the NDJSON and SSE shapes the decoder understands,
// and exposes the model catalog and stored sessions.
package api

import "time"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// Format is the streaming format used when a request names none:
	// "ndjson" or "sse".
	Format string

	// TokenDelay is the pause between streamed tokens.
	TokenDelay time.Duration

	// RateLimit is the sustained requests per second allowed per client.
	// Zero disables rate limiting.
	RateLimit float64

	// Burst is the request burst allowed per client.
	Burst int
}
