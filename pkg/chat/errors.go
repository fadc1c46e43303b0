package chat

import (
	"errors"
	"fmt"
)

// ErrNoActiveSession is returned by Conversation operations that need an
// open session.
var ErrNoActiveSession = errors.New("no active session")

// TransportError reports a request that never produced a readable stream:
// the connection failed or the server answered with a non-2xx status.
type TransportError struct {
	// URL is the endpoint that was called.
	URL string

	// StatusCode is 0 when no response was received.
	StatusCode int

	// Body is the start of the error response body.
	Body string

	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
