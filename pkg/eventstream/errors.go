package eventstream

import "errors"

// ErrNilEvent indicates a nil message event payload was provided to a publisher.
var ErrNilEvent = errors.New("nil message event")
