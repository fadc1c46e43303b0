package decoder

import (
	"errors"
	"fmt"
)

// ErrFinished is returned by Feed once the session has been finished, either
// by Finish or by a [DONE] sentinel when WithDoneSentinel is enabled.
var ErrFinished = errors.New("decode session finished")

// ChunkDecodeError reports bytes that cannot be decoded as UTF-8 text.
// It is fatal for the decode session: the decoder refuses further input and
// every subsequent call returns the same error.
type ChunkDecodeError struct {
	// Offset is the position of the first undecodable byte, counted from the
	// start of the stream.
	Offset int64

	// Bytes holds up to four bytes starting at Offset.
	Bytes []byte

	// Truncated is true when the stream ended inside a multi-byte sequence.
	Truncated bool
}

func (e *ChunkDecodeError) Error() string {
	if e.Truncated {
		return fmt.Sprintf("stream ended inside a multi-byte sequence at offset %d: % x", e.Offset, e.Bytes)
	}
	return fmt.Sprintf("invalid UTF-8 at offset %d: % x", e.Offset, e.Bytes)
}
