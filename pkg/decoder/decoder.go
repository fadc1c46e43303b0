package decoder

import (
	"bytes"
	"unicode/utf8"
)

// Option configures a Decoder created with New.
type Option func(*options)

type options struct {
	doneSentinel bool
}

// WithDoneSentinel makes an SSE "data: [DONE]" line the authoritative end of
// the session: it emits Done immediately and any later input is ignored.
// When disabled (the default) the sentinel is a no-op and Done is only
// produced by Finish, i.e. when the transport closes the stream.
func WithDoneSentinel(enabled bool) Option {
	return func(o *options) {
		o.doneSentinel = enabled
	}
}

// Decoder incrementally decodes one streamed response body into Events.
//
// A Decoder is scoped to exactly one stream: create it when the response
// starts and discard it when the stream ends, fails, or is abandoned.
// It is not safe for concurrent use.
type Decoder struct {
	opts options

	// buf is the line buffer: the bytes following the last newline seen.
	buf []byte

	// checked is the length of the buf prefix already validated as UTF-8.
	// Bytes past it are an incomplete multi-byte sequence waiting for the
	// next chunk.
	checked int

	// offset is the stream position of buf[0], used in error reports.
	offset int64

	// finished is set once Done has been emitted.
	finished bool

	// sentinel is set when Done came from a [DONE] line.
	sentinel bool

	// err holds the fatal error of a failed session.
	err error
}

// New returns a Decoder ready for the first chunk of a stream.
func New(opts ...Option) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(&d.opts)
	}
	return d
}

// Feed appends chunk to the line buffer and returns the events for every
// line completed by it, in stream order. The unterminated tail stays
// buffered for the next call. Empty chunks produce no events.
//
// Malformed lines are reported as ParseWarning events and never stop the
// stream. Bytes that are not valid UTF-8 fail the whole session with a
// *ChunkDecodeError, returned together with the events of the complete
// lines before them. Once a [DONE] sentinel has ended the session, bytes
// after it are not inspected.
func (d *Decoder) Feed(chunk []byte) ([]Event, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.sentinel {
		return nil, nil
	}
	if d.finished {
		return nil, ErrFinished
	}
	if len(chunk) == 0 {
		return nil, nil
	}

	d.buf = append(d.buf, chunk...)

	// Lines are parsed up to the first invalid byte, so a chunk decodes the
	// same whether or not it is split before that byte.
	invalid := d.validate(false)

	var events []Event
	start := 0
	for !d.finished {
		i := bytes.IndexByte(d.buf[start:d.checked], '\n')
		if i < 0 {
			break
		}
		events = d.parseLine(events, string(d.buf[start:start+i]))
		start += i + 1
	}

	if d.sentinel {
		d.buf = nil
		return events, nil
	}
	if invalid != nil {
		d.err = invalid
		d.buf = nil
		return events, invalid
	}

	d.trim(start)
	return events, nil
}

// Finish ends the session. A residual line left without a trailing newline
// is parsed first, then Done is emitted as the final event. Calling Finish
// again, or after a [DONE] sentinel ended the session, returns no events.
func (d *Decoder) Finish() ([]Event, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.finished {
		return nil, nil
	}

	if err := d.validate(true); err != nil {
		d.err = err
		return nil, err
	}

	var events []Event
	if len(d.buf) > 0 {
		events = d.parseLine(events, string(d.buf))
	}
	d.buf = nil
	d.checked = 0

	if !d.finished {
		d.finished = true
		events = append(events, Done())
	}

	return events, nil
}

// Buffered returns the number of bytes held in the line buffer.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// validate checks the unvalidated part of buf for UTF-8 correctness and
// advances checked over the valid prefix, also when it fails. Unless final
// is set, an incomplete sequence at the very end is accepted and left for
// the next chunk.
func (d *Decoder) validate(final bool) error {
	b := d.buf
	i := d.checked
	for i < len(b) {
		if b[i] < utf8.RuneSelf {
			i++
			continue
		}

		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			full := utf8.FullRune(b[i:])
			if !full && !final {
				break
			}
			d.checked = i
			return &ChunkDecodeError{
				Offset:    d.offset + int64(i),
				Bytes:     bytes.Clone(b[i:min(len(b), i+utf8.UTFMax)]),
				Truncated: !full,
			}
		}
		i += size
	}

	d.checked = i
	return nil
}

// trim drops the first n bytes of the line buffer.
func (d *Decoder) trim(n int) {
	if n == 0 {
		return
	}

	rest := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]
	d.checked -= n
	d.offset += int64(n)
}
