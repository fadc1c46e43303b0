package decoder

import (
	"context"
	"errors"
	"io"
)

const defaultChunkSize = 4096

// ReaderOption configures a Reader created with NewReader.
type ReaderOption func(*Reader)

// WithChunkSize sets the size of the reads issued against the source.
// Values below 1 keep the default of 4096 bytes.
func WithChunkSize(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// WithTee forwards every byte read from the source, verbatim, to w.
func WithTee(w io.Writer) ReaderOption {
	return func(r *Reader) {
		r.tee = w
	}
}

// WithDecoderOptions passes options through to the underlying Decoder.
func WithDecoderOptions(opts ...Option) ReaderOption {
	return func(r *Reader) {
		r.decoderOpts = append(r.decoderOpts, opts...)
	}
}

// Reader pulls chunks from a source io.Reader, typically an HTTP response
// body, and yields decoded events one at a time.
//
// ┌──────────────────┐   ┌─────────────┐   ┌───────────────────┐
// │ source io.Reader │──▶│ Reader.Next │──▶│ tee io.Writer     │
// └──────────────────┘   └─────────────┘   └───────────────────┘
// .                             │
// .                             ▼
// .                      ┌─────────────┐
// .                      │    Event    │
// .                      └─────────────┘
type Reader struct {
	src         io.Reader
	tee         io.Writer
	chunkSize   int
	decoderOpts []Option

	dec     *Decoder
	buf     []byte
	pending []Event
	done    bool

	// err is a decode failure, returned once the events decoded before it
	// have been read.
	err error
}

// NewReader returns a Reader decoding src.
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{
		src:       src,
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.dec = New(r.decoderOpts...)
	r.buf = make([]byte, r.chunkSize)
	return r
}

// Next returns the next event of the stream. It blocks on the source until
// a complete line is available. After the Done event has been returned, Next
// returns io.EOF. A *ChunkDecodeError or a read error from the source ends
// the session.
func (r *Reader) Next() (Event, error) {
	for len(r.pending) == 0 {
		if r.err != nil {
			return Event{}, r.err
		}
		if r.done {
			return Event{}, io.EOF
		}
		if err := r.fill(); err != nil {
			return Event{}, err
		}
	}

	ev := r.pending[0]
	r.pending = r.pending[1:]
	if ev.Kind == KindDone {
		r.done = true
		r.pending = nil
	}
	return ev, nil
}

// fill performs one read against the source and queues the resulting events.
func (r *Reader) fill() error {
	n, readErr := r.src.Read(r.buf)
	if n > 0 {
		if r.tee != nil {
			if _, err := r.tee.Write(r.buf[:n]); err != nil {
				return err
			}
		}

		events, err := r.dec.Feed(r.buf[:n])
		r.pending = append(r.pending, events...)
		if err != nil {
			r.err = err
			return nil
		}
	}

	switch {
	case readErr == nil:
		return nil
	case errors.Is(readErr, io.EOF):
		events, err := r.dec.Finish()
		r.pending = append(r.pending, events...)
		if err != nil {
			r.err = err
			return nil
		}
		if len(r.pending) == 0 {
			// The session already ended on a [DONE] sentinel.
			r.done = true
		}
		return nil
	default:
		return readErr
	}
}

// Drain reads every event from r and passes it to fn until the stream is
// done, fn returns an error, or ctx is cancelled. Cancellation is checked
// before each read from the source; events already decoded are still
// delivered. A blocked read is only interrupted when the source itself
// observes ctx, as an HTTP response body created with the same ctx does.
func Drain(ctx context.Context, r *Reader, fn func(Event) error) error {
	for {
		if len(r.pending) == 0 && !r.done {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := fn(ev); err != nil {
			return err
		}
	}
}
