package sse

import (
	"errors"
	"io"
)

const readSize = 4 << 10

// Reader pulls events off a stream body. Malformed and unknown lines are
// reported to the skip hook and never stop the stream.
type Reader struct {
	r      io.Reader
	buf    LineBuffer
	queue  []string
	chunk  []byte
	onSkip func(line string, err error)
	eof    bool
	err    error
}

// Option configures a Reader.
type Option func(*Reader)

// OnSkip registers a hook called for each line that fails to parse.
func OnSkip(fn func(line string, err error)) Option {
	return func(r *Reader) {
		r.onSkip = fn
	}
}

// WithReadSize sets the size of each read from the underlying stream.
func WithReadSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.chunk = make([]byte, n)
		}
	}
}

// NewReader wraps r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	rd := &Reader{r: r}
	for _, opt := range opts {
		opt(rd)
	}
	if rd.chunk == nil {
		rd.chunk = make([]byte, readSize)
	}
	return rd
}

// Next returns the next event. It returns io.EOF once the stream is drained,
// or the underlying read error if the transport failed.
func (r *Reader) Next() (Event, error) {
	for {
		for len(r.queue) > 0 {
			line := r.queue[0]
			r.queue = r.queue[1:]
			ev, err := ParseLine(line)
			if err != nil {
				if r.onSkip != nil {
					r.onSkip(line, err)
				}
				continue
			}
			if ev != nil {
				return ev, nil
			}
		}

		if r.eof {
			if r.err != nil {
				return nil, r.err
			}
			return nil, io.EOF
		}

		n, err := r.r.Read(r.chunk)
		if n > 0 {
			r.queue = append(r.queue, r.buf.Feed(r.chunk[:n])...)
		}
		if err != nil {
			r.eof = true
			if line, ok := r.buf.Flush(); ok {
				r.queue = append(r.queue, line)
			}
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
		}
	}
}
