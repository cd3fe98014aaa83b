package pipeline

import (
	"errors"
	"io"
	"syscall"
)

// PipeWriter wraps the process output. When the reader at the other end of
// a pipe goes away (EPIPE), the writer stops forwarding, reports success for
// every later write, and Closed returns true.
//
// A PipeWriter is not safe for concurrent use.
type PipeWriter struct {
	w      io.Writer
	closed bool
}

// NewPipeWriter wraps w.
func NewPipeWriter(w io.Writer) *PipeWriter {
	return &PipeWriter{w: w}
}

func (p *PipeWriter) Write(b []byte) (int, error) {
	if p.closed {
		return len(b), nil
	}
	n, err := p.w.Write(b)
	if err != nil && errors.Is(err, syscall.EPIPE) {
		p.closed = true
		p.w = io.Discard
		return len(b), nil
	}
	return n, err
}

// Closed reports whether the downstream reader has closed the pipe.
func (p *PipeWriter) Closed() bool {
	return p.closed
}
