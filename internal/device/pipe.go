package device

import (
	"io"
	"sync/atomic"
	"time"
)

// PipeEnd is one side of an in-memory line pipe.
type PipeEnd struct {
	r      *io.PipeReader
	w      *io.PipeWriter
	q      *lineQueue
	closed atomic.Bool
}

// Pipe returns two connected Devices; lines written on one are read on the other.
func Pipe() (*PipeEnd, *PipeEnd) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	a := &PipeEnd{r: ar, w: aw, q: newLineQueue(ar)}
	b := &PipeEnd{r: br, w: bw, q: newLineQueue(br)}
	return a, b
}

// ReadLine implements Device.
func (p *PipeEnd) ReadLine(timeout time.Duration) (string, error) {
	return p.q.readLine(timeout)
}

// WriteLine implements Device. It blocks until the peer's reader accepts the bytes.
// io.Pipe gates parallel writes, so lines never interleave.
func (p *PipeEnd) WriteLine(s string) error {
	if p.closed.Load() {
		return ErrClosed
	}
	_, err := p.w.Write(append([]byte(s), '\n'))
	return err
}

// Drain drops lines received but not yet read.
func (p *PipeEnd) Drain() int { return p.q.drain() }

// Close closes both directions; the peer sees EOF.
func (p *PipeEnd) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.q.shutdown()
	_ = p.w.Close()
	return p.r.Close()
}
