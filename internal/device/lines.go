package device

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"
)

// lineQueue turns a byte stream into a channel of lines fed by one pump goroutine,
// so a timed-out ReadLine never leaves a reader behind that steals the next line.
type lineQueue struct {
	lines chan string
	dead  chan struct{} // closed when the pump exits
	done  chan struct{} // closed by shutdown
	err   error         // pump error, valid after dead is closed
	once  sync.Once
}

func newLineQueue(r io.Reader) *lineQueue {
	q := &lineQueue{
		lines: make(chan string, 16),
		dead:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go q.pump(r)
	return q
}

func (q *lineQueue) pump(r io.Reader) {
	defer close(q.dead)
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			q.err = err
			return
		}
		line = strings.TrimRight(line, "\r\n")
		select {
		case q.lines <- line:
		case <-q.done:
			q.err = ErrClosed
			return
		}
	}
}

func (q *lineQueue) readLine(timeout time.Duration) (string, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case line := <-q.lines:
		return line, nil
	case <-q.dead:
		select {
		case line := <-q.lines:
			return line, nil
		default:
		}
		return "", q.err
	case <-q.done:
		return "", ErrClosed
	case <-expired:
		return "", ErrTimeout
	}
}

// drain discards lines already received and returns how many were dropped.
func (q *lineQueue) drain() int {
	n := 0
	for {
		select {
		case <-q.lines:
			n++
		default:
			return n
		}
	}
}

func (q *lineQueue) shutdown() {
	q.once.Do(func() { close(q.done) })
}
