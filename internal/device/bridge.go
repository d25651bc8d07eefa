package device

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"RoverCore/internal/model"
	"RoverCore/internal/parser"
)

// BridgeError is an ERR reply returned by the MCU bridge.
type BridgeError struct {
	Op  parser.Op
	Msg string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("bridge %s: %s", e.Op, e.Msg)
}

// BridgeBoard implements Board over a microcontroller speaking the bridge line protocol.
// Each call is one request line followed by one reply line.
type BridgeBoard struct {
	mu      sync.Mutex
	dev     Device
	timeout time.Duration
}

// NewBridgeBoard wraps an open Device. replyTimeout bounds every exchange.
func NewBridgeBoard(dev Device, replyTimeout time.Duration) *BridgeBoard {
	return &BridgeBoard{dev: dev, timeout: replyTimeout}
}

// OpenBridge opens the serial port at path and returns a BridgeBoard over it.
func OpenBridge(path string, baud int, replyTimeout time.Duration) (*BridgeBoard, error) {
	sd, err := NewSerialDevice(path, baud)
	if err != nil {
		return nil, fmt.Errorf("open bridge: %w", err)
	}
	return NewBridgeBoard(sd, replyTimeout), nil
}

// exchange sends req and waits up to wait for its reply.
func (b *BridgeBoard) exchange(req parser.Request, wait time.Duration) (parser.Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dev == nil {
		return parser.Reply{}, ErrClosed
	}

	// A reply that arrived after a previous timeout belongs to that request.
	if d, ok := b.dev.(interface{ Drain() int }); ok {
		if n := d.Drain(); n > 0 {
			log.Printf("[bridge] dropped %d stale line(s)", n)
		}
	}

	if err := b.dev.WriteLine(req.Encode()); err != nil {
		return parser.Reply{}, fmt.Errorf("bridge %s: write: %w", req.Op, err)
	}
	line, err := b.dev.ReadLine(wait)
	if err != nil {
		return parser.Reply{}, fmt.Errorf("bridge %s: %w", req.Op, err)
	}
	reply, err := parser.DecodeReply(line)
	if err != nil {
		return parser.Reply{}, fmt.Errorf("bridge %s: %w", req.Op, err)
	}
	if reply.Kind == parser.ReplyError {
		msg := "unspecified error"
		if len(reply.Fields) > 0 {
			msg = reply.Fields[0]
		}
		return reply, &BridgeError{Op: req.Op, Msg: msg}
	}
	return reply, nil
}

func (b *BridgeBoard) expectOK(req parser.Request) error {
	reply, err := b.exchange(req, b.timeout)
	if err != nil {
		return err
	}
	if reply.Kind != parser.ReplyOK {
		return fmt.Errorf("bridge %s: unexpected reply %s", req.Op, reply.Kind)
	}
	return nil
}

// SetPinMode implements Board.
func (b *BridgeBoard) SetPinMode(pin int, mode model.PinMode) error {
	return b.expectOK(parser.Request{Op: parser.OpMode, Pin: pin, Mode: mode})
}

// WritePin implements Board.
func (b *BridgeBoard) WritePin(pin int, level model.Level) error {
	return b.expectOK(parser.Request{Op: parser.OpWrite, Pin: pin, Level: level})
}

// ReadPin implements Board.
func (b *BridgeBoard) ReadPin(pin int) (model.Level, error) {
	reply, err := b.exchange(parser.Request{Op: parser.OpRead, Pin: pin}, b.timeout)
	if err != nil {
		return model.Low, err
	}
	return reply.Level()
}

// Ping implements Board. The MCU times the pulse; the reply wait covers the echo timeout.
func (b *BridgeBoard) Ping(trig, echo int, timeout time.Duration) (time.Duration, error) {
	req := parser.Request{Op: parser.OpPing, Pin: trig, Echo: echo, Timeout: timeout}
	reply, err := b.exchange(req, b.timeout+timeout)
	if err != nil {
		return 0, err
	}
	return reply.Width()
}

// ReadClimate implements Board.
func (b *BridgeBoard) ReadClimate(pin int) (float64, float64, error) {
	reply, err := b.exchange(parser.Request{Op: parser.OpDHT, Pin: pin}, b.timeout)
	if err != nil {
		return 0, 0, err
	}
	return reply.Climate()
}

// BeginIMU implements Board.
func (b *BridgeBoard) BeginIMU(addr int) error {
	return b.expectOK(parser.Request{Op: parser.OpIMUBegin, Addr: addr})
}

// ReadIMU implements Board.
func (b *BridgeBoard) ReadIMU() (model.Vector3, model.Vector3, error) {
	reply, err := b.exchange(parser.Request{Op: parser.OpIMURead}, b.timeout)
	if err != nil {
		return model.Vector3{}, model.Vector3{}, err
	}
	return reply.Motion()
}

// Close closes the underlying device.
func (b *BridgeBoard) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dev == nil {
		return nil
	}
	err := b.dev.Close()
	b.dev = nil
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}
