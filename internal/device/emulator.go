package device

import (
	"errors"
	"fmt"
	"log"
	"time"

	"RoverCore/internal/parser"
)

// Emulator answers bridge protocol requests on a Device using a Board.
// It stands in for the MCU firmware during development.
type Emulator struct {
	ID    string
	Board Board
}

// NewEmulator creates an emulator backed by board.
func NewEmulator(id string, board Board) *Emulator {
	return &Emulator{ID: id, Board: board}
}

// Serve reads requests from dev and writes one reply per request until stop
// is closed or dev fails. It returns nil on stop.
func (e *Emulator) Serve(dev Device, stop <-chan struct{}) error {
	log.Printf("[emulator %s] serving bridge protocol", e.ID)
	for {
		select {
		case <-stop:
			log.Printf("[emulator %s] stopped", e.ID)
			return nil
		default:
		}

		line, err := dev.ReadLine(200 * time.Millisecond)
		if errors.Is(err, ErrTimeout) {
			continue
		}
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
			}
			return fmt.Errorf("emulator %s: read: %w", e.ID, err)
		}
		if line == "" {
			continue
		}

		reply := e.Handle(line)
		if err := dev.WriteLine(reply); err != nil {
			return fmt.Errorf("emulator %s: write: %w", e.ID, err)
		}
	}
}

// Handle executes one request line and returns the reply line.
func (e *Emulator) Handle(line string) string {
	req, err := parser.DecodeRequest(line)
	if err != nil {
		log.Printf("[emulator %s] bad request %q: %v", e.ID, line, err)
		return parser.EncodeError(err.Error())
	}

	switch req.Op {
	case parser.OpMode:
		err = e.Board.SetPinMode(req.Pin, req.Mode)
	case parser.OpWrite:
		err = e.Board.WritePin(req.Pin, req.Level)
	case parser.OpRead:
		l, err := e.Board.ReadPin(req.Pin)
		if err != nil {
			return parser.EncodeError(err.Error())
		}
		return parser.EncodeLevel(l)
	case parser.OpPing:
		w, err := e.Board.Ping(req.Pin, req.Echo, req.Timeout)
		if err != nil {
			return parser.EncodeError(err.Error())
		}
		return parser.EncodeWidth(w)
	case parser.OpDHT:
		t, h, err := e.Board.ReadClimate(req.Pin)
		if err != nil {
			return parser.EncodeError(err.Error())
		}
		return parser.EncodeClimate(t, h)
	case parser.OpIMUBegin:
		err = e.Board.BeginIMU(req.Addr)
	case parser.OpIMURead:
		a, g, err := e.Board.ReadIMU()
		if err != nil {
			return parser.EncodeError(err.Error())
		}
		return parser.EncodeMotion(a, g)
	}
	if err != nil {
		return parser.EncodeError(err.Error())
	}
	return parser.EncodeOK()
}
