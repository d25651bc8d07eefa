package device

import (
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"RoverCore/internal/model"
)

func TestPipeLines(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	go func() { _ = a.WriteLine("hello") }()
	line, err := b.ReadLine(time.Second)
	if err != nil || line != "hello" {
		t.Fatalf("ReadLine = %q, %v", line, err)
	}

	if _, err := b.ReadLine(20 * time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("ReadLine on idle pipe err = %v, want ErrTimeout", err)
	}
}

func TestPipeTimeoutDoesNotLoseNextLine(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	if _, err := b.ReadLine(10 * time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("want timeout, got %v", err)
	}
	go func() { _ = a.WriteLine("after-timeout") }()
	line, err := b.ReadLine(time.Second)
	if err != nil || line != "after-timeout" {
		t.Fatalf("ReadLine = %q, %v", line, err)
	}
}

func TestPipeCloseEOF(t *testing.T) {
	a, b := Pipe()
	_ = a.Close()
	if _, err := b.ReadLine(time.Second); !errors.Is(err, io.EOF) {
		t.Fatalf("peer read after close err = %v, want EOF", err)
	}
	if err := a.WriteLine("x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("write after close err = %v", err)
	}
	_ = b.Close()
}

func TestSimBoardPins(t *testing.T) {
	s := NewSimBoard()
	if _, err := s.ReadPin(3); err == nil {
		t.Fatal("read of unconfigured pin succeeded")
	}
	if err := s.WritePin(3, model.High); err == nil {
		t.Fatal("write to non-output pin succeeded")
	}

	_ = s.SetPinMode(3, model.InputPullUp)
	if l, _ := s.ReadPin(3); l != model.High {
		t.Fatalf("pull-up idle level = %v", l)
	}
	s.SetLevel(3, model.Low)
	if l, _ := s.ReadPin(3); l != model.Low {
		t.Fatalf("scripted level = %v", l)
	}

	_ = s.SetPinMode(7, model.Output)
	_ = s.WritePin(7, model.High)
	if s.Level(7) != model.High {
		t.Fatal("output level not recorded")
	}

	boom := errors.New("boom")
	s.FailRead(3, boom)
	if _, err := s.ReadPin(3); !errors.Is(err, boom) {
		t.Fatalf("FailRead err = %v", err)
	}
	s.FailRead(3, nil)
	if _, err := s.ReadPin(3); err != nil {
		t.Fatal(err)
	}
}

func TestSimBoardPing(t *testing.T) {
	s := NewSimBoard()
	_ = s.SetPinMode(5, model.Output)
	_ = s.SetPinMode(18, model.Input)

	s.SetEcho(1176 * time.Microsecond)
	if w, err := s.Ping(5, 18, 30*time.Millisecond); err != nil || w != 1176*time.Microsecond {
		t.Fatalf("Ping = %v, %v", w, err)
	}
	s.SetEcho(40 * time.Millisecond)
	if w, _ := s.Ping(5, 18, 30*time.Millisecond); w != 0 {
		t.Fatalf("echo beyond timeout = %v, want 0", w)
	}
	if _, err := s.Ping(18, 5, time.Millisecond); err == nil {
		t.Fatal("ping with swapped pins succeeded")
	}
}

func TestSimBoardIMU(t *testing.T) {
	s := NewSimBoard()
	if _, _, err := s.ReadIMU(); err == nil {
		t.Fatal("ReadIMU before BeginIMU succeeded")
	}
	s.FailIMU(errors.New("no ack"))
	if err := s.BeginIMU(0x68); err == nil {
		t.Fatal("BeginIMU ignored failure")
	}
	s.FailIMU(nil)
	if err := s.BeginIMU(0x68); err != nil {
		t.Fatal(err)
	}
	a, _, err := s.ReadIMU()
	if err != nil || a.Z != 9.81 {
		t.Fatalf("ReadIMU = %+v, %v", a, err)
	}
}

// newEmulatedBridge wires a BridgeBoard to an Emulator over a SimBoard.
func newEmulatedBridge(t *testing.T) (*BridgeBoard, *SimBoard) {
	t.Helper()
	sim := NewSimBoard()
	host, mcu := Pipe()
	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- NewEmulator("test", sim).Serve(mcu, stop) }()

	bridge := NewBridgeBoard(host, time.Second)
	t.Cleanup(func() {
		close(stop)
		_ = bridge.Close()
		<-done
		_ = mcu.Close()
	})
	return bridge, sim
}

func TestBridgeBoardAgainstEmulator(t *testing.T) {
	b, sim := newEmulatedBridge(t)

	if err := b.SetPinMode(26, model.Output); err != nil {
		t.Fatal(err)
	}
	if err := b.WritePin(26, model.High); err != nil {
		t.Fatal(err)
	}
	if sim.Level(26) != model.High {
		t.Fatal("write did not reach the board")
	}

	if err := b.SetPinMode(34, model.InputPullUp); err != nil {
		t.Fatal(err)
	}
	sim.SetLevel(34, model.Low)
	if l, err := b.ReadPin(34); err != nil || l != model.Low {
		t.Fatalf("ReadPin = %v, %v", l, err)
	}

	_ = b.SetPinMode(5, model.Output)
	_ = b.SetPinMode(18, model.Input)
	sim.SetEcho(588 * time.Microsecond)
	if w, err := b.Ping(5, 18, 30*time.Millisecond); err != nil || w != 588*time.Microsecond {
		t.Fatalf("Ping = %v, %v", w, err)
	}

	sim.SetClimate(21.5, math.NaN())
	temp, hum, err := b.ReadClimate(4)
	if err != nil || temp != 21.5 || !math.IsNaN(hum) {
		t.Fatalf("ReadClimate = %v, %v, %v", temp, hum, err)
	}

	if err := b.BeginIMU(0x68); err != nil {
		t.Fatal(err)
	}
	sim.SetMotion(model.Vector3{X: 1.5, Z: 9.5}, model.Vector3{Y: -0.25})
	a, g, err := b.ReadIMU()
	if err != nil || a != (model.Vector3{X: 1.5, Z: 9.5}) || g != (model.Vector3{Y: -0.25}) {
		t.Fatalf("ReadIMU = %+v %+v %v", a, g, err)
	}
}

func TestBridgeBoardErrorReply(t *testing.T) {
	b, sim := newEmulatedBridge(t)
	sim.FailIMU(errors.New("no ack at 0x68"))

	err := b.BeginIMU(0x68)
	var be *BridgeError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *BridgeError", err)
	}
	if be.Msg != "no ack at 0x68" {
		t.Fatalf("message = %q", be.Msg)
	}
}

func TestBridgeBoardTimeoutThenRecover(t *testing.T) {
	host, mcu := Pipe()
	defer mcu.Close()
	b := NewBridgeBoard(host, 30*time.Millisecond)
	defer b.Close()

	// MCU reads the request but answers late.
	go func() {
		_, _ = mcu.ReadLine(time.Second)
		time.Sleep(60 * time.Millisecond)
		_ = mcu.WriteLine("OK")
		_, _ = mcu.ReadLine(time.Second)
		_ = mcu.WriteLine("V 1")
	}()

	if err := b.SetPinMode(1, model.Output); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
	time.Sleep(100 * time.Millisecond)

	// The late OK must be discarded rather than taken as the answer to R.
	if l, err := b.ReadPin(1); err != nil || l != model.High {
		t.Fatalf("ReadPin after late reply = %v, %v", l, err)
	}
}

func TestEmulatorHandleBadRequest(t *testing.T) {
	e := NewEmulator("t", NewSimBoard())
	if got := e.Handle("JUMP 3"); got[:4] != "ERR " {
		t.Fatalf("Handle = %q", got)
	}
}
