package device

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"RoverCore/internal/model"
)

// SimBoard is an in-memory Board. Inputs are scripted with the Set* methods,
// outputs are observed with Level.
type SimBoard struct {
	mu       sync.Mutex
	modes    map[int]model.PinMode
	levels   map[int]model.Level
	readErrs map[int]error
	echo     time.Duration
	pingErr  error
	temp     float64
	hum      float64
	accel    model.Vector3
	gyro     model.Vector3
	imuErr   error
	imuReady bool
	closed   bool
}

// NewSimBoard returns a board at rest: no echo, 24 °C / 50 %, gravity on Z.
func NewSimBoard() *SimBoard {
	return &SimBoard{
		modes:    map[int]model.PinMode{},
		levels:   map[int]model.Level{},
		readErrs: map[int]error{},
		temp:     24.0,
		hum:      50.0,
		accel:    model.Vector3{Z: 9.81},
	}
}

// SetPinMode implements Board. Pull-up inputs idle high.
func (s *SimBoard) SetPinMode(pin int, mode model.PinMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.modes[pin] = mode
	if _, scripted := s.levels[pin]; !scripted {
		if mode == model.InputPullUp {
			s.levels[pin] = model.High
		} else {
			s.levels[pin] = model.Low
		}
	}
	return nil
}

// WritePin implements Board.
func (s *SimBoard) WritePin(pin int, level model.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.modes[pin] != model.Output {
		return fmt.Errorf("pin %d is not an output", pin)
	}
	s.levels[pin] = level
	return nil
}

// ReadPin implements Board.
func (s *SimBoard) ReadPin(pin int) (model.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Low, ErrClosed
	}
	if err := s.readErrs[pin]; err != nil {
		return model.Low, err
	}
	if _, ok := s.modes[pin]; !ok {
		return model.Low, fmt.Errorf("pin %d is not configured", pin)
	}
	return s.levels[pin], nil
}

// Ping implements Board. Echoes at or beyond timeout report 0.
func (s *SimBoard) Ping(trig, echo int, timeout time.Duration) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if s.pingErr != nil {
		return 0, s.pingErr
	}
	if s.modes[trig] != model.Output {
		return 0, fmt.Errorf("trigger pin %d is not an output", trig)
	}
	if m, ok := s.modes[echo]; !ok || m == model.Output {
		return 0, fmt.Errorf("echo pin %d is not an input", echo)
	}
	if s.echo >= timeout {
		return 0, nil
	}
	return s.echo, nil
}

// ReadClimate implements Board.
func (s *SimBoard) ReadClimate(int) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, 0, ErrClosed
	}
	return s.temp, s.hum, nil
}

// BeginIMU implements Board.
func (s *SimBoard) BeginIMU(addr int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.imuErr != nil {
		return s.imuErr
	}
	s.imuReady = true
	return nil
}

// ReadIMU implements Board.
func (s *SimBoard) ReadIMU() (model.Vector3, model.Vector3, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Vector3{}, model.Vector3{}, ErrClosed
	}
	if !s.imuReady {
		return model.Vector3{}, model.Vector3{}, errors.New("imu not started")
	}
	return s.accel, s.gyro, nil
}

// Close implements Board.
func (s *SimBoard) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SetLevel drives an input pin to level.
func (s *SimBoard) SetLevel(pin int, level model.Level) {
	s.mu.Lock()
	s.levels[pin] = level
	s.mu.Unlock()
}

// Level returns the current level of pin.
func (s *SimBoard) Level(pin int) model.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[pin]
}

// Mode returns the configured mode of pin.
func (s *SimBoard) Mode(pin int) (model.PinMode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.modes[pin]
	return m, ok
}

// SetEcho sets the echo pulse width returned by Ping. 0 means no echo.
func (s *SimBoard) SetEcho(width time.Duration) {
	s.mu.Lock()
	s.echo = width
	s.mu.Unlock()
}

// SetClimate sets temperature and humidity; NaN simulates a failed sensor.
func (s *SimBoard) SetClimate(temp, hum float64) {
	s.mu.Lock()
	s.temp, s.hum = temp, hum
	s.mu.Unlock()
}

// SetMotion sets the inertial readings.
func (s *SimBoard) SetMotion(accel, gyro model.Vector3) {
	s.mu.Lock()
	s.accel, s.gyro = accel, gyro
	s.mu.Unlock()
}

// FailIMU makes BeginIMU return err.
func (s *SimBoard) FailIMU(err error) {
	s.mu.Lock()
	s.imuErr = err
	s.mu.Unlock()
}

// FailRead makes ReadPin(pin) return err; nil clears it.
func (s *SimBoard) FailRead(pin int, err error) {
	s.mu.Lock()
	if err == nil {
		delete(s.readErrs, pin)
	} else {
		s.readErrs[pin] = err
	}
	s.mu.Unlock()
}

// FailPing makes Ping return err; nil clears it.
func (s *SimBoard) FailPing(err error) {
	s.mu.Lock()
	s.pingErr = err
	s.mu.Unlock()
}

// Animate drifts the simulated environment every interval until stop is closed.
// pir is toggled occasionally; echo wanders between 300 µs and 1500 µs.
func (s *SimBoard) Animate(stop <-chan struct{}, interval time.Duration, pir int) {
	log.Printf("[sim] animation started (every %s)", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			log.Printf("[sim] animation stopped")
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		s.temp += (rand.Float64() - 0.5) * 0.2
		s.hum += (rand.Float64() - 0.5) * 0.5
		s.echo = time.Duration(300+rand.Intn(1200)) * time.Microsecond
		s.accel = model.Vector3{
			X: (rand.Float64() - 0.5) * 0.2,
			Y: (rand.Float64() - 0.5) * 0.2,
			Z: 9.81 + (rand.Float64()-0.5)*0.1,
		}
		s.gyro = model.Vector3{Z: (rand.Float64() - 0.5) * 0.05}
		if rand.Intn(10) == 0 {
			s.levels[pir] ^= model.High
		}
		s.mu.Unlock()
	}
}
