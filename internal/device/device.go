// Package device defines the line transports and I/O boards the rover talks to.
// A Device moves text lines (serial port, in-memory pipe); a Board exposes
// digital lines and sensor primitives (MCU bridge, simulator).
package device

import (
	"errors"
	"time"

	"RoverCore/internal/model"
)

var (
	// ErrTimeout is returned by ReadLine when no line arrived in time.
	ErrTimeout = errors.New("read timeout")
	// ErrClosed is returned by operations on a closed device or board.
	ErrClosed = errors.New("device closed")
)

// Device defines an abstract interface for line-based communication devices.
type Device interface {
	// ReadLine reads a single line without its terminator.
	// If timeout > 0, it must return ErrTimeout after timeout even if no data available.
	ReadLine(timeout time.Duration) (string, error)

	// WriteLine writes s followed by '\n' to the device.
	WriteLine(s string) error

	// Close closes the device and releases underlying resources.
	Close() error
}

// Board is the I/O surface used by the sensor reader and the motor driver.
type Board interface {
	SetPinMode(pin int, mode model.PinMode) error
	WritePin(pin int, level model.Level) error
	ReadPin(pin int) (model.Level, error)

	// Ping emits a trigger pulse on trig and measures the echo pulse on echo.
	// It returns 0 when no echo was seen within timeout.
	Ping(trig, echo int, timeout time.Duration) (time.Duration, error)

	// ReadClimate returns temperature (°C) and relative humidity (%).
	ReadClimate(pin int) (temp, hum float64, err error)

	BeginIMU(addr int) error
	// ReadIMU returns acceleration (m/s²) and angular rate (rad/s).
	ReadIMU() (accel, gyro model.Vector3, err error)

	Close() error
}
