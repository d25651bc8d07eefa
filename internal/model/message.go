// Package model defines shared message structures for the rover.
package model

import (
	"fmt"
	"strings"
)

// Level is a digital line level.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// PinMode is the direction of an I/O line.
type PinMode string

const (
	Output      PinMode = "OUT"
	Input       PinMode = "IN"
	InputPullUp PinMode = "IN_PULLUP"
)

// OperatingMode distinguishes manual remote control from autonomous navigation.
type OperatingMode int

const (
	Manual OperatingMode = iota
	Autonomous
)

func (m OperatingMode) String() string {
	if m == Autonomous {
		return "autonomous"
	}
	return "manual"
}

// DriveCommand is a discrete movement command.
type DriveCommand string

const (
	Forward  DriveCommand = "forward"
	Backward DriveCommand = "backward"
	Left     DriveCommand = "left"
	Right    DriveCommand = "right"
	Stop     DriveCommand = "stop"
)

// AllDriveCommands returns every drive command in a stable order.
func AllDriveCommands() []DriveCommand {
	return []DriveCommand{Forward, Backward, Left, Right, Stop}
}

// ParseDriveCommand converts a command name into a DriveCommand.
func ParseDriveCommand(s string) (DriveCommand, error) {
	cmd := DriveCommand(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range AllDriveCommands() {
		if c == cmd {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown drive command %q", s)
}

// Vector3 is a 3-axis reading.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// SensorSnapshot is one synchronous capture of every sensor plus the current mode.
type SensorSnapshot struct {
	Distance    float64 // cm, capped at the configured maximum
	Obstacle    bool    // IR
	Motion      bool    // PIR
	Temperature float64 // °C, NaN on a failed read
	Humidity    float64 // %, NaN on a failed read
	Flame       bool
	Accel       Vector3 // m/s²
	Gyro        Vector3 // rad/s
	Mode        OperatingMode
}
