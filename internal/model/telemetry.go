package model

import (
	"fmt"
	"math"
	"strconv"
)

// Telemetry field texts.
const (
	ObjectDetected = "Object Detected"
	Clear          = "Clear"
	MotionDetected = "Motion Detected"
	NoMotion       = "No Motion"
	FlameDetected  = "Flame Detected"
	NoFlame        = "No Flame"
	Enabled        = "ENABLED"
	Disabled       = "DISABLED"
)

// Reading is an environmental value that is reported as-is.
// Non-finite values have no JSON literal and are encoded as null.
type Reading float64

// MarshalJSON implements json.Marshaler.
func (r Reading) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN.
func (r *Reading) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Reading(math.NaN())
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("reading: %w", err)
	}
	*r = Reading(f)
	return nil
}

// TelemetryRecord is the flat wire form of a SensorSnapshot served at /data.
type TelemetryRecord struct {
	Distance    float64 `json:"distance"`
	IR          string  `json:"ir"`
	Motion      string  `json:"motion"`
	Temperature Reading `json:"temperature"`
	Humidity    Reading `json:"humidity"`
	Flame       string  `json:"flame"`
	Accel       string  `json:"accel"`
	Gyro        string  `json:"gyro"`
	Autonomous  string  `json:"autonomous"`
}

// NewTelemetryRecord converts a snapshot to its wire record.
func NewTelemetryRecord(s SensorSnapshot) TelemetryRecord {
	rec := TelemetryRecord{
		Distance:    s.Distance,
		IR:          pick(s.Obstacle, ObjectDetected, Clear),
		Motion:      pick(s.Motion, MotionDetected, NoMotion),
		Temperature: Reading(s.Temperature),
		Humidity:    Reading(s.Humidity),
		Flame:       pick(s.Flame, FlameDetected, NoFlame),
		Accel:       FormatVector(s.Accel),
		Gyro:        FormatVector(s.Gyro),
		Autonomous:  pick(s.Mode == Autonomous, Enabled, Disabled),
	}
	return rec
}

// FormatVector renders a vector as "X=.. Y=.. Z=.." with two decimals.
func FormatVector(v Vector3) string {
	return fmt.Sprintf("X=%.2f Y=%.2f Z=%.2f", v.X, v.Y, v.Z)
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
