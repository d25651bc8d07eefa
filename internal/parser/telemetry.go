package parser

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"RoverCore/internal/model"
)

// ParseVector parses the "X=.. Y=.. Z=.." text form produced by model.FormatVector.
func ParseVector(s string) (model.Vector3, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return model.Vector3{}, fmt.Errorf("vector %q: expected 3 components", s)
	}
	var out [3]float64
	for i, axis := range []string{"X", "Y", "Z"} {
		key, val, ok := strings.Cut(fields[i], "=")
		if !ok || key != axis {
			return model.Vector3{}, fmt.Errorf("vector %q: expected %s=", s, axis)
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return model.Vector3{}, fmt.Errorf("vector %q: %w", s, err)
		}
		out[i] = f
	}
	return model.Vector3{X: out[0], Y: out[1], Z: out[2]}, nil
}

// ParseTelemetry decodes a JSON telemetry record.
func ParseTelemetry(data []byte) (model.TelemetryRecord, error) {
	var rec model.TelemetryRecord
	// Absent numeric fields decode as NaN, same as null.
	rec.Temperature = model.Reading(math.NaN())
	rec.Humidity = model.Reading(math.NaN())
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.TelemetryRecord{}, fmt.Errorf("parse telemetry: %w", err)
	}
	return rec, nil
}

// RecordToSnapshot converts a wire record back to a structured snapshot.
func RecordToSnapshot(rec model.TelemetryRecord) (model.SensorSnapshot, error) {
	accel, err := ParseVector(rec.Accel)
	if err != nil {
		return model.SensorSnapshot{}, fmt.Errorf("accel: %w", err)
	}
	gyro, err := ParseVector(rec.Gyro)
	if err != nil {
		return model.SensorSnapshot{}, fmt.Errorf("gyro: %w", err)
	}
	snap := model.SensorSnapshot{
		Distance:    rec.Distance,
		Obstacle:    rec.IR == model.ObjectDetected,
		Motion:      rec.Motion == model.MotionDetected,
		Temperature: float64(rec.Temperature),
		Humidity:    float64(rec.Humidity),
		Flame:       rec.Flame == model.FlameDetected,
		Accel:       accel,
		Gyro:        gyro,
		Mode:        model.Manual,
	}
	if rec.Autonomous == model.Enabled {
		snap.Mode = model.Autonomous
	}
	return snap, nil
}
