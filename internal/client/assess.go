package client

import (
	"fmt"
	"math"

	"RoverCore/internal/model"
)

const gravity = 9.81

// Severity of an Alert.
type Severity int

const (
	Notice Severity = iota
	Warning
	Critical
)

func (s Severity) String() string {
	switch s {
	case Critical:
		return "CRITICAL"
	case Warning:
		return "WARNING"
	default:
		return "NOTICE"
	}
}

// Alert is one host-side finding about a snapshot.
type Alert struct {
	Severity Severity
	Message  string
	// Stop is set when the host should stop the rover.
	Stop bool
}

// Limits are the host-side safety thresholds. The rover itself never validates readings.
type Limits struct {
	TempMin      float64 // °C
	TempMax      float64 // °C
	HumidityMax  float64 // %
	MaxAccel     float64 // m/s², deviation of the total magnitude from gravity
	MaxTilt      float64 // degrees
	UpsideDownZ  float64 // m/s², accel Z below this means inverted
	SafeDistance float64 // cm
}

// DefaultLimits returns the thresholds used by the console.
func DefaultLimits() Limits {
	return Limits{
		TempMin:      15,
		TempMax:      35,
		HumidityMax:  80,
		MaxAccel:     2.0,
		MaxTilt:      45,
		UpsideDownZ:  -5,
		SafeDistance: 15,
	}
}

// Assess checks a snapshot against l. Missing (NaN) climate readings are reported, not compared.
func Assess(s model.SensorSnapshot, l Limits) []Alert {
	var alerts []Alert

	if s.Flame {
		alerts = append(alerts, Alert{Critical, "flame detected", true})
	}
	if s.Accel.Z < l.UpsideDownZ {
		alerts = append(alerts, Alert{Warning, "vehicle may be upside down", true})
	}

	switch {
	case math.IsNaN(s.Temperature):
		alerts = append(alerts, Alert{Notice, "temperature unavailable", false})
	case s.Temperature < l.TempMin || s.Temperature > l.TempMax:
		alerts = append(alerts, Alert{Warning, fmt.Sprintf("abnormal temperature %.1f °C", s.Temperature), false})
	}
	switch {
	case math.IsNaN(s.Humidity):
		alerts = append(alerts, Alert{Notice, "humidity unavailable", false})
	case s.Humidity > l.HumidityMax:
		alerts = append(alerts, Alert{Warning, fmt.Sprintf("abnormal humidity %.1f %%", s.Humidity), false})
	}

	if tilt := math.Atan2(s.Accel.X, s.Accel.Z) * 180 / math.Pi; math.Abs(tilt) > l.MaxTilt {
		alerts = append(alerts, Alert{Warning, fmt.Sprintf("dangerous tilt %.1f°", tilt), false})
	}
	a := s.Accel
	if mag := math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z); math.Abs(mag-gravity) > l.MaxAccel {
		alerts = append(alerts, Alert{Notice, fmt.Sprintf("high acceleration %.2f m/s²", mag), false})
	}

	if s.Motion {
		alerts = append(alerts, Alert{Notice, "motion detected", false})
	}
	if s.Distance < l.SafeDistance {
		alerts = append(alerts, Alert{Notice, fmt.Sprintf("obstacle at %.1f cm", s.Distance), false})
	} else if s.Obstacle {
		alerts = append(alerts, Alert{Notice, "IR obstacle", false})
	}
	return alerts
}

// ShouldStop reports whether any alert asks the host to stop the rover.
func ShouldStop(alerts []Alert) bool {
	for _, a := range alerts {
		if a.Stop {
			return true
		}
	}
	return false
}
