// Package sensor samples the rover's sensors into a SensorSnapshot.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"time"

	"RoverCore/internal/device"
	"RoverCore/internal/model"
	"RoverCore/internal/util"
)

// ErrSensorInit reports that a required sensor driver could not be started.
var ErrSensorInit = errors.New("sensor init failed")

// Reader polls every sensor on demand. It keeps no state between snapshots.
type Reader struct {
	board device.Board
	pins  model.PinConfig
	cfg   model.SensorConfig
}

// NewReader creates a Reader for the given wiring and tuning.
func NewReader(board device.Board, pins model.PinConfig, cfg model.SensorConfig) *Reader {
	return &Reader{board: board, pins: pins, cfg: cfg}
}

// Init configures the sensor lines and starts the climate and inertial drivers.
// An inertial start failure wraps ErrSensorInit.
func (r *Reader) Init() error {
	modes := []struct {
		pin  int
		mode model.PinMode
	}{
		{r.pins.Trigger, model.Output},
		{r.pins.Echo, model.Input},
		{r.pins.IR, model.InputPullUp},
		{r.pins.PIR, model.Input},
		{r.pins.Flame, model.InputPullUp},
		{r.pins.DHT, model.InputPullUp},
	}
	for _, m := range modes {
		if err := r.board.SetPinMode(m.pin, m.mode); err != nil {
			return fmt.Errorf("%w: pin %d mode %s: %v", ErrSensorInit, m.pin, m.mode, err)
		}
	}
	if err := r.board.WritePin(r.pins.Trigger, model.Low); err != nil {
		return fmt.Errorf("%w: trigger idle: %v", ErrSensorInit, err)
	}
	if err := r.board.BeginIMU(r.pins.IMUAddr); err != nil {
		return fmt.Errorf("%w: imu at 0x%02x: %v", ErrSensorInit, r.pins.IMUAddr, err)
	}
	util.Info("[sensor] initialized (imu at 0x%02x)", r.pins.IMUAddr)
	return nil
}

// Snapshot reads all sensors once, in a fixed order. It never fails:
// failed reads degrade to sentinel, inactive or NaN values.
func (r *Reader) Snapshot() model.SensorSnapshot {
	var s model.SensorSnapshot
	s.Distance = r.Distance()
	s.Obstacle = r.readActive("ir", r.pins.IR, model.Low)
	s.Motion = r.readActive("pir", r.pins.PIR, model.High)
	s.Flame = r.readActive("flame", r.pins.Flame, model.Low)

	temp, hum, err := r.board.ReadClimate(r.pins.DHT)
	if err != nil {
		util.Warn("[sensor] climate read failed: %v", err)
		temp, hum = math.NaN(), math.NaN()
	}
	s.Temperature, s.Humidity = temp, hum

	accel, gyro, err := r.board.ReadIMU()
	if err != nil {
		util.Warn("[sensor] imu read failed: %v", err)
		nan := model.Vector3{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
		accel, gyro = nan, nan
	}
	s.Accel, s.Gyro = accel, gyro
	return s
}

// Distance measures the ultrasonic range in cm, capped at MaxDistance.
// A missing echo reports MaxDistance.
func (r *Reader) Distance() float64 {
	timeout := r.cfg.EchoTimeout()
	width, err := r.board.Ping(r.pins.Trigger, r.pins.Echo, timeout)
	if err != nil {
		util.Warn("[sensor] ping failed: %v", err)
		return r.cfg.MaxDistance
	}
	return r.distanceFromEcho(width, timeout)
}

func (r *Reader) distanceFromEcho(width, timeout time.Duration) float64 {
	if width <= 0 || width >= timeout {
		return r.cfg.MaxDistance
	}
	us := float64(width) / float64(time.Microsecond)
	cm := us * r.cfg.SoundSpeed / 2
	return math.Min(cm, r.cfg.MaxDistance)
}

// readActive reports whether pin is at its active level. A failed read is inactive.
func (r *Reader) readActive(name string, pin int, active model.Level) bool {
	l, err := r.board.ReadPin(pin)
	if err != nil {
		util.Warn("[sensor] %s read failed: %v", name, err)
		return false
	}
	return l == active
}
