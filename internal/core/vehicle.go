package core

import (
	"fmt"
	"sync"

	"RoverCore/internal/device"
	"RoverCore/internal/drive"
	"RoverCore/internal/mode"
	"RoverCore/internal/model"
	"RoverCore/internal/sensor"
	"RoverCore/internal/util"
)

// Vehicle owns the sensor reader, motor driver and mode arbiter of one rover.
// Every operation runs under a single lock, so a sensor pass or an actuation
// completes before the next request touches the hardware.
type Vehicle struct {
	ID string

	mu      sync.Mutex
	reader  *sensor.Reader
	driver  *drive.Driver
	arbiter *mode.Arbiter
}

// NewVehicle builds a Vehicle on board using the wiring and tuning in cfg.
func NewVehicle(cfg *model.Config, board device.Board) (*Vehicle, error) {
	table, err := drive.TableFromConfig(cfg.Drive)
	if err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", cfg.Global.ID, err)
	}
	return &Vehicle{
		ID:      cfg.Global.ID,
		reader:  sensor.NewReader(board, cfg.Pins, cfg.Sensors),
		driver:  drive.NewDriver(board, cfg.Pins.Motors, table),
		arbiter: mode.NewArbiter(),
	}, nil
}

// Init stops the motors, then starts the sensors. A sensor failure wraps sensor.ErrSensorInit.
func (v *Vehicle) Init() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.driver.Init(); err != nil {
		return fmt.Errorf("vehicle %s: %w", v.ID, err)
	}
	if err := v.reader.Init(); err != nil {
		return fmt.Errorf("vehicle %s: %w", v.ID, err)
	}
	util.Info("[vehicle %s] ready (mode %s, motors stopped)", v.ID, v.arbiter.Mode())
	return nil
}

// Telemetry captures a fresh snapshot including the current mode. It changes no state.
func (v *Vehicle) Telemetry() model.SensorSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.reader.Snapshot()
	s.Mode = v.arbiter.Mode()
	return s
}

// Drive applies cmd regardless of mode; the latest command wins.
func (v *Vehicle) Drive(cmd model.DriveCommand) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	util.Info("[vehicle %s] drive %s (mode %s)", v.ID, cmd, v.arbiter.Mode())
	return v.driver.Apply(cmd)
}

// EnableAutonomous sets the autonomous flag. Motors are not touched.
func (v *Vehicle) EnableAutonomous() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.arbiter.EnableAutonomous()
}

// DisableAutonomous clears the autonomous flag. Motors are not touched.
func (v *Vehicle) DisableAutonomous() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.arbiter.DisableAutonomous()
}

// IsAutonomous reports the autonomous flag.
func (v *Vehicle) IsAutonomous() bool {
	return v.arbiter.IsAutonomous()
}

// Outputs reports the last levels written to the motor inputs.
func (v *Vehicle) Outputs() [4]model.Level {
	return v.driver.Outputs()
}
