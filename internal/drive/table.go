// Package drive switches the four direction inputs of the dual H-bridge.
package drive

import (
	"fmt"

	"RoverCore/internal/model"
)

// TruthTable maps each drive command to the IN1..IN4 output levels.
type TruthTable map[model.DriveCommand][4]model.Level

const (
	lo = model.Low
	hi = model.High
)

// DefaultTruthTable returns the stock wiring: left motor on IN1/IN2, right on IN3/IN4.
func DefaultTruthTable() TruthTable {
	return TruthTable{
		model.Forward:  {lo, hi, lo, hi},
		model.Backward: {hi, lo, hi, lo},
		model.Left:     {lo, hi, hi, lo},
		model.Right:    {hi, lo, lo, hi},
		model.Stop:     {lo, lo, lo, lo},
	}
}

// TableFromConfig overlays configured rows on the default table and validates the result.
func TableFromConfig(cfg model.DriveConfig) (TruthTable, error) {
	t := DefaultTruthTable()
	for name, row := range cfg.TruthTable {
		cmd, err := model.ParseDriveCommand(name)
		if err != nil {
			return nil, err
		}
		var levels [4]model.Level
		for i, v := range row {
			if v != 0 && v != 1 {
				return nil, fmt.Errorf("truth table %s: level %d is not 0 or 1", cmd, v)
			}
			levels[i] = model.Level(v)
		}
		t[cmd] = levels
	}
	return t, t.Validate()
}

// Validate checks that every command has a row and that Stop drives all outputs low.
func (t TruthTable) Validate() error {
	for _, cmd := range model.AllDriveCommands() {
		if _, ok := t[cmd]; !ok {
			return fmt.Errorf("truth table: missing %s", cmd)
		}
	}
	if t[model.Stop] != [4]model.Level{} {
		return fmt.Errorf("truth table: stop must set all outputs low, got %v", t[model.Stop])
	}
	return nil
}
