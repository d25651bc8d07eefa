package drive

import (
	"errors"
	"fmt"
	"sync"

	"RoverCore/internal/device"
	"RoverCore/internal/model"
	"RoverCore/internal/util"
)

// Driver applies drive commands to the motor direction outputs.
// Every Apply rewrites all four outputs; there is no ramping or speed control.
type Driver struct {
	mu      sync.Mutex
	board   device.Board
	pins    [4]int
	table   TruthTable
	outputs [4]model.Level
	last    model.DriveCommand
}

// NewDriver creates a Driver. A nil table means DefaultTruthTable.
func NewDriver(board device.Board, pins [4]int, table TruthTable) *Driver {
	if table == nil {
		table = DefaultTruthTable()
	}
	return &Driver{board: board, pins: pins, table: table, last: model.Stop}
}

// Init configures the four outputs and stops the motors.
func (d *Driver) Init() error {
	for _, p := range d.pins {
		if err := d.board.SetPinMode(p, model.Output); err != nil {
			return fmt.Errorf("drive: configure pin %d: %w", p, err)
		}
	}
	return d.Apply(model.Stop)
}

// Apply writes the truth-table row for cmd to all four outputs.
// A failed pin write does not skip the others; all failures are joined.
func (d *Driver) Apply(cmd model.DriveCommand) error {
	row, ok := d.table[cmd]
	if !ok {
		return fmt.Errorf("drive: unknown command %q", cmd)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for i, p := range d.pins {
		if err := d.board.WritePin(p, row[i]); err != nil {
			errs = append(errs, fmt.Errorf("IN%d (pin %d): %w", i+1, p, err))
			continue
		}
		d.outputs[i] = row[i]
	}
	d.last = cmd
	util.Debug("[drive] %s -> %v", cmd, row)
	if len(errs) > 0 {
		return fmt.Errorf("drive %s: %w", cmd, errors.Join(errs...))
	}
	return nil
}

// Outputs returns the last levels written to IN1..IN4.
func (d *Driver) Outputs() [4]model.Level {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outputs
}

// Last returns the most recently applied command.
func (d *Driver) Last() model.DriveCommand {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}
