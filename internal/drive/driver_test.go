package drive

import (
	"errors"
	"strings"
	"testing"

	"RoverCore/internal/device"
	"RoverCore/internal/model"
)

var motorPins = [4]int{26, 27, 14, 12}

func newTestDriver(t *testing.T) (*Driver, *device.SimBoard) {
	t.Helper()
	sim := device.NewSimBoard()
	d := NewDriver(sim, motorPins, nil)
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return d, sim
}

func boardLevels(sim *device.SimBoard) [4]model.Level {
	var out [4]model.Level
	for i, p := range motorPins {
		out[i] = sim.Level(p)
	}
	return out
}

func TestTruthTable(t *testing.T) {
	L, H := model.Low, model.High
	want := map[model.DriveCommand][4]model.Level{
		model.Forward:  {L, H, L, H},
		model.Backward: {H, L, H, L},
		model.Left:     {L, H, H, L},
		model.Right:    {H, L, L, H},
		model.Stop:     {L, L, L, L},
	}
	d, sim := newTestDriver(t)
	for cmd, levels := range want {
		t.Run(string(cmd), func(t *testing.T) {
			if err := d.Apply(cmd); err != nil {
				t.Fatal(err)
			}
			if got := boardLevels(sim); got != levels {
				t.Fatalf("board = %v, want %v", got, levels)
			}
			if d.Outputs() != levels {
				t.Fatalf("Outputs() = %v, want %v", d.Outputs(), levels)
			}
		})
	}
}

func TestInitStops(t *testing.T) {
	d, sim := newTestDriver(t)
	if boardLevels(sim) != ([4]model.Level{}) || d.Last() != model.Stop {
		t.Fatalf("after Init outputs = %v, last = %s", boardLevels(sim), d.Last())
	}
}

func TestStopFromAnyState(t *testing.T) {
	for _, cmd := range model.AllDriveCommands() {
		d, sim := newTestDriver(t)
		_ = d.Apply(cmd)
		_ = d.Apply(model.Stop)
		if boardLevels(sim) != ([4]model.Level{}) {
			t.Fatalf("stop after %s left %v", cmd, boardLevels(sim))
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	d, sim := newTestDriver(t)
	_ = d.Apply(model.Left)
	once := boardLevels(sim)
	_ = d.Apply(model.Left)
	_ = d.Apply(model.Left)
	if boardLevels(sim) != once {
		t.Fatalf("repeated left changed outputs: %v vs %v", boardLevels(sim), once)
	}
}

func TestFullOverwrite(t *testing.T) {
	d, sim := newTestDriver(t)
	_ = d.Apply(model.Forward)
	_ = d.Apply(model.Backward)
	if got := boardLevels(sim); got != DefaultTruthTable()[model.Backward] {
		t.Fatalf("forward then backward = %v", got)
	}
}

func TestApplyUnknown(t *testing.T) {
	d, _ := newTestDriver(t)
	if err := d.Apply("jump"); err == nil {
		t.Fatal("Apply accepted unknown command")
	}
}

// failingBoard rejects writes to one pin.
type failingBoard struct {
	*device.SimBoard
	bad int
}

func (f failingBoard) WritePin(pin int, l model.Level) error {
	if pin == f.bad {
		return errors.New("driver fault")
	}
	return f.SimBoard.WritePin(pin, l)
}

func TestApplyWritesRemainingPinsOnError(t *testing.T) {
	sim := device.NewSimBoard()
	fb := failingBoard{SimBoard: sim, bad: motorPins[1]}
	d := NewDriver(fb, motorPins, nil)
	err := d.Init()
	if err == nil || !strings.Contains(err.Error(), "IN2") {
		t.Fatalf("Init err = %v", err)
	}
	err = d.Apply(model.Right)
	if err == nil {
		t.Fatal("expected error from faulty pin")
	}
	if sim.Level(motorPins[0]) != model.High || sim.Level(motorPins[3]) != model.High {
		t.Fatal("healthy pins were not written")
	}
}

func TestTableFromConfig(t *testing.T) {
	tbl, err := TableFromConfig(model.DriveConfig{TruthTable: map[string][4]int{
		"forward": {1, 0, 1, 0},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if tbl[model.Forward] != [4]model.Level{model.High, model.Low, model.High, model.Low} {
		t.Fatalf("forward override = %v", tbl[model.Forward])
	}
	if tbl[model.Left] != DefaultTruthTable()[model.Left] {
		t.Fatal("unset rows must keep defaults")
	}

	if _, err := TableFromConfig(model.DriveConfig{TruthTable: map[string][4]int{"stop": {0, 1, 0, 0}}}); err == nil {
		t.Fatal("non-zero stop row accepted")
	}
	if _, err := TableFromConfig(model.DriveConfig{TruthTable: map[string][4]int{"spin": {0, 0, 0, 0}}}); err == nil {
		t.Fatal("unknown command accepted")
	}
	if _, err := TableFromConfig(model.DriveConfig{TruthTable: map[string][4]int{"left": {2, 0, 0, 0}}}); err == nil {
		t.Fatal("level 2 accepted")
	}
}

func TestValidateMissingRow(t *testing.T) {
	tbl := DefaultTruthTable()
	delete(tbl, model.Right)
	if err := tbl.Validate(); err == nil {
		t.Fatal("missing row accepted")
	}
}
