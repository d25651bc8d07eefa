package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"RoverCore/internal/model"
	"RoverCore/internal/sensor"
)

func testConfig(kind string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.Board.Kind = kind
	cfg.Global.HTTPAddr = "127.0.0.1:0"
	cfg.Global.NetworkRetryMs = 10
	cfg.Stream.IntervalMs = 20
	return cfg
}

func startSystem(t *testing.T, kind string) *System {
	t.Helper()
	s, err := NewSystemFromConfig(testConfig(kind))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.StopAll)
	return s
}

func getData(t *testing.T, client *http.Client, base string) model.TelemetryRecord {
	t.Helper()
	resp, err := client.Get(base + "/data")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var rec model.TelemetryRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestForwardStopDataScenario(t *testing.T) {
	s := startSystem(t, model.BoardSim)
	base := "http://" + s.App.Addr()
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	motors := s.cfg.Pins.Motors

	resp, err := client.Get(base + "/forward")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("forward status = %d", resp.StatusCode)
	}
	want := [4]model.Level{model.Low, model.High, model.Low, model.High}
	for i, p := range motors {
		if s.Sim.Level(p) != want[i] {
			t.Fatalf("after forward IN%d = %v", i+1, s.Sim.Level(p))
		}
	}

	resp, err = client.Get(base + "/stop")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	for _, p := range motors {
		if s.Sim.Level(p) != model.Low {
			t.Fatalf("after stop pin %d still high", p)
		}
	}

	s.Sim.SetEcho(1176 * time.Microsecond)
	rec := getData(t, client, base)
	if rec.Distance < 19.99 || rec.Distance > 20.0 {
		t.Fatalf("distance = %v", rec.Distance)
	}
	if rec.Autonomous != model.Disabled {
		t.Fatalf("autonomous = %q", rec.Autonomous)
	}
	if s.Vehicle.Outputs() != ([4]model.Level{}) {
		t.Fatal("telemetry changed motor outputs")
	}
}

func TestModeDoesNotBlockManualDrive(t *testing.T) {
	s := startSystem(t, model.BoardSim)
	s.Vehicle.EnableAutonomous()
	if err := s.Vehicle.Drive(model.Right); err != nil {
		t.Fatal(err)
	}
	if s.Vehicle.Outputs() != [4]model.Level{model.High, model.Low, model.Low, model.High} {
		t.Fatalf("outputs = %v", s.Vehicle.Outputs())
	}
	if !s.Vehicle.IsAutonomous() {
		t.Fatal("drive changed the mode")
	}
	if s.Vehicle.Telemetry().Mode != model.Autonomous {
		t.Fatal("snapshot mode not autonomous")
	}
}

func TestIMUFailureHaltsStartup(t *testing.T) {
	s, err := NewSystemFromConfig(testConfig(model.BoardSim))
	if err != nil {
		t.Fatal(err)
	}
	defer s.StopAll()
	s.Sim.FailIMU(errors.New("no device"))

	err = s.StartAll(context.Background())
	if !errors.Is(err, sensor.ErrSensorInit) {
		t.Fatalf("StartAll err = %v, want ErrSensorInit", err)
	}
	if s.App.Addr() != "" {
		t.Fatal("interface bound despite sensor failure")
	}
	for _, p := range s.cfg.Pins.Motors {
		if s.Sim.Level(p) != model.Low {
			t.Fatal("motors not stopped before sensor init")
		}
	}
}

func TestEmulatedBoard(t *testing.T) {
	s := startSystem(t, model.BoardEmulated)
	if err := s.Vehicle.Drive(model.Backward); err != nil {
		t.Fatal(err)
	}
	want := [4]model.Level{model.High, model.Low, model.High, model.Low}
	for i, p := range s.cfg.Pins.Motors {
		if s.Sim.Level(p) != want[i] {
			t.Fatalf("IN%d = %v over emulated bridge", i+1, s.Sim.Level(p))
		}
	}
	s.Sim.SetLevel(s.cfg.Pins.Flame, model.Low)
	if !s.Vehicle.Telemetry().Flame {
		t.Fatal("flame not reported over emulated bridge")
	}
}

func TestStartAllCancelledJoin(t *testing.T) {
	first := startSystem(t, model.BoardSim)

	cfg := testConfig(model.BoardSim)
	cfg.Global.HTTPAddr = first.App.Addr()
	s, err := NewSystemFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := s.StartAll(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("StartAll on busy address err = %v", err)
	}
}

func TestStopAllIdempotent(t *testing.T) {
	s := startSystem(t, model.BoardSim)
	s.StopAll()
	s.StopAll()
	if err := s.StartAll(context.Background()); err == nil {
		t.Fatal("restart after stop succeeded")
	}
}
