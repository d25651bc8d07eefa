package client

import (
	"context"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"RoverCore/internal/core"
	"RoverCore/internal/model"
)

func newRover(t *testing.T) (*core.System, *Client) {
	t.Helper()
	sys, err := core.NewSystemFromConfig(model.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.Vehicle.Init(); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(sys.App.Handler())
	t.Cleanup(func() {
		srv.Close()
		sys.StopAll()
	})
	return sys, New(srv.URL, 2*time.Second)
}

func TestTelemetryRoundTrip(t *testing.T) {
	sys, c := newRover(t)
	sys.Sim.SetEcho(588 * time.Microsecond)
	sys.Sim.SetClimate(math.NaN(), 44)
	sys.Sim.SetMotion(model.Vector3{X: 0.12, Z: 9.8}, model.Vector3{Z: -0.03})
	sys.Sim.SetLevel(model.DefaultConfig().Pins.PIR, model.High)

	s, err := c.Telemetry(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.Distance-9.996) > 1e-9 {
		t.Errorf("distance = %v", s.Distance)
	}
	if !math.IsNaN(s.Temperature) || s.Humidity != 44 {
		t.Errorf("climate = %v / %v", s.Temperature, s.Humidity)
	}
	if !s.Motion || s.Obstacle || s.Flame {
		t.Errorf("binary sensors = %+v", s)
	}
	if s.Accel != (model.Vector3{X: 0.12, Z: 9.8}) || s.Gyro != (model.Vector3{Z: -0.03}) {
		t.Errorf("imu = %+v %+v", s.Accel, s.Gyro)
	}
	if s.Mode != model.Manual {
		t.Errorf("mode = %v", s.Mode)
	}
}

func TestCommands(t *testing.T) {
	sys, c := newRover(t)
	ctx := context.Background()

	if err := c.Drive(ctx, model.Left); err != nil {
		t.Fatal(err)
	}
	if sys.Vehicle.Outputs() != [4]model.Level{model.Low, model.High, model.High, model.Low} {
		t.Fatalf("outputs = %v", sys.Vehicle.Outputs())
	}
	if err := c.SetAutonomous(ctx, true); err != nil {
		t.Fatal(err)
	}
	s, err := c.Telemetry(ctx)
	if err != nil || s.Mode != model.Autonomous {
		t.Fatalf("mode = %v, %v", s.Mode, err)
	}
	if err := c.SetAutonomous(ctx, false); err != nil {
		t.Fatal(err)
	}
	if sys.Vehicle.IsAutonomous() {
		t.Fatal("still autonomous")
	}
	if err := c.Drive(ctx, "sideways"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("unknown command err = %v", err)
	}
}

func TestNewNormalizesAddr(t *testing.T) {
	if got := New("10.0.0.5:8080/", time.Second).BaseURL; got != "http://10.0.0.5:8080" {
		t.Fatalf("BaseURL = %q", got)
	}
	if got := New("https://rover.local", time.Second).BaseURL; got != "https://rover.local" {
		t.Fatalf("BaseURL = %q", got)
	}
}

func TestAssess(t *testing.T) {
	calm := model.SensorSnapshot{
		Distance: 20, Temperature: 22, Humidity: 45,
		Accel: model.Vector3{Z: 9.81},
	}
	if a := Assess(calm, DefaultLimits()); len(a) != 0 {
		t.Fatalf("calm snapshot alerts: %+v", a)
	}

	fire := calm
	fire.Flame = true
	if a := Assess(fire, DefaultLimits()); !ShouldStop(a) || a[0].Severity != Critical {
		t.Fatalf("flame alerts = %+v", a)
	}

	flipped := calm
	flipped.Accel = model.Vector3{Z: -9.81}
	if !ShouldStop(Assess(flipped, DefaultLimits())) {
		t.Fatal("upside down did not request stop")
	}

	hot := calm
	hot.Temperature = 41
	hot.Humidity = math.NaN()
	a := Assess(hot, DefaultLimits())
	if ShouldStop(a) || len(a) != 2 {
		t.Fatalf("hot alerts = %+v", a)
	}

	tilted := calm
	tilted.Accel = model.Vector3{X: 8, Z: 5}
	found := false
	for _, al := range Assess(tilted, DefaultLimits()) {
		if strings.Contains(al.Message, "tilt") {
			found = true
		}
	}
	if !found {
		t.Fatal("tilt not reported")
	}
}
