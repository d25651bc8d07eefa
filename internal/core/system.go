// Package core contains the runtime orchestration of the rover: the Vehicle
// that serializes sensor and motor access, and the System that builds the
// board, the vehicle and its interfaces from configuration and runs their lifecycle.
package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"RoverCore/internal/app"
	"RoverCore/internal/device"
	"RoverCore/internal/model"
	"RoverCore/internal/uplink"
	"RoverCore/internal/util"
)

// System manages lifecycle of the rover components.
// It loads configuration from a YAML file and constructs objects accordingly.
type System struct {
	cfg     *model.Config
	Board   device.Board
	Sim     *device.SimBoard // non-nil for sim and emulated boards
	Vehicle *Vehicle
	App     *app.App
	Uplink  *uplink.Uplink

	emulator *device.Emulator
	mcuEnd   *device.PipeEnd

	bg        chan struct{} // closes background helpers (emulator, animation)
	bgOnce    sync.Once
	wg        sync.WaitGroup
	started   bool
	closed    bool
	startLock sync.Mutex
}

// NewSystem reads the YAML configuration at cfgPath and creates a System instance.
func NewSystem(cfgPath string) (*System, error) {
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	return NewSystemFromConfig(cfg)
}

// NewSystemFromConfig opens the configured board and constructs the vehicle,
// the HTTP interface and, when enabled, the MQTT uplink.
func NewSystemFromConfig(cfg *model.Config) (*System, error) {
	s := &System{cfg: cfg, bg: make(chan struct{})}
	if err := s.openBoard(); err != nil {
		return nil, err
	}

	veh, err := NewVehicle(cfg, s.Board)
	if err != nil {
		_ = s.Board.Close()
		return nil, err
	}
	s.Vehicle = veh

	a, err := app.NewApp(veh, time.Duration(cfg.Stream.IntervalMs)*time.Millisecond)
	if err != nil {
		_ = s.Board.Close()
		return nil, err
	}
	s.App = a

	if cfg.MQTT.Enabled {
		s.Uplink = uplink.New(cfg.MQTT, cfg.Global.ID, veh)
	}
	return s, nil
}

func (s *System) openBoard() error {
	bc := s.cfg.Board
	timeout := time.Duration(bc.ReplyTimeoutMs) * time.Millisecond
	switch bc.Kind {
	case model.BoardBridge:
		b, err := device.OpenBridge(bc.Device, bc.Baud, timeout)
		if err != nil {
			return err
		}
		s.Board = b
		log.Printf("[system] bridge board on %s (baud %d)", bc.Device, bc.Baud)
	case model.BoardSim:
		s.Sim = device.NewSimBoard()
		s.Board = s.Sim
		log.Printf("[system] simulated board")
	case model.BoardEmulated:
		s.Sim = device.NewSimBoard()
		host, mcu := device.Pipe()
		s.emulator = device.NewEmulator(s.cfg.Global.ID, s.Sim)
		s.mcuEnd = mcu
		s.Board = device.NewBridgeBoard(host, timeout)
		log.Printf("[system] emulated bridge board")
	default:
		return fmt.Errorf("[system] unknown board kind %q", bc.Kind)
	}
	return nil
}

// StartAll runs the startup sequence: motors stopped, sensors started, network
// joined, then serving. A sensor start failure is returned as is (it wraps
// sensor.ErrSensorInit) and nothing is served. Joining the network blocks,
// retrying at a fixed interval, until it succeeds or ctx ends.
func (s *System) StartAll(ctx context.Context) error {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if s.started {
		return nil
	}
	if s.closed {
		return errors.New("[system] already stopped")
	}

	s.startBackground()

	if err := s.Vehicle.Init(); err != nil {
		return err
	}

	retry := time.Duration(s.cfg.Global.NetworkRetryMs) * time.Millisecond
	if err := s.App.Start(ctx, s.cfg.Global.HTTPAddr, retry); err != nil {
		return err
	}

	if s.Uplink != nil {
		s.Uplink.Start()
	}
	s.started = true
	log.Printf("[system] rover %s serving on %s", s.cfg.Global.ID, s.App.Addr())
	return nil
}

func (s *System) startBackground() {
	s.bgOnce.Do(s.runBackground)
}

func (s *System) runBackground() {
	if s.emulator != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.emulator.Serve(s.mcuEnd, s.bg); err != nil {
				util.Error("[system] emulator stopped: %v", err)
			}
		}()
	}
	if s.Sim != nil && s.cfg.Board.Animate {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.Sim.Animate(s.bg, time.Second, s.cfg.Pins.PIR)
		}()
	}
}

// StopAll stops the motors, shuts down the interfaces and releases the board.
// It is safe to call after a failed StartAll.
func (s *System) StopAll() {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	if s.started {
		if s.Uplink != nil {
			s.Uplink.Stop()
		}
		s.App.Stop()
		if err := s.Vehicle.Drive(model.Stop); err != nil {
			util.Error("[system] stop motors: %v", err)
		}
	}

	close(s.bg)
	if err := s.Board.Close(); err != nil {
		util.Error("[system] close board: %v", err)
	}
	if s.mcuEnd != nil {
		_ = s.mcuEnd.Close()
	}
	s.wg.Wait()
	s.started = false
	log.Printf("[system] stopped")
}
