// Package main is the entry point of the rover control core.
// It loads the configuration, builds the board, vehicle and interfaces, and
// serves until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"RoverCore/internal/core"
	"RoverCore/internal/model"
	"RoverCore/internal/sensor"
	"RoverCore/internal/util"
)

func main() {
	cfgPath := flag.String("c", "configs/config.yml", "path to configuration file")
	sim := flag.Bool("sim", false, "use the simulated board regardless of the configuration")
	addr := flag.String("addr", "", "override the HTTP listen address")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath, *sim)
	if err != nil {
		log.Fatalf("[Main] failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Global.HTTPAddr = *addr
		if err := cfg.Validate(); err != nil {
			log.Fatalf("[Main] invalid -addr: %v", err)
		}
	}
	util.SetupLogger(cfg.Global.LogLevel)
	log.Printf("[Main] rover %s, board %s", cfg.Global.ID, cfg.Board.Kind)

	sys, err := core.NewSystemFromConfig(cfg)
	if err != nil {
		log.Fatalf("[Main] failed to create system: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sys.StartAll(ctx); err != nil {
		if errors.Is(err, sensor.ErrSensorInit) {
			// Halted: nothing is served until the process is signalled.
			log.Printf("[Main] %v", err)
			log.Printf("[Main] halted; power-cycle or fix the hardware and restart")
			<-ctx.Done()
		} else {
			log.Printf("[Main] failed to start system: %v", err)
		}
		sys.StopAll()
		os.Exit(1)
	}

	// wait for Ctrl+C or SIGTERM
	<-ctx.Done()

	log.Println("[Main] Shutting down system...")
	sys.StopAll()
	log.Println("[Main] System stopped cleanly.")
}

// loadConfig reads path; with sim set, a missing file falls back to defaults.
func loadConfig(path string, sim bool) (*model.Config, error) {
	if sim {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return model.DefaultConfig(), nil
		}
		cfg, err := loadRaw(path)
		if err != nil {
			return nil, err
		}
		cfg.Board.Kind = model.BoardSim
		cfg.ApplyDefaults()
		return cfg, cfg.Validate()
	}
	return model.LoadConfig(path)
}

// loadRaw parses the file without validating it, so -sim can override a bridge
// configuration that lacks a device.
func loadRaw(path string) (*model.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return model.ParseConfig(b)
}
