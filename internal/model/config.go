// Package model defines shared configuration structures used to initialize the rover.
// It includes global settings, board wiring, sensor tuning, drive mapping and uplink options.
package model

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Board kinds understood by the system.
const (
	BoardBridge   = "bridge"   // MCU I/O bridge over a serial port
	BoardSim      = "sim"      // in-memory simulated board
	BoardEmulated = "emulated" // bridge protocol against an in-process emulator
)

// Config represents the root structure loaded from configs/config.yml.
type Config struct {
	Global  GlobalConfig `yaml:"global"`
	Board   BoardConfig  `yaml:"board"`
	Pins    PinConfig    `yaml:"pins"`
	Sensors SensorConfig `yaml:"sensors"`
	Drive   DriveConfig  `yaml:"drive"`
	Stream  StreamConfig `yaml:"stream"`
	MQTT    MQTTConfig   `yaml:"mqtt"`
}

// GlobalConfig defines process-wide settings.
type GlobalConfig struct {
	ID             string `yaml:"id"`               // vehicle id, used in MQTT topics
	HTTPAddr       string `yaml:"http_addr"`        // address for the command/telemetry interface (e.g. ":8080")
	LogLevel       string `yaml:"log_level"`        // debug, info, warn, error
	NetworkRetryMs int    `yaml:"network_retry_ms"` // fixed delay between listener bind attempts
}

// BoardConfig selects and configures the I/O backend.
type BoardConfig struct {
	Kind           string `yaml:"kind"`             // bridge, sim or emulated
	Device         string `yaml:"device"`           // serial device of the bridge (e.g. /dev/ttyUSB0)
	Baud           int    `yaml:"baud"`             // serial baud rate
	ReplyTimeoutMs int    `yaml:"reply_timeout_ms"` // max wait for one bridge reply
	Animate        bool   `yaml:"animate"`          // drift simulated readings over time
}

// PinConfig is the fixed mapping from logical roles to physical lines.
type PinConfig struct {
	Trigger int    `yaml:"trigger"`
	Echo    int    `yaml:"echo"`
	IR      int    `yaml:"ir"`
	PIR     int    `yaml:"pir"`
	Flame   int    `yaml:"flame"`
	DHT     int    `yaml:"dht"`
	Motors  [4]int `yaml:"motors"` // IN1, IN2, IN3, IN4
	IMUAddr int    `yaml:"imu_addr"`
}

// SensorConfig holds sensor normalization parameters.
type SensorConfig struct {
	EchoTimeoutUs int     `yaml:"echo_timeout_us"`
	MaxDistance   float64 `yaml:"max_distance"`
	SoundSpeed    float64 `yaml:"sound_speed"` // cm per microsecond
}

// DriveConfig optionally overrides the default truth table.
// Keys are command names, values are IN1..IN4 levels as 0/1.
type DriveConfig struct {
	TruthTable map[string][4]int `yaml:"truth_table"`
}

// StreamConfig controls the websocket telemetry stream.
type StreamConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// MQTTConfig configures the optional MQTT uplink.
type MQTTConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Broker            string `yaml:"broker"` // e.g. tcp://localhost:1883
	ClientID          string `yaml:"client_id"`
	TopicPrefix       string `yaml:"topic_prefix"`
	PublishIntervalMs int    `yaml:"publish_interval_ms"`
	RetryMs           int    `yaml:"retry_ms"`
}

// LoadConfig reads and parses the YAML file at path, applies defaults and validates it.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(b)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfig decodes YAML without applying defaults or validating.
func ParseConfig(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig returns a configuration for a simulated rover with stock wiring.
func DefaultConfig() *Config {
	cfg := &Config{Board: BoardConfig{Kind: BoardSim}}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values with the stock wiring and timings.
func (c *Config) ApplyDefaults() {
	if c.Global.ID == "" {
		c.Global.ID = "rover-01"
	}
	if c.Global.HTTPAddr == "" {
		c.Global.HTTPAddr = ":8080"
	}
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = "info"
	}
	if c.Global.NetworkRetryMs <= 0 {
		c.Global.NetworkRetryMs = 500
	}

	if c.Board.Kind == "" {
		c.Board.Kind = BoardBridge
	}
	if c.Board.Baud == 0 {
		c.Board.Baud = 115200
	}
	if c.Board.ReplyTimeoutMs <= 0 {
		c.Board.ReplyTimeoutMs = 200
	}

	if c.Pins == (PinConfig{}) {
		c.Pins = PinConfig{
			Trigger: 5,
			Echo:    18,
			IR:      34,
			PIR:     35,
			Flame:   32,
			DHT:     4,
			Motors:  [4]int{26, 27, 14, 12},
			IMUAddr: 0x68,
		}
	}
	if c.Pins.IMUAddr == 0 {
		c.Pins.IMUAddr = 0x68
	}

	if c.Sensors.EchoTimeoutUs <= 0 {
		c.Sensors.EchoTimeoutUs = 30000
	}
	if c.Sensors.MaxDistance <= 0 {
		c.Sensors.MaxDistance = 20.0
	}
	if c.Sensors.SoundSpeed <= 0 {
		c.Sensors.SoundSpeed = 0.034
	}

	if c.Stream.IntervalMs <= 0 {
		c.Stream.IntervalMs = 1000
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = c.Global.ID
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "rover"
	}
	if c.MQTT.PublishIntervalMs <= 0 {
		c.MQTT.PublishIntervalMs = 1000
	}
	if c.MQTT.RetryMs <= 0 {
		c.MQTT.RetryMs = 5000
	}
}

// Validate checks the configuration for values the system cannot run with.
func (c *Config) Validate() error {
	if err := validateHTTPAddr(c.Global.HTTPAddr); err != nil {
		return err
	}

	switch c.Board.Kind {
	case BoardBridge:
		if c.Board.Device == "" {
			return errors.New("config: board.device is required for the bridge board")
		}
	case BoardSim, BoardEmulated:
	default:
		return fmt.Errorf("config: unknown board kind %q", c.Board.Kind)
	}

	seen := map[int]string{}
	roles := []struct {
		name string
		pin  int
	}{
		{"trigger", c.Pins.Trigger}, {"echo", c.Pins.Echo}, {"ir", c.Pins.IR},
		{"pir", c.Pins.PIR}, {"flame", c.Pins.Flame}, {"dht", c.Pins.DHT},
		{"in1", c.Pins.Motors[0]}, {"in2", c.Pins.Motors[1]},
		{"in3", c.Pins.Motors[2]}, {"in4", c.Pins.Motors[3]},
	}
	for _, r := range roles {
		if r.pin < 0 {
			return fmt.Errorf("config: pin %s is negative", r.name)
		}
		if other, ok := seen[r.pin]; ok {
			return fmt.Errorf("config: pin %d assigned to both %s and %s", r.pin, other, r.name)
		}
		seen[r.pin] = r.name
	}

	for name, levels := range c.Drive.TruthTable {
		if _, err := ParseDriveCommand(name); err != nil {
			return fmt.Errorf("config: truth table: %w", err)
		}
		for _, l := range levels {
			if l != 0 && l != 1 {
				return fmt.Errorf("config: truth table %s: level %d is not 0 or 1", name, l)
			}
		}
	}
	return nil
}

// validateHTTPAddr accepts a bare port or host:port, optionally behind http://.
func validateHTTPAddr(addr string) error {
	a := strings.TrimPrefix(strings.TrimPrefix(addr, "http://"), "https://")
	if _, err := strconv.Atoi(a); err == nil {
		return nil
	}
	if _, _, err := net.SplitHostPort(a); err != nil {
		return fmt.Errorf("config: global.http_addr %q: %w", addr, err)
	}
	return nil
}

// EchoTimeout returns the distance sensor echo wait as a duration.
func (s SensorConfig) EchoTimeout() time.Duration {
	return time.Duration(s.EchoTimeoutUs) * time.Microsecond
}
