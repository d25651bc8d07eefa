// Package uplink publishes rover telemetry to an MQTT broker and accepts
// movement and mode commands from it, for autonomous hosts that prefer a
// broker over polling the HTTP interface.
package uplink

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"RoverCore/internal/model"
	"RoverCore/internal/util"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Mode command payloads, matching the HTTP paths.
const (
	CmdEnableAuto  = "enableAuto"
	CmdDisableAuto = "disableAuto"
)

// Controller is the vehicle surface the uplink drives.
type Controller interface {
	Telemetry() model.SensorSnapshot
	Drive(cmd model.DriveCommand) error
	EnableAutonomous()
	DisableAutonomous()
}

// Uplink owns one MQTT client session.
type Uplink struct {
	cfg  model.MQTTConfig
	id   string
	ctrl Controller

	mu     sync.Mutex
	client mqtt.Client
	stop   chan struct{}
	wg     sync.WaitGroup
}

// New creates an Uplink for vehicle id. Nothing connects until Start.
func New(cfg model.MQTTConfig, id string, ctrl Controller) *Uplink {
	return &Uplink{cfg: cfg, id: id, ctrl: ctrl, stop: make(chan struct{})}
}

// TelemetryTopic is where TelemetryRecord JSON is published.
func (u *Uplink) TelemetryTopic() string {
	return fmt.Sprintf("%s/%s/telemetry", u.cfg.TopicPrefix, u.id)
}

// CommandTopic is subscribed for command payloads.
func (u *Uplink) CommandTopic() string {
	return fmt.Sprintf("%s/%s/command", u.cfg.TopicPrefix, u.id)
}

func (u *Uplink) options() *mqtt.ClientOptions {
	retry := time.Duration(u.cfg.RetryMs) * time.Millisecond
	opts := mqtt.NewClientOptions()
	opts.AddBroker(u.cfg.Broker)
	opts.SetClientID(u.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(retry)
	opts.SetConnectTimeout(retry)
	opts.OnConnect = func(c mqtt.Client) {
		log.Printf("[uplink] connected to %s", u.cfg.Broker)
		// Subscriptions do not survive a clean-session reconnect.
		if err := u.subscribe(c, retry); err != nil {
			util.Error("[uplink] %v", err)
			return
		}
		log.Printf("[uplink] subscribed to %s", u.CommandTopic())
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("[uplink] connection lost: %v", err)
	}
	return opts
}

// Start connects in the background, retrying at a fixed interval without backoff, and then
// publishes telemetry every PublishIntervalMs until Stop.
func (u *Uplink) Start() {
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		client, ok := u.connect()
		if !ok {
			return
		}
		u.mu.Lock()
		u.client = client
		u.mu.Unlock()
		u.publishLoop(client)
	}()
}

func (u *Uplink) connect() (mqtt.Client, bool) {
	retry := time.Duration(u.cfg.RetryMs) * time.Millisecond
	client := mqtt.NewClient(u.options())
	for {
		token := client.Connect()
		select {
		case <-token.Done():
		case <-u.stop:
			client.Disconnect(0)
			return nil, false
		}
		if token.Error() == nil {
			return client, true
		}
		log.Printf("[uplink] failed to connect to %s: %v. Retrying in %s", u.cfg.Broker, token.Error(), retry)
		select {
		case <-u.stop:
			return nil, false
		case <-time.After(retry):
		}
	}
}

func (u *Uplink) publishLoop(client mqtt.Client) {
	ticker := time.NewTicker(time.Duration(u.cfg.PublishIntervalMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-u.stop:
			return
		case <-ticker.C:
		}
		if !client.IsConnectionOpen() {
			continue
		}
		payload, err := u.Payload()
		if err != nil {
			log.Printf("[uplink] encode telemetry: %v", err)
			continue
		}
		token := client.Publish(u.TelemetryTopic(), 0, false, payload)
		if token.WaitTimeout(time.Second) && token.Error() != nil {
			util.Error("[uplink] publish failed: %v", token.Error())
		}
	}
}

// subscribe registers onCommand for the command topic and waits up to wait for the ack.
func (u *Uplink) subscribe(c mqtt.Client, wait time.Duration) error {
	token := c.Subscribe(u.CommandTopic(), 1, u.onCommand)
	if !token.WaitTimeout(wait) {
		return fmt.Errorf("subscribe %s: no ack after %s", u.CommandTopic(), wait)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", u.CommandTopic(), err)
	}
	return nil
}

// onCommand handles one command message. Delivery is ordered (paho default),
// so commands reach the vehicle in publish order.
func (u *Uplink) onCommand(_ mqtt.Client, msg mqtt.Message) {
	if err := u.Dispatch(msg.Payload()); err != nil {
		log.Printf("[uplink] command ignored: %v", err)
	}
}

// Payload builds the telemetry message from a fresh snapshot.
func (u *Uplink) Payload() ([]byte, error) {
	return json.Marshal(model.NewTelemetryRecord(u.ctrl.Telemetry()))
}

// Dispatch applies one command payload: a movement name, enableAuto or disableAuto.
func (u *Uplink) Dispatch(payload []byte) error {
	text := strings.TrimSpace(string(payload))
	switch text {
	case CmdEnableAuto:
		u.ctrl.EnableAutonomous()
		return nil
	case CmdDisableAuto:
		u.ctrl.DisableAutonomous()
		return nil
	}
	cmd, err := model.ParseDriveCommand(text)
	if err != nil {
		return err
	}
	if err := u.ctrl.Drive(cmd); err != nil {
		log.Printf("[uplink] drive %s: %v", cmd, err)
	}
	return nil
}

// Stop ends publishing and disconnects.
func (u *Uplink) Stop() {
	u.mu.Lock()
	select {
	case <-u.stop:
		u.mu.Unlock()
		return
	default:
		close(u.stop)
	}
	u.mu.Unlock()

	u.wg.Wait()
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.client != nil {
		u.client.Disconnect(250)
		log.Printf("[uplink] disconnected")
	}
}
