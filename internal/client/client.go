// Package client talks to a rover's HTTP interface from a host machine.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"RoverCore/internal/model"
	"RoverCore/internal/parser"
)

// Client is a thin wrapper over the rover's GET endpoints.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a Client for addr ("host:port" or a full URL).
func New(addr string, timeout time.Duration) *Client {
	base := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{BaseURL: base, HTTP: &http.Client{Timeout: timeout}}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return body, nil
}

// Telemetry fetches /data and converts it back to a snapshot.
func (c *Client) Telemetry(ctx context.Context) (model.SensorSnapshot, error) {
	body, err := c.get(ctx, "/data")
	if err != nil {
		return model.SensorSnapshot{}, err
	}
	rec, err := parser.ParseTelemetry(body)
	if err != nil {
		return model.SensorSnapshot{}, err
	}
	return parser.RecordToSnapshot(rec)
}

// Drive issues one movement command. The redirect to the dashboard is followed.
func (c *Client) Drive(ctx context.Context, cmd model.DriveCommand) error {
	_, err := c.get(ctx, "/"+string(cmd))
	return err
}

// SetAutonomous enables or disables autonomous mode.
func (c *Client) SetAutonomous(ctx context.Context, on bool) error {
	path := "/disableAuto"
	if on {
		path = "/enableAuto"
	}
	_, err := c.get(ctx, path)
	return err
}
