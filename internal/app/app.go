// Package app implements the command and telemetry HTTP interface of the rover.
package app

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"RoverCore/internal/model"
	"RoverCore/internal/util"
)

//go:embed templates/*.html
var templateFS embed.FS

// Controller is the vehicle surface the interface drives.
type Controller interface {
	Telemetry() model.SensorSnapshot
	Drive(cmd model.DriveCommand) error
	EnableAutonomous()
	DisableAutonomous()
}

type App struct {
	Ctrl   Controller
	Tmpl   *template.Template
	Mux    *http.ServeMux
	Server *http.Server
	Stream *Streamer

	mu   sync.Mutex
	ln   net.Listener
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewApp initializes the web app with templates, the telemetry stream and routes.
func NewApp(ctrl Controller, streamInterval time.Duration) (*App, error) {
	if ctrl == nil {
		return nil, errors.New("[app] nil controller")
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("[app] failed to load templates: %w", err)
	}

	app := &App{
		Ctrl:   ctrl,
		Tmpl:   tmpl,
		Mux:    http.NewServeMux(),
		Stream: NewStreamer(ctrl, streamInterval),
		stop:   make(chan struct{}),
	}
	app.registerRoutes()
	return app, nil
}

// Handler returns the routed mux wrapped in request logging.
func (a *App) Handler() http.Handler {
	return logRequests(a.Mux)
}

// Listen binds addr, retrying every retry until it succeeds or ctx ends.
// The interval is fixed; there is no backoff.
func (a *App) Listen(ctx context.Context, addr string, retry time.Duration) error {
	addr = normalizeAddr(addr)
	for attempt := 1; ; attempt++ {
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			a.mu.Lock()
			a.ln = ln
			a.mu.Unlock()
			log.Printf("[app] listening at http://%s", ln.Addr())
			return nil
		}
		log.Printf("[app] bind %s failed (attempt %d): %v", addr, attempt, err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("[app] network join aborted: %w", ctx.Err())
		case <-time.After(retry):
		}
	}
}

// Start binds addr (see Listen), then serves and streams in the background.
func (a *App) Start(ctx context.Context, addr string, retry time.Duration) error {
	if err := a.Listen(ctx, addr, retry); err != nil {
		return err
	}

	a.mu.Lock()
	ln := a.ln
	a.Server = &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := a.Server
	a.mu.Unlock()

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.Error("[app] HTTP server error: %v", err)
		}
	}()
	go func() {
		defer a.wg.Done()
		a.Stream.Run(a.stop)
	}()
	return nil
}

// Addr returns the bound listener address, or "" before Listen.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln == nil {
		return ""
	}
	return a.ln.Addr().String()
}

// Stop gracefully stops the web server and the telemetry stream.
func (a *App) Stop() {
	if a == nil {
		return
	}
	a.mu.Lock()
	srv := a.Server
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}
	a.mu.Unlock()

	if srv != nil {
		log.Println("[app] Shutting down web server...")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.Error("[app] HTTP server shutdown error: %v", err)
		} else {
			log.Println("[app] Web server stopped cleanly")
		}
	}
	a.Stream.CloseAll()
	a.wg.Wait()
}

// normalizeAddr strips a URL scheme and turns a bare port ("8080") into ":8080".
// Anything else is returned as is, so net.Listen reports a missing port.
func normalizeAddr(addr string) string {
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	if _, err := strconv.Atoi(addr); err == nil {
		addr = ":" + addr
	}
	return addr
}
