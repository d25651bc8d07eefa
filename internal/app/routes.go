package app

import "RoverCore/internal/model"

// registerRoutes sets up all HTTP handlers for the application.
// Anything not listed falls through to the mux's 404.
func (a *App) registerRoutes() {
	a.Mux.HandleFunc("GET /{$}", a.handleDashboard)
	a.Mux.HandleFunc("GET /data", a.handleData)
	a.Mux.HandleFunc("GET /ws", a.Stream.handleWS)

	for _, cmd := range model.AllDriveCommands() {
		a.Mux.HandleFunc("GET /"+string(cmd), a.handleDrive(cmd))
	}
	a.Mux.HandleFunc("GET /enableAuto", a.handleEnableAuto)
	a.Mux.HandleFunc("GET /disableAuto", a.handleDisableAuto)
}
