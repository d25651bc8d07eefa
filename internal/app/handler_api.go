package app

import (
	"encoding/json"
	"log"
	"net/http"

	"RoverCore/internal/model"
)

// handleData serves one fresh telemetry record. It never changes vehicle state.
func (a *App) handleData(w http.ResponseWriter, r *http.Request) {
	rec := model.NewTelemetryRecord(a.Ctrl.Telemetry())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		log.Printf("[app] warning: failed to write telemetry: %v", err)
	}
}

// commandMethod rejects anything but GET on a route with side effects.
// "GET /path" patterns also match HEAD, which must not move the vehicle.
func commandMethod(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return false
}

// handleDrive applies cmd before redirecting back to the dashboard.
// A failed actuation is logged only; there is no feedback to report.
func (a *App) handleDrive(cmd model.DriveCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !commandMethod(w, r) {
			return
		}
		if err := a.Ctrl.Drive(cmd); err != nil {
			log.Printf("[app] drive %s: %v", cmd, err)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (a *App) handleEnableAuto(w http.ResponseWriter, r *http.Request) {
	if !commandMethod(w, r) {
		return
	}
	a.Ctrl.EnableAutonomous()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleDisableAuto(w http.ResponseWriter, r *http.Request) {
	if !commandMethod(w, r) {
		return
	}
	a.Ctrl.DisableAutonomous()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
