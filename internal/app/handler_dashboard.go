package app

import (
	"net/http"

	"RoverCore/internal/model"
)

// handleDashboard renders the control page. Live values are filled in by the page itself from /ws or /data.
func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":    "Rover Control",
		"Commands": model.AllDriveCommands(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.Tmpl.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
