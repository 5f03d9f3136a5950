package web

import (
	"encoding/json"
	"net/http"
)

// Controller is the set of actions exposed under /control/.
type Controller interface {
	Pause()
	Resume()
	Stop()
	StartProtection() error
	StopProtection()
}

// ErrorJSON is the body returned when a control action fails.
type ErrorJSON struct {
	Error string `json:"error"`
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var err error
	switch r.PathValue("action") {
	case "pause":
		s.control.Pause()
	case "resume":
		s.control.Resume()
	case "stop":
		s.control.Stop()
	case "protection-start":
		err = s.control.StartProtection()
	case "protection-stop":
		s.control.StopProtection()
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(ErrorJSON{Error: err.Error()})
		return
	}
	// Readers poll /index.json; the tracker is refreshed on the next tick.
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte("{}\n"))
}
