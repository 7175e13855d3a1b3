package server

import (
	"encoding/json"
	"net/http"
	"time"
)

type healthStatus struct {
	Status string `json:"status"`
	Model  string `json:"model"`
	Uptime string `json:"uptime"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK\n"))
}

// handleReadyz reports ready only once the model handle exists; the server
// loads the model before listening, so this mostly guards misuse in tests
// and future lazy-load changes.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		return
	}

	status := healthStatus{
		Status: "ready",
		Model:  s.runner.ModelPath(),
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
