package api

import (
	"net/http"
	"time"

	"nxmeta/internal/dataset"
	"nxmeta/internal/version"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// ReadyResponse reports whether a dataset is loaded
type ReadyResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Dataset   *dataset.Stats `json:"dataset,omitempty"`
}

// handleHealth responds to health check requests (simple liveness check)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}

	WriteJSON(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
	}, http.StatusOK)
}

// handleReady is 200 once a dataset snapshot is published, 503 before.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}

	resp := ReadyResponse{Timestamp: time.Now().UTC()}
	snap := s.holder.Current()
	if snap == nil {
		resp.Status = "not_ready"
		WriteJSON(w, resp, http.StatusServiceUnavailable)
		return
	}
	st := snap.Stats()
	resp.Status = "ready"
	resp.Dataset = &st
	WriteJSON(w, resp, http.StatusOK)
}
