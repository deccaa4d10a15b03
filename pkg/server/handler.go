package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type healthResponse struct {
	Status   string `json:"status"`
	State    string `json:"state"`
	Buffered int    `json:"buffered"`
	Capacity int    `json:"capacity"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.player.Stats()
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		State:    stats.State,
		Buffered: stats.Buffered,
		Capacity: stats.Capacity,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.player.Stats())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}
