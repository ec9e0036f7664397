package routes

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Health reports whether the server is up and can reach the status store.
func (s *ServerHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok"}
	code := http.StatusOK

	if err := s.Store.Ping(ctx); err != nil {
		resp = healthResponse{Status: "unavailable", Database: "unreachable", Error: err.Error()}
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}
