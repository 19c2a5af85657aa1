package httpserver

import (
	"net/http"
)

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	components := map[string]string{
		"chain":     componentState(s.chain != nil),
		"teams":     componentState(s.connector != nil),
		"quickbase": componentState(s.tickets != nil),
		"store":     componentState(s.history != nil),
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Version:    s.version,
		Components: components,
	})
}

func componentState(configured bool) string {
	if configured {
		return "configured"
	}
	return "missing"
}
