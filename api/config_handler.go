// Package api — configuration inspection endpoints.
package api

import (
	"net/http"

	"github.com/quantbrief/quantbrief/internal/config"
)

// handleGetConfigKeys returns the status of all recognized API keys.
// Key values are masked; placeholders count as unset.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}
