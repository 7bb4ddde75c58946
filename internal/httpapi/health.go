package httpapi

import (
	"net/http"

	"inquirydesk/internal/services"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	result := s.health.Check(r.Context())
	status := http.StatusOK
	if result.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	services.WriteJSON(w, r, status, result)
}
