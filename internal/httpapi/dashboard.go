package httpapi

import (
	"net/http"

	"inquirydesk/internal/services"
)

type dashboardResponse struct {
	Success bool                  `json:"success"`
	Data    []services.MonthTotal `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func (s *Server) handleEntriesByMonth(w http.ResponseWriter, r *http.Request) {
	totals, err := s.dashboard.EntriesByMonth(r.Context())
	if err != nil {
		services.WriteJSON(w, r, http.StatusInternalServerError, dashboardResponse{Error: services.MsgDashboardInternal})
		return
	}
	services.WriteJSON(w, r, http.StatusOK, dashboardResponse{Success: true, Data: totals})
}
