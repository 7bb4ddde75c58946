package httpapi

import (
	"net/http"

	goahttp "goa.design/goa/v3/http"

	"inquirydesk/internal/config"
	"inquirydesk/internal/metrics"
	"inquirydesk/internal/services"
)

// Server holds the services behind the HTTP routes.
type Server struct {
	mux       goahttp.Muxer
	inquiries *services.InquiryService
	dashboard *services.DashboardService
	ingest    *services.IngestService
	health    *services.HealthService

	maxUploadBytes int64
	webhookSecret  string
}

// New creates a Server. The ingest settings come from cfg.
func New(mux goahttp.Muxer, cfg config.IngestConfig, inquiries *services.InquiryService, dashboard *services.DashboardService, ingest *services.IngestService, health *services.HealthService) *Server {
	return &Server{
		mux:            mux,
		inquiries:      inquiries,
		dashboard:      dashboard,
		ingest:         ingest,
		health:         health,
		maxUploadBytes: cfg.MaxUploadBytes,
		webhookSecret:  cfg.WebhookSecret,
	}
}

// Mount registers every route on the muxer. The form webhook is only
// mounted when a shared secret is configured.
func (s *Server) Mount() {
	s.mux.Handle(http.MethodGet, "/health", s.handleHealth)

	s.mux.Handle(http.MethodGet, "/inquiries", s.handleList)
	s.mux.Handle(http.MethodPost, "/inquiries", s.handleCreate)
	s.mux.Handle(http.MethodPost, "/inquiries/import", s.handleImport)
	s.mux.Handle(http.MethodGet, "/inquiries/{id}", s.handleGet)
	s.mux.Handle(http.MethodPatch, "/inquiries/{id}", s.handlePatch)
	s.mux.Handle(http.MethodDelete, "/inquiries/{id}", s.handleDelete)

	s.mux.Handle(http.MethodGet, "/dashboard/entries-by-month", s.handleEntriesByMonth)

	if s.webhookSecret != "" {
		s.mux.Handle(http.MethodPost, "/inquiries/form-submissions", s.handleFormSubmission)
	}
}

// RateLimited answers requests rejected by the rate limiter.
func RateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.RecordRateLimited()
	services.WriteError(w, r, services.NewRateLimitedError(services.MsgRateLimited))
}
