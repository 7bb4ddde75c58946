package httpapi

import (
	"crypto/subtle"
	"log"
	"net/http"

	goahttp "goa.design/goa/v3/http"

	"inquirydesk/internal/services"
)

// handleFormSubmission receives the Apps Script webhook fired on each
// Google Form response.
func (s *Server) handleFormSubmission(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.webhookSecret)) != 1 {
		log.Printf("[INGEST] Form submission rejected from %s: bad secret", r.RemoteAddr)
		services.WriteError(w, r, services.NewUnauthorizedError(services.MsgInvalidWebhookAuth))
		return
	}

	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	var answers map[string]any
	if err := goahttp.RequestDecoder(r).Decode(&answers); err != nil {
		services.WriteError(w, r, services.NewBadRequestError(services.MsgInvalidBody))
		return
	}

	if _, err := s.ingest.SubmitForm(r.Context(), answers); err != nil {
		services.WriteError(w, r, err)
		return
	}
	services.WriteJSON(w, r, http.StatusOK, messageResponse{Message: services.MsgInquiryAdded})
}
