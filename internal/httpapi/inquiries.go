package httpapi

import (
	"errors"
	"io"
	"log"
	"mime"
	"net/http"

	goahttp "goa.design/goa/v3/http"

	"inquirydesk/internal/services"
)

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := q.Get("limit")
	if limit == "" {
		limit = q.Get("pageSize")
	}

	page, err := s.inquiries.List(r.Context(), services.ParsePositiveInt(q.Get("page")), services.ParsePositiveInt(limit))
	if err != nil {
		services.WriteError(w, r, err)
		return
	}
	services.WriteJSON(w, r, http.StatusOK, page)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := services.ParseID(s.mux.Vars(r)["id"])
	if err != nil {
		services.WriteError(w, r, err)
		return
	}
	inquiry, err := s.inquiries.Get(r.Context(), id)
	if err != nil {
		services.WriteError(w, r, err)
		return
	}
	services.WriteJSON(w, r, http.StatusOK, inquiry)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	bag, err := decodeBag(r)
	if err != nil {
		services.WriteError(w, r, err)
		return
	}
	inquiry, err := s.inquiries.Create(r.Context(), bag)
	if err != nil {
		services.WriteError(w, r, err)
		return
	}
	log.Printf("[INQUIRY] Inquiry %d created by %s", inquiry.ID, services.Actor(r.Context()))
	services.WriteJSON(w, r, http.StatusOK, messageResponse{Message: services.MsgInquiryAdded})
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	id, err := services.ParseID(s.mux.Vars(r)["id"])
	if err != nil {
		services.WriteError(w, r, err)
		return
	}
	bag, err := decodeBag(r)
	if err != nil {
		services.WriteError(w, r, err)
		return
	}
	if err := s.inquiries.Patch(r.Context(), id, bag); err != nil {
		services.WriteError(w, r, err)
		return
	}
	log.Printf("[INQUIRY] Inquiry %d patched by %s", id, services.Actor(r.Context()))
	services.WriteJSON(w, r, http.StatusOK, messageResponse{Message: services.MsgInquiryPatched})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := services.ParseID(s.mux.Vars(r)["id"])
	if err != nil {
		services.WriteError(w, r, err)
		return
	}
	if err := s.inquiries.Delete(r.Context(), id); err != nil {
		services.WriteError(w, r, err)
		return
	}
	log.Printf("[INQUIRY] Inquiry %d deleted by %s", id, services.Actor(r.Context()))
	services.WriteJSON(w, r, http.StatusOK, messageResponse{Message: services.MsgInquiryDeleted})
}

// handleImport accepts either a raw text/csv body or a multipart upload in
// the "file" field.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}

	var body io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		if err != nil {
			log.Printf("[INGEST] CSV upload rejected: %v", err)
			services.WriteError(w, r, services.NewBadRequestError(services.MsgCSVRequired))
			return
		}
		defer file.Close()
		body = file
	}

	report, err := s.ingest.ImportCSV(r.Context(), body)
	if err != nil {
		services.WriteError(w, r, err)
		return
	}
	services.WriteJSON(w, r, http.StatusOK, report)
}

// decodeBag reads a JSON object body. Malformed JSON and any body that is
// not an object is a client error.
func decodeBag(r *http.Request) (services.FieldBag, error) {
	var bag services.FieldBag
	if err := goahttp.RequestDecoder(r).Decode(&bag); err != nil {
		if !errors.Is(err, io.EOF) {
			log.Printf("[INQUIRY] Invalid request body for %s %s: %v", r.Method, r.URL.Path, err)
		}
		return nil, services.NewBadRequestError(services.MsgInvalidBody)
	}
	if bag == nil {
		return services.FieldBag{}, nil
	}
	return bag, nil
}
