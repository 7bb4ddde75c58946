package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"inquirydesk/internal/util"
)

type stubVerifier map[string]*util.Claims

func (s stubVerifier) Verify(_ context.Context, token string) (*util.Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("unknown token")
}

func sessionHandler(t *testing.T) http.Handler {
	t.Helper()
	verifier := stubVerifier{
		"good": {Email: "staff@example.com", RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := "anonymous"
		if c := SessionFromContext(r.Context()); c != nil {
			subject = c.Subject
		}
		WriteJSON(w, r, http.StatusOK, map[string]string{"subject": subject})
	})
	return RequireSession(verifier)(next)
}

func serve(h http.Handler, method, path, auth string) (*httptest.ResponseRecorder, map[string]string) {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Accept", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestRequireSessionRejects(t *testing.T) {
	h := sessionHandler(t)
	tests := []struct {
		name string
		auth string
		want string
	}{
		{"missing header", "", MsgMissingAuthHeader},
		{"wrong scheme", "Basic good", MsgInvalidAuthHeader},
		{"empty token", "Bearer ", MsgInvalidAuthHeader},
		{"unknown token", "Bearer forged", MsgUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serve(h, http.MethodGet, "/inquiries", tt.auth)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if body["error"] != tt.want {
				t.Fatalf("error = %q, want %q", body["error"], tt.want)
			}
		})
	}
}

func TestRequireSessionAcceptsBearer(t *testing.T) {
	h := sessionHandler(t)
	for _, auth := range []string{"Bearer good", "bearer good"} {
		rec, body := serve(h, http.MethodGet, "/inquiries/1", auth)
		if rec.Code != http.StatusOK || body["subject"] != "user-1" {
			t.Fatalf("%q: status=%d body=%v", auth, rec.Code, body)
		}
	}
}

func TestRequireSessionPublicPaths(t *testing.T) {
	h := sessionHandler(t)
	for _, path := range []string{"/health", "/metrics", "/inquiries/form-submissions"} {
		rec, body := serve(h, http.MethodGet, path, "")
		if rec.Code != http.StatusOK || body["subject"] != "anonymous" {
			t.Fatalf("%s: status=%d body=%v", path, rec.Code, body)
		}
	}
	rec, _ := serve(h, http.MethodOptions, "/inquiries", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %d", rec.Code)
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	tests := []struct {
		err    error
		status int
		key    string
		want   string
	}{
		{NewNotFoundError(MsgInquiryNotFound), http.StatusNotFound, "message", MsgInquiryNotFound},
		{NewValidationError(MsgInvalidID), http.StatusBadRequest, "error", MsgInvalidID},
		{NewInternalError("db exploded", errors.New("boom")), http.StatusInternalServerError, "error", MsgInternalServer},
		{NewBadRequestError(MsgInvalidBody), http.StatusBadRequest, "error", MsgInvalidBody},
		{NewRateLimitedError(MsgRateLimited), http.StatusTooManyRequests, "error", MsgRateLimited},
		{NewUnauthorizedError(MsgUnauthorized), http.StatusUnauthorized, "error", MsgUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/inquiries/7", nil)
		rec := httptest.NewRecorder()
		WriteError(rec, req, tt.err)

		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec.Code != tt.status || body[tt.key] != tt.want {
			t.Fatalf("got %d %v, want %d %s=%q", rec.Code, body, tt.status, tt.key, tt.want)
		}
		challenge := rec.Header().Get("WWW-Authenticate")
		if (tt.status == http.StatusUnauthorized) != (challenge == "Bearer") {
			t.Fatalf("status %d: WWW-Authenticate = %q", tt.status, challenge)
		}
	}
}

func TestActor(t *testing.T) {
	if got := Actor(context.Background()); got != "anonymous" {
		t.Fatalf("Actor without session = %q", got)
	}
	claims := &util.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-9"}}
	ctx := context.WithValue(context.Background(), claimsKey, claims)
	if got := Actor(ctx); got != "user-9" {
		t.Fatalf("Actor = %q, want user-9", got)
	}
}
