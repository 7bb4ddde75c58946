package services

import (
	"context"
	"log"
	"net/http"
	"strings"

	goahttp "goa.design/goa/v3/http"

	"inquirydesk/internal/metrics"
	"inquirydesk/internal/util"
	apperrors "inquirydesk/pkg/errors"
)

type contextKey string

const claimsKey contextKey = "session_claims"

// SessionVerifier validates a bearer token.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*util.Claims, error)
}

// RequireSession rejects requests without a valid bearer token and stores
// the verified claims in the request context.
func RequireSession(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for public endpoints
			if r.Method == http.MethodOptions || isPublicEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				metrics.RecordAuthAttempt(false)
				WriteError(w, r, NewUnauthorizedError(MsgMissingAuthHeader))
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				metrics.RecordAuthAttempt(false)
				WriteError(w, r, NewUnauthorizedError(MsgInvalidAuthHeader))
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Printf("[AUTH] Token rejected for %s %s: %v", r.Method, r.URL.Path, err)
				metrics.RecordAuthAttempt(false)
				WriteError(w, r, NewUnauthorizedError(MsgUnauthorized))
				return
			}

			metrics.RecordAuthAttempt(true)
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isPublicEndpoint reports paths that carry their own access control or
// none at all.
func isPublicEndpoint(path string) bool {
	switch path {
	case "/health", "/metrics", "/inquiries/form-submissions":
		return true
	}
	return false
}

// SessionFromContext returns the verified claims, or nil outside an
// authenticated request.
func SessionFromContext(ctx context.Context) *util.Claims {
	claims, _ := ctx.Value(claimsKey).(*util.Claims)
	return claims
}

// Actor names the session subject for audit logs.
func Actor(ctx context.Context) string {
	if c := SessionFromContext(ctx); c != nil && c.Subject != "" {
		return c.Subject
	}
	return "anonymous"
}

// WriteError writes err in the API's error envelope: {"message": ...} for
// NotFound, {"error": ...} for everything else.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	msg := PublicMessage(err)
	if status == http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", r.Method, r.URL.Path, err)
	}

	if apperrors.IsUnauthorized(err) {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	body := map[string]string{"error": msg}
	if status == http.StatusNotFound {
		body = map[string]string{"message": msg}
	}
	WriteJSON(w, r, status, body)
}

// WriteJSON encodes v with the goa response encoder.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	enc := goahttp.ResponseEncoder(r.Context(), w)
	w.WriteHeader(status)
	if err := enc.Encode(v); err != nil {
		log.Printf("[ERROR] encode response for %s %s: %v", r.Method, r.URL.Path, err)
	}
}
