package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/inquiries":                  "/inquiries",
		"/inquiries/42":               "/inquiries/{id}",
		"/inquiries/abc":              "/inquiries/{id}",
		"/inquiries/import":           "/inquiries/import",
		"/inquiries/form-submissions": "/inquiries/form-submissions",
		"/inquiries/42/extra":         "other",
		"/dashboard/entries-by-month": "/dashboard/entries-by-month",
		"/health":                     "/health",
		"/wp-login.php":               "other",
	}
	for in, want := range tests {
		if got := NormalizePath(in); got != want {
			t.Fatalf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrometheusMiddlewareRecordsTemplate(t *testing.T) {
	h := PrometheusMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Inquiry not found"}`))
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/inquiries/{id}", "404"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/inquiries/913", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/inquiries/914", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/inquiries/{id}", "404"))

	if after-before != 2 {
		t.Fatalf("expected 2 requests under the id template, got %v", after-before)
	}
}

func TestRecordInquiryCreatedBySource(t *testing.T) {
	before := testutil.ToFloat64(inquiriesCreatedTotal.WithLabelValues("csv"))
	RecordInquiryCreated("csv")
	if got := testutil.ToFloat64(inquiriesCreatedTotal.WithLabelValues("csv")) - before; got != 1 {
		t.Fatalf("csv counter delta = %v", got)
	}
}

func TestRecordCounters(t *testing.T) {
	tests := []struct {
		name   string
		record func()
		read   func() float64
	}{
		{"patched", RecordInquiryPatched, func() float64 { return testutil.ToFloat64(inquiriesPatchedTotal) }},
		{"deleted", RecordInquiryDeleted, func() float64 { return testutil.ToFloat64(inquiriesDeletedTotal) }},
		{"rate limited", RecordRateLimited, func() float64 { return testutil.ToFloat64(rateLimitedTotal) }},
	}
	for _, tt := range tests {
		before := tt.read()
		tt.record()
		if got := tt.read() - before; got != 1 {
			t.Fatalf("%s counter delta = %v", tt.name, got)
		}
	}
}
