package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMintedWhenAbsent(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if seen == "" {
		t.Fatalf("expected a minted request id in the context")
	}
	if got := res.Header().Get(requestIDHeader); got != seen {
		t.Fatalf("response header %q does not match context id %q", got, seen)
	}
}

func TestRequestIDEchoedWhenSupplied(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "crp-dashboard-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if seen != "crp-dashboard-42" {
		t.Fatalf("caller-supplied id must flow through, got %q", seen)
	}
	if got := res.Header().Get(requestIDHeader); got != "crp-dashboard-42" {
		t.Fatalf("response header must echo the supplied id, got %q", got)
	}
}
