package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSessionIDKeepsClientValue(t *testing.T) {
	var seen string
	handler := SessionID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(SessionHeader, " abc-123 ")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if seen != "abc-123" {
		t.Fatalf("expected trimmed session id, got %q", seen)
	}
	if resp.Header().Get(SessionHeader) != "abc-123" {
		t.Fatalf("expected session id echoed, got %q", resp.Header().Get(SessionHeader))
	}
}

func TestSessionIDGeneratesWhenMissingOrOversized(t *testing.T) {
	for _, header := range []string{"", strings.Repeat("x", maxSessionIDLength+1)} {
		var seen string
		handler := SessionID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = SessionIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		if header != "" {
			req.Header.Set(SessionHeader, header)
		}
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		if seen == "" || seen == header {
			t.Fatalf("expected generated session id, got %q", seen)
		}
		if resp.Header().Get(SessionHeader) != seen {
			t.Fatalf("expected generated id echoed")
		}
	}
}
