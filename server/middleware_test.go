package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/noine32/deadstock-search-replit/config"
)

func TestRealIPMiddleware(t *testing.T) {
	var gotRemote string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRemote = r.RemoteAddr
	})
	handler := RealIPMiddleware(next)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotRemote != "203.0.113.7" {
		t.Errorf("Expected first forwarded IP, got %s", gotRemote)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotRemote != "192.0.2.1:1234" {
		t.Errorf("Expected untouched RemoteAddr, got %s", gotRemote)
	}
}

func TestRequestSizeMiddlewareRejectsLargeBody(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 64}
	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/reconcile", strings.NewReader(strings.Repeat("a", 128)))
	req.Header.Set("Content-Length", "128")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", rr.Code)
	}
}

func TestRequestSizeMiddlewareAllowsSmallBody(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 1024}
	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/reconcile", strings.NewReader("small"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
}

func TestRateLimitHandlerSetsHeaders(t *testing.T) {
	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "198.51.100.10:4000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "1000" {
		t.Errorf("Expected rate limit header, got %q", rr.Header().Get("X-RateLimit-Limit"))
	}
	if rr.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("Expected remaining tokens header")
	}
}

func TestRateLimitHandlerExhaustsBucket(t *testing.T) {
	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// The reconcile endpoint costs 200 tokens out of a 1000-token bucket.
	var lastCode int
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/reconcile", nil)
		req.RemoteAddr = "198.51.100.99:4000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		lastCode = rr.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after exhausting the bucket, got %d", lastCode)
	}
}
