package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classroom/internal/classroom/adapter/inmem"
	"classroom/internal/classroom/middleware"
	"classroom/internal/domain"
)

func TestRateLimitAllowsWithinQuota(t *testing.T) {
	limiter := inmem.NewRateLimiter(2, time.Minute, time.Now)
	h := middleware.RateLimit(limiter, time.Minute, nil)(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimitDeniesOverQuota(t *testing.T) {
	limiter := inmem.NewRateLimiter(2, time.Minute, time.Now)
	h := middleware.RateLimit(limiter, time.Minute, nil)(okHandler())

	var rec *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	}

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Code != domain.CodeRateLimit {
		t.Errorf("expected RATE_LIMIT_EXCEEDED, got %q", body.Code)
	}
	if body.Message != "Too many requests, please wait 1 minute(s) before trying again" {
		t.Errorf("unexpected message %q", body.Message)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimitHeaders(t *testing.T) {
	limiter := inmem.NewRateLimiter(2, time.Minute, time.Now)
	h := middleware.RateLimit(limiter, time.Minute, nil)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("RateLimit-Limit"); got != "2" {
		t.Errorf("expected RateLimit-Limit 2, got %q", got)
	}
	if got := rec.Header().Get("RateLimit-Remaining"); got != "1" {
		t.Errorf("expected RateLimit-Remaining 1, got %q", got)
	}
	if got := rec.Header().Get("RateLimit-Reset"); got == "" {
		t.Error("expected RateLimit-Reset header")
	}
	// Only the standard header family is emitted.
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "" {
		t.Errorf("legacy X-RateLimit-Limit must not be set, got %q", got)
	}
}

func TestRateLimitKeysByClientIP(t *testing.T) {
	limiter := inmem.NewRateLimiter(1, time.Minute, time.Now)
	h := middleware.RateLimit(limiter, time.Minute, nil)(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "10.0.0.1:1111"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", rec.Code)
	}

	// Exhausted for 10.0.0.1, but a different address has its own window.
	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.RemoteAddr = "10.0.0.2:2222"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	if rec.Code != http.StatusOK {
		t.Errorf("second client: expected 200, got %d", rec.Code)
	}

	repeat := httptest.NewRequest(http.MethodGet, "/", nil)
	repeat.RemoteAddr = "10.0.0.1:3333"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, repeat)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("same client, new port: expected 429, got %d", rec.Code)
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	limiter := inmem.NewRateLimiter(1, time.Minute, clock)
	h := middleware.RateLimit(limiter, time.Minute, nil)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	now = now.Add(61 * time.Second)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected fresh window after reset, got %d", rec.Code)
	}
}
