package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubLimiter struct {
	allowed bool
	err     error
	lastKey string
}

func (s *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.lastKey = key
	return s.allowed, s.err
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name       string
		limiter    *stubLimiter
		wantStatus int
	}{
		{"under the limit", &stubLimiter{allowed: true}, http.StatusOK},
		{"over the limit", &stubLimiter{allowed: false}, http.StatusTooManyRequests},
		{"limiter error fails open", &stubLimiter{err: errors.New("redis down")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RateLimit(tt.limiter, 10, time.Minute)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/api/reports/recent", nil)
			req.RemoteAddr = "192.0.2.7:54321"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.limiter.lastKey != "api:192.0.2.7" {
				t.Errorf("limiter key = %q, want api:192.0.2.7", tt.limiter.lastKey)
			}
			if tt.wantStatus == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
				t.Error("429 response missing Retry-After")
			}
		})
	}
}

func TestRateLimit_ForwardedForWins(t *testing.T) {
	limiter := &stubLimiter{allowed: true}
	h := RateLimit(limiter, 10, time.Minute)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if limiter.lastKey != "api:203.0.113.9" {
		t.Errorf("limiter key = %q, want api:203.0.113.9", limiter.lastKey)
	}
}
