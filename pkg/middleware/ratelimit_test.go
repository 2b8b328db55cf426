package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/utafrali/BookReviewGo/pkg/logger"
)

func TestRateLimit_LimitsWritesPerUser(t *testing.T) {
	h := RateLimit(RateLimitConfig{RPS: 1, Burst: 2}, logger.Discard())(okHandler)

	send := func(method, user string) int {
		req := httptest.NewRequest(method, "/api/v1/books/B1/reviews", nil)
		if user != "" {
			req = req.WithContext(WithClaims(req.Context(), &Claims{UserID: user}))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "alice"))
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "alice"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "alice"))

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "bob"), "buckets are per user")
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, send(http.MethodGet, "alice"), "reads are not limited")
	}
}

func TestRateLimit_AnonymousKeyedByIP(t *testing.T) {
	h := RateLimit(RateLimitConfig{RPS: 1, Burst: 1}, logger.Discard())(okHandler)

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/me", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5678"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"))
}

func TestRateLimit_DisabledWithZeroRPS(t *testing.T) {
	h := RateLimit(RateLimitConfig{}, logger.Discard())(okHandler)
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLimiterSet_SweepsIdleBuckets(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newLimiterSet(RateLimitConfig{RPS: 1, Burst: 1, Idle: time.Minute})
	s.now = func() time.Time { return now }

	s.allow("a")
	s.allow("b")
	assert.Equal(t, 2, s.size())

	now = now.Add(2 * time.Minute)
	s.allow("c")
	assert.Equal(t, 1, s.size())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{name: "forwarded chain", xff: "203.0.113.7, 10.0.0.1", remote: "10.0.0.9:80", want: "203.0.113.7"},
		{name: "real ip", realIP: "198.51.100.2", remote: "10.0.0.9:80", want: "198.51.100.2"},
		{name: "garbage header", xff: "nonsense", remote: "10.0.0.9:80", want: "10.0.0.9"},
		{name: "remote without port", remote: "10.0.0.9", want: "10.0.0.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
