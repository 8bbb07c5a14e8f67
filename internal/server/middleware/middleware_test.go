package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
})

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		method string
		header map[string]string
		want   int
	}{
		{"disabled", "", http.MethodPost, nil, http.StatusOK},
		{"get passes", "secret", http.MethodGet, nil, http.StatusOK},
		{"post without token", "secret", http.MethodPost, nil, http.StatusUnauthorized},
		{"bearer", "secret", http.MethodPost, map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"api key header", "secret", http.MethodPost, map[string]string{"X-API-Key": " secret "}, http.StatusOK},
		{"wrong key", "secret", http.MethodPost, map[string]string{"X-API-Key": "guess"}, http.StatusUnauthorized},
		{"basic scheme ignored", "secret", http.MethodPost, map[string]string{"Authorization": "Basic secret"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/chains/gnosis/questions/0x1/answers", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			Auth(tt.key)(okHandler).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:5173"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/chains", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow-origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/chains", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("foreign origin: status %d, allow-origin %q", rec.Code, rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestLoggingRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "req-123" || rec.Header().Get(RequestIDHeader) != "req-123" {
		t.Errorf("request id: context %q, header %q", seen, rec.Header().Get(RequestIDHeader))
	}
	if !strings.Contains(buf.String(), `"status":418`) || !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Errorf("log line missing fields: %s", buf.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if len(rec.Header().Get(RequestIDHeader)) != 36 {
		t.Errorf("generated id = %q, want a UUID", rec.Header().Get(RequestIDHeader))
	}
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name    string
		limiter *fakeLimiter
		limit   int
		want    int
		calls   int
	}{
		{"allowed", &fakeLimiter{allow: true}, 10, http.StatusOK, 1},
		{"limited", &fakeLimiter{allow: false}, 10, http.StatusTooManyRequests, 1},
		{"fails open", &fakeLimiter{err: errors.New("redis down")}, 10, http.StatusOK, 1},
		{"disabled", &fakeLimiter{allow: false}, 0, http.StatusOK, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RateLimit(tt.limiter, tt.limit, time.Minute, discardLogger())(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/api/chains", nil)
			req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if len(tt.limiter.keys) != tt.calls {
				t.Fatalf("limiter calls = %d, want %d", len(tt.limiter.keys), tt.calls)
			}
			if tt.calls > 0 && tt.limiter.keys[0] != "api:203.0.113.7" {
				t.Errorf("key = %q", tt.limiter.keys[0])
			}
			if tt.want == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
				t.Errorf("retry-after = %q, want 60", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestExtractClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	if got := extractClientIP(req); got != "192.0.2.1" {
		t.Errorf("remote addr ip = %q", got)
	}
	req.Header.Set("X-Real-IP", "198.51.100.2")
	if got := extractClientIP(req); got != "198.51.100.2" {
		t.Errorf("x-real-ip = %q", got)
	}
}
