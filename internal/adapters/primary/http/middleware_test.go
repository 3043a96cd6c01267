package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoggingMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("test response"))
	})

	wrapped := createLoggingMiddleware(handler, NewHTTPLogger("test", false))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "test response", w.Body.String())
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("normal operation", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		wrapped := createRecoveryMiddleware(handler, NewHTTPLogger("test", false))

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("panic recovery", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("test panic")
		})

		wrapped := createRecoveryMiddleware(handler, NewHTTPLogger("test", false))

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()

		assert.NotPanics(t, func() { wrapped.ServeHTTP(w, req) })
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestResponseWriter_Hijack(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	assert.Error(t, err, "recorder cannot be hijacked")
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter()
	rl.now = func() time.Time { return now }
	rl.lastCleanup = now

	for i := 0; i < 3; i++ {
		assert.True(t, rl.isAllowed("10.0.0.1", 3, time.Minute))
	}
	assert.False(t, rl.isAllowed("10.0.0.1", 3, time.Minute))
	assert.True(t, rl.isAllowed("10.0.0.2", 3, time.Minute), "limits are per client")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.isAllowed("10.0.0.1", 3, time.Minute), "window slides")

	now = now.Add(10 * time.Minute)
	rl.isAllowed("10.0.0.3", 3, time.Minute)
	assert.Len(t, rl.clients, 1, "idle clients are pruned")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"first forwarded hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.1:1234", "198.51.100.2"},
		{"garbage header falls back", map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.9:80", "10.0.0.9"},
		{"remote addr", nil, "192.0.2.5:5555", "192.0.2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, getClientIP(req))
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := securityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "connect-src 'self' ws: wss:")
}
