package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	return testutil.ToFloat64(c)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestIDMiddlewareGenerates(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDMiddlewareReusesHeader(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "editor-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "editor-123", seen)
	assert.Equal(t, "editor-123", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("a", 200))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, strings.Repeat("a", 200), seen)
}

func TestGetRequestIDMissing(t *testing.T) {
	_, ok := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}

func TestLoggerRecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := RequestIDMiddleware(Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodPost, "/process", nil)
	req.Header.Set(RequestIDHeader, "req-9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/process", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Middleware(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, rl.Visitors())
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, 30)
	rl.now = func() time.Time { return now }

	rl.getLimiter("10.0.0.1")
	now = now.Add(2 * time.Minute)
	rl.getLimiter("10.0.0.2")
	now = now.Add(2 * time.Minute)

	assert.Equal(t, 1, rl.Cleanup(3*time.Minute))
	assert.Equal(t, 1, rl.Visitors())
	assert.Equal(t, 0, rl.Cleanup(3*time.Minute))
}

func TestBodyLimitMiddleware(t *testing.T) {
	h := BodyLimitMiddleware(4)(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader("too long"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/process", strings.NewReader("ok"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBasicAuthMiddleware(t *testing.T) {
	h := BasicAuthMiddleware("prom", "secret")(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="Metrics"`, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("prom", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	BasicAuthMiddleware("", "")(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPprofSecurityMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	PprofSecurityMiddleware("")(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.Header.Set("X-Pprof-Secret", "s3")
	rec = httptest.NewRecorder()
	PprofSecurityMiddleware("s3")(okHandler).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMonitorMiddlewareUsesRouteTemplate(t *testing.T) {
	InitPrometheus(prometheus.NewRegistry())

	r := mux.NewRouter()
	r.Use(MonitorMiddleware)
	r.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}).Methods("POST")

	before := counterValue(t, httpRejections.WithLabelValues("invalid_document"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, before+1, counterValue(t, httpRejections.WithLabelValues("invalid_document")))
	assert.Equal(t, float64(1), counterValue(t, httpRequestsTotal.WithLabelValues("/process", "POST", "400")))
}

func TestClientIPMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		trust     bool
		forwarded string
		want      string
	}{
		{"remote addr by default", false, "", "10.0.0.1"},
		{"forwarded ignored when untrusted", false, "203.0.113.7", "10.0.0.1"},
		{"last forwarded entry when trusted", true, "198.51.100.1, 203.0.113.7", "203.0.113.7"},
		{"remote addr when trusted but absent", true, "", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := ClientIPMiddleware(tt.trust)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = clientIP(r)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:5000"
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestRateLimiterIgnoresForgedForwardedFor(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	h := ClientIPMiddleware(false)(rl.Middleware(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, rl.Visitors())
}

func TestRejectionsAreJSON(t *testing.T) {
	h := BodyLimitMiddleware(4)(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process", strings.NewReader("too long")))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "request body too large"}`, rec.Body.String())
}
