package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/event-marketer-api/internal/clock"
	"github.com/jnst/event-marketer-api/internal/metrics"
	"github.com/jnst/event-marketer-api/internal/ratelimit"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRequestID(t *testing.T) {
	h := newTestHandler(&stubService{}, allowAll())

	rec := do(t, h, http.MethodGet, "/api/health", "")
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", maxRequestIDLen+1))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, strings.Repeat("x", maxRequestIDLen+1), rec.Header().Get("X-Request-ID"))
}

func TestRequestLogger_LogsStatusAndPath(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}), RequestID, RequestLogger(logger))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/events", nil))

	out := buf.String()
	assert.Contains(t, out, "method=POST")
	assert.Contains(t, out, "path=/api/events")
	assert.Contains(t, out, "status=201")
	assert.Contains(t, out, "request_id=")
}

func TestRequestLogger_DefaultsTo200(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), "status=200")
}

func TestRecover(t *testing.T) {
	svc := &stubService{panics: true}
	h := newTestHandler(svc, allowAll())

	rec := do(t, h, http.MethodGet, "/api/events", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Internal server error"}`, rec.Body.String())
}

func TestRateLimit_Rejects(t *testing.T) {
	limiter := &stubLimiter{res: ratelimit.Result{Allowed: false, RetryAfter: 1500 * time.Millisecond}}
	svc := &stubService{}
	h := newTestHandler(svc, limiter)

	rec := do(t, h, http.MethodPost, "/api/events", `{}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"message":"Rate limit exceeded"}`, rec.Body.String())
	assert.Zero(t, svc.calls)
	assert.Equal(t, []string{"create_event:192.0.2.1"}, limiter.keys)
}

func TestRateLimit_SkipsHomeAndHealth(t *testing.T) {
	limiter := &stubLimiter{res: ratelimit.Result{Allowed: false, RetryAfter: time.Second}}
	h := newTestHandler(&stubService{}, limiter)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/health", "").Code)
	assert.Empty(t, limiter.keys)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	svc := &stubService{}
	h := newTestHandler(svc, limiter)

	rec := do(t, h, http.MethodGet, "/api/events", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.calls)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 6, retryAfterSeconds(6*time.Second))
	assert.Equal(t, 7, retryAfterSeconds(6*time.Second+time.Millisecond))
}

func newMetricsHandler(svc *stubService, m *metrics.Metrics) http.Handler {
	return NewServer(Options{
		Service:     svc,
		Limiter:     allowAll(),
		Metrics:     m,
		Clock:       clock.NewFixed(t0),
		Logger:      discardLogger(),
		ReadPolicy:  readPolicy,
		WritePolicy: writePolicy,
	}).Handler()
}

func scrapeRequestSeries(t *testing.T, m *metrics.Metrics) []string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var series []string
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if strings.HasPrefix(line, "http_requests_total{") {
			series = append(series, line)
		}
	}

	return series
}

func TestInstrument_JunkMethodsKeepSeriesBounded(t *testing.T) {
	m := metrics.New()
	h := newMetricsHandler(&stubService{}, m)

	for i := range 50 {
		rec := do(t, h, "X"+strconv.Itoa(i), "/api/events", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	}

	series := scrapeRequestSeries(t, m)
	assert.Equal(t, []string{
		`http_requests_total{method="other",route="method_not_allowed",status="405"} 50`,
	}, series)
}

func TestInstrument_RecordsPanicAs500(t *testing.T) {
	m := metrics.New()
	h := newMetricsHandler(&stubService{panics: true}, m)

	rec := do(t, h, http.MethodGet, "/api/events", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, []string{
		`http_requests_total{method="GET",route="list_events",status="500"} 1`,
	}, scrapeRequestSeries(t, m))
}
