package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jnst/event-marketer-api/internal/clock"
	"github.com/jnst/event-marketer-api/internal/model"
	"github.com/jnst/event-marketer-api/internal/ratelimit"
)

var t0 = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

var (
	readPolicy  = ratelimit.Policy{Requests: 100, Window: time.Minute}
	writePolicy = ratelimit.Policy{Requests: 10, Window: time.Minute}
)

type stubService struct {
	event  *model.Event
	events []*model.Event
	err    error
	panics bool

	calls       int
	lastID      int64
	lastPayload *model.EventPayload
}

func (s *stubService) CreateEvent(_ context.Context, p *model.EventPayload) (*model.Event, error) {
	s.calls++
	s.lastPayload = p
	return s.event, s.err
}

func (s *stubService) ListEvents(context.Context) ([]*model.Event, error) {
	s.calls++
	if s.panics {
		panic("boom")
	}
	return s.events, s.err
}

func (s *stubService) GetEvent(_ context.Context, id int64) (*model.Event, error) {
	s.calls++
	s.lastID = id
	return s.event, s.err
}

func (s *stubService) UpdateEvent(_ context.Context, id int64, p *model.EventPayload) (*model.Event, error) {
	s.calls++
	s.lastID = id
	s.lastPayload = p
	return s.event, s.err
}

func (s *stubService) DeleteEvent(_ context.Context, id int64) error {
	s.calls++
	s.lastID = id
	return s.err
}

type stubLimiter struct {
	res ratelimit.Result
	err error

	keys []string
}

func allowAll() *stubLimiter {
	return &stubLimiter{res: ratelimit.Result{Allowed: true}}
}

func (l *stubLimiter) Allow(_ context.Context, key string, _ ratelimit.Policy) (ratelimit.Result, error) {
	l.keys = append(l.keys, key)
	return l.res, l.err
}

var errStorage = errors.New("connection refused")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(svc *stubService, limiter ratelimit.Limiter) http.Handler {
	return NewServer(Options{
		Service:     svc,
		Limiter:     limiter,
		Clock:       clock.NewFixed(t0),
		Logger:      discardLogger(),
		ReadPolicy:  readPolicy,
		WritePolicy: writePolicy,
	}).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}
