// Package api serves the event HTTP API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/jnst/event-marketer-api/internal/clock"
	"github.com/jnst/event-marketer-api/internal/metrics"
	"github.com/jnst/event-marketer-api/internal/ratelimit"
	"github.com/jnst/event-marketer-api/internal/service"
)

const (
	serviceName = "event-marketer-api"
	apiVersion  = "1.0.0"
)

// Options configures a Server. Limiter is required; nil Metrics, Clock and
// Logger fall back to fresh or default instances.
type Options struct {
	Service     service.EventService
	Limiter     ratelimit.Limiter
	Metrics     *metrics.Metrics
	Clock       clock.Clock
	Logger      *slog.Logger
	ReadPolicy  ratelimit.Policy
	WritePolicy ratelimit.Policy
	CORSOrigins []string
}

// Server routes HTTP requests to the event service.
type Server struct {
	svc         service.EventService
	limiter     ratelimit.Limiter
	metrics     *metrics.Metrics
	clock       clock.Clock
	logger      *slog.Logger
	readPolicy  ratelimit.Policy
	writePolicy ratelimit.Policy
	corsOrigins []string
}

// NewServer creates a new API server instance.
func NewServer(opts Options) *Server {
	s := &Server{
		svc:         opts.Service,
		limiter:     opts.Limiter,
		metrics:     opts.Metrics,
		clock:       opts.Clock,
		logger:      opts.Logger,
		readPolicy:  opts.ReadPolicy,
		writePolicy: opts.WritePolicy,
		corsOrigins: opts.CORSOrigins,
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.clock == nil {
		s.clock = clock.NewSystem()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if len(s.corsOrigins) == 0 {
		s.corsOrigins = []string{"*"}
	}

	return s
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", s.route("home", nil, http.HandlerFunc(s.handleHome)))
	mux.Handle("GET /api/health", s.route("health", nil, http.HandlerFunc(s.handleHealth)))

	mux.Handle("GET /api/events", s.route("list_events", &s.readPolicy, http.HandlerFunc(s.handleListEvents)))
	mux.Handle("POST /api/events", s.route("create_event", &s.writePolicy, http.HandlerFunc(s.handleCreateEvent)))
	mux.Handle("GET /api/events/{id}", s.route("get_event", &s.readPolicy, http.HandlerFunc(s.handleGetEvent)))
	mux.Handle("PUT /api/events/{id}", s.route("update_event", &s.writePolicy, http.HandlerFunc(s.handleUpdateEvent)))
	mux.Handle("DELETE /api/events/{id}", s.route("delete_event", &s.writePolicy, http.HandlerFunc(s.handleDeleteEvent)))

	mux.Handle("/api/events", s.route("method_not_allowed", nil, methodNotAllowed("GET, POST")))
	mux.Handle("/api/events/{id}", s.route("method_not_allowed", nil, methodNotAllowed("GET, PUT, DELETE")))
	mux.Handle("/", s.route("not_found", nil, http.HandlerFunc(handleNotFound)))

	return Chain(mux,
		RequestID,
		RequestLogger(s.logger),
		Recover(s.logger),
		CORS(s.corsOrigins),
	)
}

// route instruments h under name and, when policy is set, rate limits it.
func (s *Server) route(name string, policy *ratelimit.Policy, h http.Handler) http.Handler {
	if policy != nil {
		h = RateLimit(s.limiter, name, *policy, s.metrics, s.logger)(h)
	}

	return Instrument(name, s.metrics)(h)
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, msgResourceNotFound)
}

// methodNotAllowed answers known paths requested with an unsupported method.
// A malformed id is still reported as an unknown resource.
func methodNotAllowed(allow string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.PathValue("id"); raw != "" {
			if _, ok := parseID(raw); !ok {
				handleNotFound(w, r)
				return
			}
		}

		w.Header().Set("Allow", allow)
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})
}
