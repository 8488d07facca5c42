// Package main provides the HTTP API server for event management.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/rueidis"

	"github.com/jnst/event-marketer-api/internal/api"
	"github.com/jnst/event-marketer-api/internal/clock"
	"github.com/jnst/event-marketer-api/internal/config"
	"github.com/jnst/event-marketer-api/internal/logger"
	"github.com/jnst/event-marketer-api/internal/metrics"
	"github.com/jnst/event-marketer-api/internal/ratelimit"
	"github.com/jnst/event-marketer-api/internal/repository"
	"github.com/jnst/event-marketer-api/internal/repository/sqlite"
	"github.com/jnst/event-marketer-api/internal/service"
	"github.com/jnst/event-marketer-api/migrations"
)

const (
	exitCode          = 1
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
	rateLimitPrefix   = "event-marketer:ratelimit"
)

// store bundles the repositories for the configured driver.
type store struct {
	events         repository.EventRepository
	transactionMgr repository.TransactionManager
	closer         io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func main() {
	if err := run(); err != nil {
		slog.Error("api server stopped", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	appLogger := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.closer.Close() }()

	limiter, closeLimiter, err := setupLimiter(cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	m := metrics.New()
	eventService := service.NewEventServiceImpl(st.events, st.transactionMgr, clock.NewSystem())

	server := api.NewServer(api.Options{
		Service:     eventService,
		Limiter:     limiter,
		Metrics:     m,
		Logger:      appLogger,
		ReadPolicy:  ratelimit.Policy{Requests: cfg.ReadLimit.Requests, Window: cfg.ReadLimit.Window},
		WritePolicy: ratelimit.Policy{Requests: cfg.WriteLimit.Requests, Window: cfg.WriteLimit.Window},
		CORSOrigins: cfg.CORSOrigins,
	})

	servers := []*http.Server{newHTTPServer(":"+cfg.Port, server.Handler())}
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		servers = append(servers, newHTTPServer(":"+strconv.Itoa(cfg.MetricsPort), mux))
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func() {
			slog.Info("starting http server", slog.String("service", "api"), slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", slog.String("addr", srv.Addr), slog.String("error", err.Error()))
		}
	}

	return serveErr
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverSQLite:
		if cfg.MigrateOnStart {
			if err := migrations.Up(migrations.DriverSQLite, cfg.SQLitePath); err != nil {
				return nil, err
			}
		}

		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("using sqlite store", slog.String("path", cfg.SQLitePath))

		return &store{
			events:         sqlite.NewEventRepository(db),
			transactionMgr: sqlite.NewTransactionManager(db),
			closer:         db,
		}, nil
	default:
		if cfg.MigrateOnStart {
			if err := migrations.Up(migrations.DriverPostgres, cfg.DatabaseURL); err != nil {
				return nil, err
			}
		}

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		slog.Info("using postgres store")

		return &store{
			events:         repository.NewEventRepositoryImpl(pool),
			transactionMgr: repository.NewTransactionManagerImpl(pool),
			closer:         closerFunc(func() error { pool.Close(); return nil }),
		}, nil
	}
}

func setupLimiter(cfg *config.Config) (ratelimit.Limiter, func(), error) {
	if cfg.RedisAddr == "" {
		slog.Info("using in-memory rate limiter")
		return ratelimit.NewMemoryLimiter(), func() {}, nil
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.RedisAddr},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	slog.Info("using redis rate limiter", slog.String("addr", cfg.RedisAddr))

	return ratelimit.NewRedisLimiter(client, rateLimitPrefix), client.Close, nil
}
