// Package stravizservice boots the straviz HTTP service: config, storage,
// Strava client, syncer and router, then serves until shutdown.
package stravizservice

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/straviz/straviz-server/internal/api"
	"github.com/straviz/straviz-server/internal/config"
	"github.com/straviz/straviz-server/internal/credstore"
	"github.com/straviz/straviz-server/internal/health"
	"github.com/straviz/straviz-server/internal/logger"
	"github.com/straviz/straviz-server/internal/store"
	"github.com/straviz/straviz-server/internal/store/postgres"
	"github.com/straviz/straviz-server/internal/store/sqlite"
	"github.com/straviz/straviz-server/internal/strava"
	"github.com/straviz/straviz-server/internal/syncer"
)

// Run starts the straviz HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("straviz-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("strava_api_url", cfg.StravaAPIURL).
		Str("credentials_file", cfg.CredentialsFile).
		Msg("Straviz service starting")

	ctx, stop := newServerContext()
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Storage unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	client := strava.New(cfg.StravaAPIURL, cfg.StravaTokenURL, cfg.UpstreamTimeout)
	creds := credstore.NewFileStore(cfg.CredentialsFile)
	runner := syncer.New(creds, client, st, log)

	svcHealth := startHealthCheckers(ctx, cfg, log, st)
	router := api.NewRouter(runner, st, svcHealth, log)

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// openStore opens the configured driver, verifies connectivity with a bounded
// retry loop and applies the schema.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.DBDriver {
	case "postgres":
		db, err = postgres.Open(cfg.PostgresDSN)
	case "sqlite":
		db, err = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := pingWithRetry(ctx, db, cfg, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	switch cfg.DBDriver {
	case "postgres":
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return postgres.NewWithDB(db), nil
	default:
		if err := sqlite.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return sqlite.NewWithDB(db), nil
	}
}

// pingWithRetry probes the database until it answers or attempts run out.
func pingWithRetry(ctx context.Context, db *sql.DB, cfg *config.Config, log zerolog.Logger) error {
	var lastErr error
	for attempt := 1; attempt <= cfg.StartupRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		log.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", cfg.StartupRetries).
			Msg("database not ready")
		if attempt == cfg.StartupRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.StartupRetryDelay):
		}
	}
	return errors.Wrapf(lastErr, "database unreachable after %d attempts", cfg.StartupRetries)
}

// startHealthCheckers starts the store checker and the service aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := health.NewPingChecker("store", st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a cancellable context bound to SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
