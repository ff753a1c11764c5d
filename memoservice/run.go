package memoservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/memonote/memo-service/internal/api"
	"github.com/memonote/memo-service/internal/config"
	"github.com/memonote/memo-service/internal/core/memo"
	"github.com/memonote/memo-service/internal/factory"
	"github.com/memonote/memo-service/internal/health"
	"github.com/memonote/memo-service/internal/logger"
	"github.com/memonote/memo-service/internal/metrics"
	"github.com/memonote/memo-service/internal/store"
	"github.com/memonote/memo-service/internal/view"
)

// Run starts the memo service HTTP server and blocks until shutdown or error.
func Run() error {
	boot := logger.New("memo-service")
	if err := config.LoadDotEnv(); err != nil {
		boot.Error().Err(err).Msg("Failed to load .env")
		return err
	}

	cfg, err := config.New()
	if err != nil {
		boot.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	log := logger.NewWithWriter(os.Stdout, "memo-service", cfg.LogLevel)

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("summary_model", cfg.SummaryModel).
		Bool("summary_enabled", cfg.HasSummaryCredential()).
		Bool("revalidate_webhook", cfg.RevalidateWebhookURL != "").
		Msg("Memo service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	m := metrics.New()
	svcHealth := startHealthCheckers(ctx, cfg, log, st)

	router, err := buildRouter(cfg, log, st, m, svcHealth)
	if err != nil {
		return err
	}

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
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

// buildRouter wires the repository, gateway and pages into HTTP routes.
func buildRouter(cfg *config.Config, log zerolog.Logger, st store.Store, m *metrics.Metrics, svcHealth *health.ServiceHealthChecker) (*mux.Router, error) {
	repo := memo.NewRepository(st, log,
		memo.WithNotifier(factory.NewNotifier(cfg, log)),
		memo.WithMetrics(m),
	)
	pages, err := view.NewPages()
	if err != nil {
		log.Error().Stack().Err(err).Msg("Failed to load page templates")
		return nil, err
	}
	return api.NewRouter(api.Deps{
		Repo:       repo,
		Gateway:    factory.NewSummaryGateway(cfg, log, m),
		Pages:      pages,
		Metrics:    m,
		Log:        log,
		IsHealthy:  svcHealth.IsHealthy,
		Components: svcHealth.Components,
	}), nil
}

// startHealthCheckers starts the store checker and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := health.NewPingChecker("store", st, log, probeTimeout)
	// First probe runs inline so the aggregator's first evaluation sees it.
	storeChecker.Probe(ctx)
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

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
