package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/wisbric/kubeowl/internal/config"
	"github.com/wisbric/kubeowl/internal/httpserver"
	"github.com/wisbric/kubeowl/internal/platform"
	"github.com/wisbric/kubeowl/internal/telemetry"
	"github.com/wisbric/kubeowl/pkg/cluster"
	"github.com/wisbric/kubeowl/pkg/diagnosis"
	"github.com/wisbric/kubeowl/pkg/fault"
	"github.com/wisbric/kubeowl/pkg/kube"
	"github.com/wisbric/kubeowl/pkg/notify"
	"github.com/wisbric/kubeowl/pkg/scan"
)

// Run is the main application entry point. It takes the loaded config,
// connects to infrastructure, and starts the appropriate mode (api or worker).
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting kubeowl",
		"mode", cfg.Mode,
		"listen", cfg.ListenAddr(),
	)

	// Database
	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	// Redis (resource list cache)
	rdb, err := platform.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	// Migrations
	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	// Metrics
	metricsReg := telemetry.NewMetricsRegistry(telemetry.All()...)

	// Cluster registry
	factory := cluster.NewFactory(logger)
	clusterStore := cluster.NewStore(db)
	clusterService := cluster.NewService(clusterStore, factory, logger)
	if err := clusterService.ReconcileAtStartup(ctx); err != nil {
		return fmt.Errorf("startup reconciliation: %w", err)
	}

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, db, rdb, metricsReg, clusterService)
	case "worker":
		return runWorker(ctx, cfg, logger, clusterService)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry, clusterService *cluster.Service) error {
	// Resource accessor with the Redis-backed list cache.
	listCache := kube.NewListCache(rdb, logger)
	accessor := kube.NewAccessor(clusterService, listCache, logger)

	// Fault classification and scanning.
	classifier := fault.NewClassifier(logger, fault.DefaultDetectors()...)
	scanner := scan.NewScanner(accessor, classifier, logger)

	// Slack notifier (noop unless configured).
	notifier := notify.NewNotifier(cfg.SlackBotToken, cfg.SlackAlertChannel, logger)
	if notifier.IsEnabled() {
		logger.Info("slack notifications enabled", "channel", cfg.SlackAlertChannel)
	} else {
		logger.Info("slack notifications disabled (SLACK_BOT_TOKEN not set)")
	}

	// AI diagnosis engine.
	llm := diagnosis.NewOpenRouterClient(
		cfg.OpenRouterAPIURL, cfg.OpenRouterAPIKey, cfg.OpenRouterModel,
		cfg.OpenRouterMaxTokens, cfg.LLMTimeout(), logger,
	)
	engine := diagnosis.NewEngine(accessor, llm, diagnosis.Options{
		Enabled:      cfg.AIEnabled,
		MinSeverity:  fault.ParseSeverity(cfg.AIMinSeverity),
		CacheEnabled: cfg.AICacheEnabled,
		CacheTTL:     cfg.AICacheTTL(),
	}, cfg.OpenRouterTemperature, logger)

	srv := httpserver.NewServer(httpserver.ServerConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MetricsPath:        cfg.MetricsPath,
	}, logger, db, rdb, metricsReg)

	// Mount domain handlers.
	clusterHandler := cluster.NewHandler(clusterService, logger)
	srv.APIRouter.Mount("/clusters", clusterHandler.Routes())

	resourceHandler := kube.NewHandler(accessor, logger)
	srv.APIRouter.Mount("/resources", resourceHandler.Routes())

	scanHandler := scan.NewHandler(scanner, notifier, logger)
	srv.APIRouter.Mount("/scans", scanHandler.Routes())

	diagnosisHandler := diagnosis.NewHandler(engine, logger)
	srv.APIRouter.Mount("/diagnoses", diagnosisHandler.Routes())

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, clusterService *cluster.Service) error {
	interval, err := time.ParseDuration(cfg.RefreshInterval)
	if err != nil || interval <= 0 {
		interval = 30 * time.Second
	}
	logger.Info("worker started", "refresh_interval", interval.String())
	return clusterService.RunRefreshLoop(ctx, interval)
}
