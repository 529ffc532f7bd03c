// Command server starts the oj-catalog HTTP server: the public similarity
// and daily-challenge API plus the admin crawler/embedding supervisor.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cxyfer/oj-catalog/internal/adapter/cache"
	sqliterepo "github.com/cxyfer/oj-catalog/internal/adapter/repo/sqlite"
	"github.com/cxyfer/oj-catalog/internal/adapter/embedder"
	httpserver "github.com/cxyfer/oj-catalog/internal/adapter/httpserver"
	vectorrepo "github.com/cxyfer/oj-catalog/internal/adapter/vector"
	"github.com/cxyfer/oj-catalog/internal/app"
	"github.com/cxyfer/oj-catalog/internal/config"
	"github.com/cxyfer/oj-catalog/internal/observability"
	"github.com/cxyfer/oj-catalog/internal/procexec"
	"github.com/cxyfer/oj-catalog/internal/supervisor"
	"github.com/cxyfer/oj-catalog/internal/usecase"
)

func main() {
	envCfg, err := config.LoadEnv()
	if err != nil {
		panic(err)
	}
	fileCfg := config.LoadFile()

	logger := observability.SetupLogger(observability.LoggerOptions{
		ServiceName: envCfg.OTELServiceName,
		Env:         envCfg.AppEnv,
		Debug:       fileCfg.Logging.Level == "debug",
	})
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(observability.TracingOptions{
		OTLPEndpoint: envCfg.OTLPEndpoint,
		ServiceName:  envCfg.OTELServiceName,
		Env:          envCfg.AppEnv,
	})
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	pools, err := sqliterepo.OpenPools(
		fileCfg.Database.Path,
		int(fileCfg.Database.PoolMaxSize),
		int(fileCfg.Database.PoolMaxSize),
		int(fileCfg.Database.BusyTimeoutMS),
	)
	if err != nil {
		slog.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = pools.Close() }()

	if err := sqliterepo.EnsureSchema(pools); err != nil {
		slog.Error("failed to ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := app.StartupSelfCheck(startupCtx, pools.RO); err != nil {
		slog.Error("startup self-check failed: sqlite-vec did not load", slog.Any("error", err))
		startupCancel()
		os.Exit(1)
	}
	startupCancel()

	seedTokenAuthSetting(context.Background(), sqliterepo.NewSettingsRepository(pools), envCfg.OJAPITokenAuthDefault)

	catalogRepo := sqliterepo.NewCatalogRepository(pools)
	dailyRepo := sqliterepo.NewDailyRepository(pools)
	tokenRepo := sqliterepo.NewTokenRepository(pools)
	settingsRepo := sqliterepo.NewSettingsRepository(pools)
	vectorRepo := vectorrepo.New(pools.RO)

	launcher := procexec.NewLauncher()

	scriptsDir := "scripts"
	logsDir := "scripts/logs"
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		slog.Error("failed to create logs directory", slog.Any("error", err))
		os.Exit(1)
	}

	supervisorCfg := supervisor.Config{
		ScriptsDir:     scriptsDir,
		LogsDir:        logsDir,
		DefaultTimeout: time.Duration(fileCfg.Crawler.TimeoutSecs) * time.Second,
		ConfigPath:     fileCfg.ConfigPath,
	}
	sv := supervisor.New(supervisorCfg, launcher, logger, observability.JobMetrics{})
	fallback := supervisor.NewFallbackCoordinator(supervisorCfg, launcher, logger)

	emb := embedder.New(embedder.Config{
		WorkDir:     scriptsDir,
		Timeout:     time.Duration(fileCfg.Embedding.TimeoutSecs) * time.Second,
		Concurrency: int(fileCfg.Embedding.Concurrency),
	})

	var redisClient *redis.Client
	if envCfg.RedisURL != "" {
		opts, err := redis.ParseURL(envCfg.RedisURL)
		if err != nil {
			slog.Error("failed to parse REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
	}

	catalogFacade := usecase.NewCatalogFacade(cache.New(redisClient, catalogRepo))
	dailyFacade := usecase.NewDailyFacade(cache.NewDaily(redisClient, dailyRepo), fallback)
	similarityEngine := usecase.NewSimilarityEngine(vectorRepo, catalogRepo, emb)

	dbCheck, vecCheck := app.BuildReadinessChecks(pools.RO)

	srv := httpserver.NewServer(
		catalogFacade, dailyFacade, similarityEngine,
		tokenRepo, settingsRepo, vectorRepo, sv,
		dbCheck, vecCheck, logsDir, logger,
	)

	handler := app.BuildRouter(envCfg, envCfg.CORSAllowOrigins, envCfg.RateLimitPerMin, srv)

	httpSrv := &http.Server{
		Addr:              fileCfg.Server.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.String("addr", fileCfg.Server.ListenAddr))
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(fileCfg.Server.GracefulShutdownSecs)*time.Second,
	)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
}

func seedTokenAuthSetting(ctx context.Context, settings *sqliterepo.SettingsRepository, defaultEnabled bool) {
	if _, found, err := settings.GetSetting(ctx, "token_auth_enabled"); err == nil && found {
		return
	}
	value := fmt.Sprintf("%t", defaultEnabled)
	if err := settings.SetSetting(ctx, "token_auth_enabled", value); err != nil {
		slog.Warn("failed to seed token_auth_enabled setting", slog.Any("error", err))
	}
}
