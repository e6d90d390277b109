package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/NeriVermilion/departure-planner/internal/config"
	"github.com/NeriVermilion/departure-planner/internal/handler"
	"github.com/NeriVermilion/departure-planner/internal/health"
	"github.com/NeriVermilion/departure-planner/internal/infra/geocode"
	"github.com/NeriVermilion/departure-planner/internal/infra/notification"
	"github.com/NeriVermilion/departure-planner/internal/infra/repository"
	"github.com/NeriVermilion/departure-planner/internal/infra/routing"
	"github.com/NeriVermilion/departure-planner/internal/infra/searchrecorder"
	"github.com/NeriVermilion/departure-planner/internal/observability"
	"github.com/NeriVermilion/departure-planner/internal/observability/logging"
	"github.com/NeriVermilion/departure-planner/internal/observability/metrics"
	"github.com/NeriVermilion/departure-planner/internal/observability/middleware"
	"github.com/NeriVermilion/departure-planner/internal/scheduler"
	"github.com/NeriVermilion/departure-planner/internal/service/search"
	"github.com/NeriVermilion/departure-planner/internal/service/solver"
	"github.com/NeriVermilion/departure-planner/internal/service/sweep"
)

const (
	routeMemoSize = 4096
	routeMemoTTL  = 5 * time.Minute
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	obs, err := initObservability(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	searchMetrics, err := metrics.NewSearchMetrics()
	if err != nil {
		slog.Error("failed to initialize search metrics", slog.String("error", err.Error()))
		return 1
	}

	recorderCfg := searchrecorder.LoadConfig()
	recorder, err := searchrecorder.NewRecorder(ctx, recorderCfg)
	if err != nil {
		slog.Error("failed to initialize search result recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			slog.Warn("failed to close search result recorder", slog.String("error", err.Error()))
		}
	}()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		slog.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}()

	slog.Info("redis connected",
		slog.String("addr", cfg.Redis.Addr),
	)

	pgPool, err := repository.NewPool(ctx, cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect postgres", slog.String("error", err.Error()))
		return 1
	}
	defer pgPool.Close()

	if err := repository.EnsureSchema(ctx, pgPool); err != nil {
		slog.Error("failed to ensure schema", slog.String("error", err.Error()))
		return 1
	}

	departureRepo := repository.NewDepartureRepository(pgPool, cfg.Sweep.BatchLimit)

	// Provider clients
	tmapClient := routing.NewTMapClient(cfg.Providers.TMapBaseURL, cfg.Providers.TMapAppKey)
	orsClient := routing.NewORSClient(cfg.Providers.ORSBaseURL, cfg.Providers.ORSAPIKey)
	googleClient := routing.NewGoogleTransitClient(cfg.Providers.GoogleMapsBaseURL, cfg.Providers.GoogleMapsAPIKey)
	routeMemo := routing.NewMemo(routeMemoSize, routeMemoTTL)

	naverClient := geocode.NewNaverClient(geocode.NaverClientOptions{
		MapBaseURL:         cfg.Providers.NaverMapBaseURL,
		MapClientID:        cfg.Providers.NaverMapClientID,
		MapClientSecret:    cfg.Providers.NaverMapClientSecret,
		SearchBaseURL:      cfg.Providers.NaverSearchBaseURL,
		SearchClientID:     cfg.Providers.NaverSearchClientID,
		SearchClientSecret: cfg.Providers.NaverSearchClientSecret,
	})
	cachedGeocoder := geocode.NewCachedGeocoder(redisClient, naverClient)

	// Services
	departureSolver := solver.New(cfg.Solver, searchMetrics)

	searchService := search.NewService(search.Deps{
		Geocoder:      cachedGeocoder,
		Places:        naverClient,
		Driving:       tmapClient,
		Walking:       tmapClient,
		Cycling:       orsClient,
		Transit:       googleClient,
		Solver:        departureSolver,
		Memo:          routeMemo,
		Departures:    departureRepo,
		Recorder:      recorder,
		SearchMetrics: searchMetrics,
	})

	tokenRefresher := notification.NewTokenRefresher(
		cfg.Notify.TokenEndpoint,
		cfg.Notify.ClientID,
		cfg.Notify.ClientSecret,
		cfg.Notify.RefreshToken,
	)
	chatChannel := notification.NewChatChannel(cfg.Notify.WebhookURL)

	sweepService := sweep.NewService(
		departureRepo,
		tokenRefresher,
		chatChannel,
		recorder,
		searchMetrics,
		cfg.Sweep,
		cfg.Notify.DeepLinkBaseURL,
	)

	sweepScheduler := scheduler.New(cfg.Sweep.Interval, func(ctx context.Context, now time.Time) {
		if _, err := sweepService.Run(ctx, now); err != nil {
			slog.ErrorContext(ctx, "sweep tick failed", slog.String("error", err.Error()))
		}
	})
	go sweepScheduler.Run(ctx)

	// Handlers
	searchHandler := handler.NewSearchHandler(searchService)
	geocodeHandler := handler.NewGeocodeHandler(cachedGeocoder, searchService)
	departureHandler := handler.NewDepartureHandler(searchService)

	// Setup router with observability middleware
	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:   []string{"/health", "/health/live", "/health/ready"},
		Module:      logging.Module("departure-planner"),
		HTTPMetrics: httpMetrics,
	}))
	r.Use(middleware.PanicRecoveryGin())

	// Health check endpoints
	healthChecker := health.NewChecker(redisClient, pgPool, Version)
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	// API routes
	v1 := r.Group("/api/v1")
	{
		v1.POST("/routes/search", searchHandler.HandleRouteSearch)
		v1.GET("/geocode", geocodeHandler.HandleGeocode)
		v1.GET("/search", geocodeHandler.HandlePlaceSearch)
		v1.GET("/departures", departureHandler.HandleListDepartures)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.Int("solver_max_iterations", cfg.Solver.MaxIterations),
			slog.Duration("sweep_interval", cfg.Sweep.Interval),
			slog.Duration("sweep_grace_period", cfg.Sweep.GracePeriod),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}

func initObservability(ctx context.Context, cfg *config.Config) (*observability.Resources, error) {
	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "departure-planner"
	}

	env := logging.EnvDev
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	return observability.Init(ctx, observability.Config{
		ServiceName:   serviceName,
		Version:       Version,
		Environment:   env,
		LogLevel:      cfg.LogLevel,
		SamplingRate:  1.0,
		DefaultModule: logging.Module("departure-planner"),
	})
}
