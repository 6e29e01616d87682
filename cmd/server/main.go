package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "moviescout/discoveryservice/internal/api/http"
	"moviescout/discoveryservice/internal/app"
	"moviescout/discoveryservice/internal/cache"
	"moviescout/discoveryservice/internal/metrics"
	"moviescout/discoveryservice/internal/pipeline"
	"moviescout/discoveryservice/internal/providers/omdb"
	"moviescout/discoveryservice/internal/providers/tmdb"
	"moviescout/discoveryservice/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "movie-discovery")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "movie-discovery"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Bool("hasOMDBKey", cfg.OMDBAPIKey != ""),
		slog.Bool("hasTMDBKey", cfg.TMDBAPIKey != ""),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Duration("cacheTTL", cfg.CacheTTL),
		slog.Duration("searchTimeout", cfg.SearchTimeout),
		slog.Duration("detailTimeout", cfg.DetailTimeout),
	)
	if cfg.OMDBAPIKey == "" {
		logger.Warn("OMDB_API_KEY is not set; provider requests will be rejected upstream")
	}

	store := buildCacheStore(cfg, logger)

	omdbClient := omdb.NewClient(omdb.Config{
		APIKey:        cfg.OMDBAPIKey,
		BaseURL:       cfg.OMDBBaseURL,
		UserAgent:     cfg.UserAgent,
		Client:        &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		SearchTimeout: cfg.SearchTimeout,
		DetailTimeout: cfg.DetailTimeout,
	})

	serviceOpts := []pipeline.ServiceOption{
		pipeline.WithLogger(logger),
		pipeline.WithCacheTTL(cfg.CacheTTL),
	}
	if cfg.TMDBAPIKey != "" {
		tmdbClient := tmdb.NewClient(tmdb.Config{
			APIKey:  cfg.TMDBAPIKey,
			BaseURL: cfg.TMDBBaseURL,
			Client:  &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Store:   store,
		})
		serviceOpts = append(serviceOpts, pipeline.WithCatalog(tmdbClient))
		logger.Info("tmdb catalog provider enabled")
	} else {
		logger.Info("tmdb api key not configured, catalog supplement disabled")
	}

	discovery := pipeline.NewService(omdbClient, store, serviceOpts...)

	handler := apihttp.NewServer(discovery, apihttp.WithLogger(logger)).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("movie discovery service started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("movie discovery service stopped")
}

// buildCacheStore connects to Redis when configured, falling back to the
// in-process store when the URL is invalid or Redis is unreachable.
func buildCacheStore(cfg app.Config, logger *slog.Logger) cache.Store {
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		logger.Info("redis not configured, using in-memory cache")
		return cache.NewMemoryStore()
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory cache", slog.String("error", err.Error()))
		return cache.NewMemoryStore()
	}
	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	store := cache.NewRedisStore(client, logger)
	if err := store.Ping(pingCtx); err != nil {
		logger.Warn("redis not reachable, using in-memory cache", slog.String("error", err.Error()))
		return cache.NewMemoryStore()
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return store
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
