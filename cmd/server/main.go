package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/linktrail/linktrail/config"
	"github.com/linktrail/linktrail/internal/app/codefilter"
	appmodel "github.com/linktrail/linktrail/internal/app/model"
	apprepository "github.com/linktrail/linktrail/internal/app/repository"
	appserver "github.com/linktrail/linktrail/internal/app/server"
	appservice "github.com/linktrail/linktrail/internal/app/service"
	"github.com/linktrail/linktrail/internal/http/middleware"
	"github.com/linktrail/linktrail/internal/infra/geoip"
	"github.com/linktrail/linktrail/internal/infra/logger"
	infraNATS "github.com/linktrail/linktrail/internal/infra/nats"
	infraPostgres "github.com/linktrail/linktrail/internal/infra/postgres"
	infraPrometheus "github.com/linktrail/linktrail/internal/infra/prometheus"
	infraRedis "github.com/linktrail/linktrail/internal/infra/redis"
	"go.uber.org/zap"
)

const shortCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.String("nats_host", cfg.NATS.Host),
		zap.String("base_url", cfg.Server.BaseURL),
	)

	// Durable storage is attempted once; when Postgres is unreachable the
	// process runs on the in-memory store for its remaining lifetime.
	store, cleanup := openStore(ctx, cfg, log)
	defer cleanup()

	// Redis link cache is advisory and skipped when unavailable.
	if redisClient, err := infraRedis.NewClient(ctx, cfg.Redis); err != nil {
		log.Warn("Redis unavailable, serving without link cache", zap.Error(err))
	} else {
		defer redisClient.Close()
		store = apprepository.NewCachedStore(store, redisClient, log)
		log.Info("Connected to Redis successfully")
	}

	// NATS click fan-out is likewise optional.
	var clickPublisher *appservice.ClickPublisher
	if natsConn, js, err := infraNATS.Connect(cfg.NATS); err != nil {
		log.Warn("NATS unavailable, click fan-out disabled", zap.Error(err))
	} else {
		defer natsConn.Drain()
		if clickPublisher, err = appservice.NewClickPublisher(js); err != nil {
			log.Warn("Failed to prepare click stream, fan-out disabled", zap.Error(err))
			clickPublisher = nil
		} else {
			log.Info("Connected to NATS successfully")
		}
	}

	metrics := infraPrometheus.NewMetrics()
	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	filter := seedCodeFilter(ctx, store, log)

	generateCode, err := nanoid.CustomASCII(shortCodeAlphabet, 6)
	if err != nil {
		log.Fatal("Failed to build short code generator", zap.Error(err))
	}

	resolver := geoip.NewResolver(geoip.Config{
		Endpoint: cfg.GeoIP.Endpoint,
		Timeout:  parseDuration(cfg.GeoIP.Timeout),
	}, log)

	linkService := appservice.NewLinkService(store, generateCode, filter)
	clickRecorder := appservice.NewClickRecorder(store, resolver, clickPublisher, log)

	server := appserver.New(appserver.Dependencies{
		Logger:      log,
		Links:       store,
		LinkService: linkService,
		Clicks:      clickRecorder,
		Filter:      filter,
		Metrics:     metrics,
		BaseURL:     baseURL(cfg),
		RateLimit: middleware.RateLimitConfig{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      parseDuration(cfg.RateLimit.Window),
		},
	})

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}

	go func() {
		if err := server.Listen(fmt.Sprintf(":%d", port)); err != nil {
			log.Fatal("Fiber server exited", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// openStore attempts the durable variant first and falls back to memory.
// The decision is final for the process lifetime.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (apprepository.Store, func()) {
	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Warn("Postgres unavailable, falling back to in-memory storage", zap.Error(err))
		return apprepository.NewMemoryStore(), func() {}
	}

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.Link{}, &appmodel.Click{}); err != nil {
		log.Warn("Postgres migration failed, falling back to in-memory storage", zap.Error(err))
		return apprepository.NewMemoryStore(), func() {}
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Warn("Postgres pool unavailable, falling back to in-memory storage", zap.Error(err))
		return apprepository.NewMemoryStore(), func() {}
	}

	log.Info("Connected to Postgres successfully")
	cleanup := func() {
		pool.Close()
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return apprepository.NewPostgresStore(gormDB, pool), cleanup
}

func seedCodeFilter(ctx context.Context, store apprepository.Store, log *zap.Logger) *codefilter.Filter {
	codes, err := store.ShortCodes(ctx)
	if err != nil {
		// Without a seed the filter would report false negatives for
		// existing codes, so the gateway runs without it.
		log.Warn("Failed to seed short code filter, gateway will always hit the store", zap.Error(err))
		return nil
	}

	expected := uint(len(codes) * 2)
	if expected < 10000 {
		expected = 10000
	}
	filter := codefilter.New(expected)
	filter.Seed(codes)
	log.Info("Seeded short code filter", zap.Int("codes", len(codes)))
	return filter
}

func baseURL(cfg *config.Config) string {
	if cfg.Server.BaseURL != "" {
		return cfg.Server.BaseURL
	}
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

func parseDuration(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}
