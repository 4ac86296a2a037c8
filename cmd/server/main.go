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

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/internal/config"
	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/repository"
	"github.com/wellness-in-schools/video-library/internal/handler"
	"github.com/wellness-in-schools/video-library/internal/metrics"
	"github.com/wellness-in-schools/video-library/internal/middleware"
	"github.com/wellness-in-schools/video-library/internal/retry"
	"github.com/wellness-in-schools/video-library/internal/service"
	"github.com/wellness-in-schools/video-library/internal/validation"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	pool, err := initDatabase(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Log.Info("database connection established",
		zap.Int32("maxConns", pool.Config().MaxConns),
	)

	var rec metrics.Recorder = metrics.Noop()
	if cfg.Metrics.Enabled {
		rec = metrics.New(prometheus.DefaultRegisterer)
	}

	videoRepo := repository.NewVideoRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)
	bannerRepo := repository.NewBannerRepository(pool)
	siteRepo := repository.NewSiteSettingsRepository(pool)

	checks := []handler.HealthChecker{handler.PingCheck("database", pool)}

	var board service.LeaderboardCache = service.NoopLeaderboardCache{}
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Log.Warn("redis unavailable, leaderboard reads go to postgres", zap.Error(err))
		} else {
			defer redisClient.Close()
			redisBoard := service.NewRedisLeaderboardCache(redisClient, cfg.Redis.LeaderboardKey, cfg.Redis.LeaderboardTTL)
			board = redisBoard
			checks = append(checks, handler.PingCheck("redis", redisBoard))
		}
	}

	var publisher service.EventPublisher = service.NoopPublisher{}
	if cfg.RabbitMQ.Enabled {
		mp, err := service.NewMessagePublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Log.Warn("rabbitmq unavailable, view events will not be published", zap.Error(err))
		} else {
			defer func() {
				if err := mp.Close(); err != nil {
					logger.Log.Warn("failed to close rabbitmq publisher", zap.Error(err))
				}
			}()
			publisher = mp
			checks = append(checks, handler.FlagCheck("rabbitmq", mp.IsHealthy))
		}
	}

	listCache := service.NoopListCache()
	if cfg.Cache.Enabled {
		listCache = service.NewListCache(cfg.Cache.SizeMB, cfg.Cache.TTL)
	}

	thumbnails, err := service.NewLocalThumbnailStore(cfg.Server.UploadDir, cfg.Server.UploadURLPrefix, cfg.Server.MaxThumbnailBytes)
	if err != nil {
		return fmt.Errorf("init thumbnail store: %w", err)
	}

	policy := retry.DefaultPolicy()
	policy.Attempts = cfg.Catalog.RetryAttempts
	policy.BaseDelay = cfg.Catalog.RetryBaseDelay

	validator := validation.New(validation.DefaultMinPasswordLength)

	catalogService := service.NewCatalogService(videoRepo, userRepo, listCache, policy, rec)
	tracker := service.NewTracker(db.NewTransactor(pool), videoRepo, userRepo, board, publisher, policy, rec)
	editor := service.NewEditor(videoRepo, thumbnails, validator, catalogService.Invalidate, cfg.Catalog.StrictContentID)
	userService := service.NewUserService(userRepo, videoRepo, validator)
	adminService := service.NewAdminService(userRepo, analyticsRepo, tracker.RefreshLeaderboard)
	bannerService := service.NewBannerService(bannerRepo, validator)
	siteService := service.NewSiteSettingsService(siteRepo, validator, cfg.Site.DefaultPassword, cfg.Site.BcryptCost)

	gin.SetMode(gin.ReleaseMode)
	routerCfg := handler.RouterConfig{
		Auth:               middleware.NewJWTAuth(cfg.Auth.JWTSecret),
		Recorder:           rec,
		Videos:             handler.NewVideoHandler(catalogService, tracker, cfg.Catalog.LeaderboardLimit),
		Users:              handler.NewUserHandler(userService, catalogService),
		Admin:              handler.NewAdminHandler(editor, adminService),
		Settings:           handler.NewSettingsHandler(bannerService, siteService),
		Health:             handler.NewHealthHandler(checks...),
		UploadURLPrefix:    cfg.Server.UploadURLPrefix,
		UploadDir:          cfg.Server.UploadDir,
		MaxMultipartMemory: cfg.Server.MaxThumbnailBytes,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsPath = cfg.Metrics.Path
		routerCfg.MetricsHandler = promhttp.Handler()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler.NewRouter(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.Bool("redis", cfg.Redis.Enabled),
			zap.Bool("rabbitmq", cfg.RabbitMQ.Enabled),
		)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Log.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Log.Error("graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Log.Error("failed to close server", zap.Error(err))
			}
			return err
		}

		logger.Log.Info("server stopped gracefully")
	}
	return nil
}

// initDatabase initializes the database connection pool.
func initDatabase(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	dbCfg := db.DefaultConfig()
	dbCfg.Host = cfg.Host
	dbCfg.Port = cfg.Port
	dbCfg.User = cfg.User
	dbCfg.Password = cfg.Password
	dbCfg.Database = cfg.Name
	dbCfg.SSLMode = cfg.SSLMode
	dbCfg.MaxConns = int32(cfg.MaxConnections)
	dbCfg.MinConns = int32(cfg.MinConnections)
	dbCfg.MaxConnIdleTime = cfg.MaxIdleTime
	dbCfg.MaxConnLifetime = cfg.MaxLifetime

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	return pool, nil
}

func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
