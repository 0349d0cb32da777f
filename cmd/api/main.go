package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/api/middleware"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/prizetable"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/ratelimit"
	timeProvider "github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/bootstrap"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/config"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/jobs"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger, err := logger.NewZapLogger(logger.Options{
		Format:     cfg.Logger.Format,
		Level:      cfg.Logger.Level,
		Production: cfg.Environment == config.Production,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = appLogger.Flush() }()

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Server terminated", map[string]any{"error": err.Error()})
		_ = appLogger.Flush()
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLogger coreport.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := timeProvider.NewRealTimeProvider()
	fs := afero.NewOsFs()

	location, err := time.LoadLocation(cfg.Game.TimeZone)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	// A malformed prize table prevents startup
	table, err := prizetable.NewLoader(fs).Load(cfg.Game.ItemsPath)
	if err != nil {
		return err
	}
	appLogger.Info("Prize table loaded", map[string]any{
		"path":         cfg.Game.ItemsPath,
		"items":        table.Len(),
		"total_weight": table.TotalWeight().String(),
	})

	store, err := bootstrap.OpenStore(ctx, cfg, fs, tp, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Warn("Failed to close store", map[string]any{"error": err.Error()})
		}
	}()
	appLogger.Info("Store opened", map[string]any{"driver": store.Driver, "path": cfg.Store.Path})

	services, err := bootstrap.NewServices(store.UnitOfWork, bootstrap.ServiceOptions{
		Table:        table,
		Random:       timeProvider.NewRandomSource(),
		SpinCost:     cfg.Game.SpinCost,
		AdminKey:     cfg.Admin.Key,
		AdminKeyHash: cfg.Admin.KeyHash,
	}, tp, appLogger)
	if err != nil {
		return err
	}
	if !services.Admin.Configured() {
		appLogger.Warn("No admin key configured; /api/admin/add-code will answer 500", nil)
	}

	limiter, closeLimiter, err := newRedeemLimiter(ctx, cfg, tp)
	if err != nil {
		return err
	}
	defer closeLimiter()

	router := routes.NewRouter(routes.Dependencies{
		WheelHandler:      handler.NewWheelHandler(services.Ledger, services.Spin, location, cfg.Game.HistoryLimit, appLogger),
		RedemptionHandler: handler.NewRedemptionHandler(services.Redemption, appLogger),
		HealthHandler:     handler.NewHealthHandler(store.Pinger, appLogger),
		Identity:          services.Identity,
		Cookie: middleware.CookieConfig{
			Name:   cfg.Identity.CookieName,
			MaxAge: cfg.Identity.CookieMaxAge,
			Secure: cfg.Identity.CookieSecure,
		},
		RedeemLimiter:  limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		StaticDir:      cfg.Server.StaticDir,
		Logger:         appLogger,
		TimeProvider:   tp,
	})
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}

	scheduler := jobs.NewScheduler(location, appLogger)
	if cfg.Backup.Enabled {
		backup := jobs.NewSnapshotBackup(services.Snapshot, fs, cfg.Backup.Dir, cfg.Backup.Keep, tp, appLogger)
		if err := scheduler.Add(ctx, cfg.Backup.Schedule, "store-snapshot", backup.Job); err != nil {
			return fmt.Errorf("schedule backups: %w", err)
		}
	}
	scheduler.Start()

	// Create HTTP server with configurable timeout values
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting server", map[string]any{
			"addr": server.Addr,
			"env":  cfg.Environment,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{"error": err.Error()})
	}
	scheduler.Stop(shutdownCtx)

	appLogger.Info("Server exited gracefully", nil)
	return nil
}

// newRedeemLimiter builds the redemption throttle. A nil limiter disables throttling.
func newRedeemLimiter(ctx context.Context, cfg *config.Config, tp coreport.TimeProvider) (coreport.RateLimiter, func(), error) {
	noop := func() {}
	if !cfg.RateLimit.Enabled {
		return nil, noop, nil
	}

	switch cfg.RateLimit.Backend {
	case config.LimiterRedis:
		client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, noop, fmt.Errorf("connect to redis: %w", err)
		}
		limiter := ratelimit.NewRedisLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window, ratelimit.DefaultKeyPrefix, tp)
		return limiter, func() { _ = client.Close() }, nil
	default:
		return ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, tp), noop, nil
	}
}
