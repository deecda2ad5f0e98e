package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/unisupport-api/internal/repository"
	"github.com/noah-isme/unisupport-api/internal/seed"
	"github.com/noah-isme/unisupport-api/internal/service"
	"github.com/noah-isme/unisupport-api/pkg/cache"
	"github.com/noah-isme/unisupport-api/pkg/config"
	"github.com/noah-isme/unisupport-api/pkg/jobs"
	"github.com/noah-isme/unisupport-api/pkg/logger"
)

// @title UniSupport API
// @version 1.0.0
// @description Student wellbeing: mood tracking and support service appointments
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := openStores(ctx, cfg, logr)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, slot cache disabled", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	if redisClient != nil {
		st.probes["redis"] = cacheRepo.Ping
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.SlotsTTL, logr, cfg.Cache.Enabled && redisClient != nil)
	validate := validator.New()
	location := cfg.Slots.Location()

	authSvc := service.NewAuthService(st.users, st.students, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	catalogSvc := service.NewCatalogService(st.catalog, cacheSvc, metrics, validate, logr, service.CatalogConfig{
		Location: location,
		SlotsTTL: cfg.Cache.SlotsTTL,
	})
	wellbeingSvc := service.NewWellbeingService(st.students, st.ledger, catalogSvc, st.users, metrics, validate, logr, service.WellbeingConfig{
		Location: location,
	})
	exportSvc := service.NewExportService(wellbeingSvc, location, logr, nil, nil)

	if st.seed {
		if _, err := seed.New(st.users, st.students, catalogSvc, logr, 0).Run(ctx, seed.DefaultAccounts, seed.DefaultServices); err != nil {
			return fmt.Errorf("seed in-memory store: %w", err)
		}
	}

	if cfg.Slots.ReplenishEnabled {
		queue := jobs.NewQueue("slots", jobs.QueueConfig{
			Workers:    cfg.Slots.WorkerConcurrency,
			MaxRetries: cfg.Slots.WorkerRetries,
			Logger:     logr,
		})
		replenisher := service.NewSlotReplenisher(catalogSvc, queue, logr, service.SlotReplenisherConfig{
			Schedule: cfg.Slots.ReplenishSchedule,
			Location: location,
		})
		if err := replenisher.Start(ctx); err != nil {
			return err
		}
		defer replenisher.Stop()
	}

	router := newRouter(cfg, logr, routerDeps{
		auth:      authSvc,
		catalog:   catalogSvc,
		wellbeing: wellbeingSvc,
		exports:   exportSvc,
		metrics:   metrics,
		audit:     st.users,
		probes:    st.probes,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}
