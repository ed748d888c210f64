package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentwheels/internal/config"
	"rentwheels/internal/coupon"
	"rentwheels/internal/database"
	"rentwheels/internal/handler"
	"rentwheels/internal/middleware"
	"rentwheels/internal/repository"
	"rentwheels/internal/router"
	"rentwheels/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("store", cfg.Store.Driver).Msg("starting rentwheels pricing API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Seed.Enabled {
		if err := seedCatalogue(ctx, cfg, store, logger); err != nil {
			return err
		}
	}

	// Initialize services
	pricingService := service.NewPricingService(store, logger)
	redemptionService := service.NewRedemptionCoordinator(store, logger)
	couponService := service.NewCouponAdminService(store, logger)

	// Initialize HTTP handlers
	pricingHandler := handler.NewPricingHandler(pricingService, logger)
	redemptionHandler := handler.NewRedemptionHandler(redemptionService, logger)
	couponHandler := handler.NewCouponHandler(couponService, logger)

	var limiter *middleware.ClientRateLimiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = middleware.NewClientRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	// Initialize router
	mux := router.New(pricingHandler, redemptionHandler, couponHandler, cfg.Auth.APIKey, limiter, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		// In-flight redemptions finish before the store is closed.
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// openStore connects the configured coupon store backend.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.CouponStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		return repository.NewRedisStore(client, logger), func() { _ = client.Close() }, nil

	case config.StoreDriverMemory:
		logger.Warn().Msg("using in-memory coupon store, usage counts are lost on restart")
		return repository.NewMemoryStore(), func() {}, nil

	default:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.EnsureSchema(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to apply database schema: %w", err)
		}
		return repository.NewCouponRepository(pool, logger), pool.Close, nil
	}
}

// seedCatalogue creates the catalogue coupons that the store does not hold yet.
func seedCatalogue(ctx context.Context, cfg *config.Config, store repository.CouponStore, logger zerolog.Logger) error {
	fileLoader := coupon.NewFileLoader(logger)

	var s3Loader coupon.Loader
	if cfg.S3.Enabled {
		l, err := coupon.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	} else {
		logger.Info().Msg("using local file system for coupon catalogue (S3 disabled)")
	}

	loader := coupon.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, cfg.S3.Enabled, logger)
	if _, err := coupon.NewSeeder(loader, store, logger).Seed(ctx, cfg.Seed.Files); err != nil {
		return fmt.Errorf("failed to seed coupon catalogue: %w", err)
	}
	return nil
}
