package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"rentwheels/internal/config"
	"rentwheels/internal/database"
	"rentwheels/internal/repository"
)

// Connects to the configured coupon store and lists the first page of coupons with their usage.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store repository.CouponStore
	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to connect to redis: %v\n", err)
			os.Exit(1)
		}
		defer client.Close()
		store = repository.NewRedisStore(client, logger)
	case config.StoreDriverPostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()
		store = repository.NewCouponRepository(pool, logger)
	default:
		fmt.Fprintf(os.Stderr, "Store driver %q has nothing to check\n", cfg.Store.Driver)
		os.Exit(1)
	}

	coupons, err := store.List(ctx, 100, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to %s store\n", cfg.Store.Driver)
	fmt.Println("\nCoupons:")
	for _, c := range coupons {
		fmt.Printf("  - %-12s %d/%d used, active=%t\n", c.Code, c.UsedCount, c.UsageLimit, c.IsActive)
	}
}
