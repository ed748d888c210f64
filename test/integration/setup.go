package integration

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rentwheels/internal/config"
	"rentwheels/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
}

// SetupTestDB starts a PostgreSQL container and connects to it the way the server does,
// with the coupon schema applied.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  30,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.EnsureSchema(ctx, pool, logger); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
	}
}

// CleanupDB removes all coupons and redemptions.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "TRUNCATE coupon_redemptions, coupons"); err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// SetupTestRedis starts a Redis container and connects to it the way the server does.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	addr, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	client, err := database.NewRedisClient(ctx, config.RedisConfig{Addr: addr, PoolSize: 30}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return client
}

// WriteCatalogue writes coupon definitions as a gzip JSON-lines file in a temp dir and returns its path.
func WriteCatalogue(t *testing.T, name string, coupons ...map[string]any) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create catalogue: %v", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	enc := json.NewEncoder(gz)
	for _, c := range coupons {
		if err := enc.Encode(c); err != nil {
			t.Fatalf("failed to write catalogue: %v", err)
		}
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to flush catalogue: %v", err)
	}

	return path
}

// CouponDef returns an active coupon definition valid for the whole test run.
func CouponDef(code, discountType string, value, minAmount, usageLimit int) map[string]any {
	return map[string]any{
		"code":          code,
		"discountType":  discountType,
		"discountValue": value,
		"minAmount":     minAmount,
		"validityStart": "2020-01-01T00:00:00Z",
		"validityEnd":   "2099-12-31T23:59:59Z",
		"usageLimit":    usageLimit,
		"applicableTo":  "any",
	}
}
