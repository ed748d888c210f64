package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// migrations are idempotent and run in order on every start.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS coupons (
		code VARCHAR(50) PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		discount_type VARCHAR(20) NOT NULL CHECK (discount_type IN ('percentage', 'fixed')),
		discount_value NUMERIC(12,2) NOT NULL CHECK (discount_value > 0),
		min_amount NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (min_amount >= 0),
		max_discount NUMERIC(12,2) CHECK (max_discount IS NULL OR max_discount > 0),
		validity_start TIMESTAMPTZ NOT NULL,
		validity_end TIMESTAMPTZ NOT NULL,
		usage_limit INTEGER NOT NULL CHECK (usage_limit >= 1),
		used_count INTEGER NOT NULL DEFAULT 0,
		applicable_to VARCHAR(10) NOT NULL CHECK (applicable_to IN ('car', 'user', 'any')),
		car_ids TEXT[] NOT NULL DEFAULT '{}',
		user_id TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT coupons_used_count_within_limit CHECK (used_count >= 0 AND used_count <= usage_limit),
		CONSTRAINT coupons_validity_window CHECK (validity_start <= validity_end),
		CONSTRAINT coupons_percentage_range CHECK (discount_type <> 'percentage' OR discount_value <= 100)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_coupons_active_window ON coupons (is_active, validity_end);`,
	`CREATE TABLE IF NOT EXISTS coupon_redemptions (
		id UUID PRIMARY KEY,
		coupon_code VARCHAR(50) NOT NULL REFERENCES coupons(code),
		booking_id VARCHAR(100) NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		car_id TEXT NOT NULL DEFAULT '',
		discount_applied NUMERIC(12,2) NOT NULL CHECK (discount_applied >= 0),
		used_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT coupon_redemptions_booking_unique UNIQUE (coupon_code, booking_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_coupon_redemptions_used_at ON coupon_redemptions (coupon_code, used_at DESC);`,
}

// EnsureSchema creates the coupon tables and indexes when they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration %d: %w", i+1, err)
		}
	}

	logger.Info().Int("migrations", len(migrations)).Msg("database schema is up to date")
	return nil
}
