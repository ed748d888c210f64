package repository

import (
	"context"
	"errors"
	"fmt"

	"rentwheels/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PostgreSQL error codes
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

const couponColumns = `code, description, discount_type, discount_value, min_amount, max_discount,
	validity_start, validity_end, usage_limit, used_count, applicable_to, car_ids, user_id,
	is_active, created_at, updated_at`

const redemptionColumns = `id, coupon_code, booking_id, user_id, car_id, discount_applied, used_at`

// couponRepository implements CouponStore using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon store.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponStore {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// ReservesAtomically reports that Reserve runs as a single transaction.
func (r *couponRepository) ReservesAtomically() bool {
	return true
}

// GetByCode retrieves a coupon by its code.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	c, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return c, nil
}

// List retrieves coupons with pagination support.
func (r *couponRepository) List(ctx context.Context, limit, offset int) ([]model.Coupon, error) {
	if limit <= 0 {
		return []model.Coupon{}, nil
	}
	offset = max(offset, 0)

	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY code LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query coupons")
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]model.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan coupon row")
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating coupon rows")
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// Create inserts a new coupon.
func (r *couponRepository) Create(ctx context.Context, c *model.Coupon) error {
	query := `
		INSERT INTO coupons (code, description, discount_type, discount_value, min_amount, max_discount,
			validity_start, validity_end, usage_limit, used_count, applicable_to, car_ids, user_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		c.Code, c.Description, string(c.DiscountType), c.DiscountValue, c.MinAmount, nullDecimal(c.MaxDiscount),
		c.ValidityStart, c.ValidityEnd, c.UsageLimit, c.UsedCount, string(c.ApplicableTo), carIDs(c), c.UserID, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return model.ErrCouponExists
		}
		if pgErrorCode(err) == pgCheckViolation {
			return model.ErrInvalidCoupon
		}
		r.logger.Error().Err(err).Str("code", c.Code).Msg("failed to create coupon")
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	r.logger.Debug().Str("code", c.Code).Msg("coupon created successfully")

	return nil
}

// Update replaces the editable fields of a coupon. The usage limit is only lowered while it
// stays at or above used_count, checked in the same statement. A nil active keeps is_active.
func (r *couponRepository) Update(ctx context.Context, c *model.Coupon, active *bool) (*model.Coupon, error) {
	query := `
		UPDATE coupons
		SET description = $2, discount_type = $3, discount_value = $4, min_amount = $5, max_discount = $6,
			validity_start = $7, validity_end = $8, usage_limit = $9, applicable_to = $10, car_ids = $11,
			user_id = $12, is_active = COALESCE($13, is_active), updated_at = NOW()
		WHERE code = $1 AND used_count <= $9
		RETURNING ` + couponColumns

	updated, err := scanCoupon(r.pool.QueryRow(ctx, query,
		c.Code, c.Description, string(c.DiscountType), c.DiscountValue, c.MinAmount, nullDecimal(c.MaxDiscount),
		c.ValidityStart, c.ValidityEnd, c.UsageLimit, string(c.ApplicableTo), carIDs(c), c.UserID, active,
	))
	if err == nil {
		r.logger.Debug().Str("code", c.Code).Msg("coupon updated successfully")
		return updated, nil
	}

	if pgErrorCode(err) == pgCheckViolation {
		return nil, model.ErrInvalidCoupon
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error().Err(err).Str("code", c.Code).Msg("failed to update coupon")
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}

	exists, err := r.exists(ctx, c.Code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrCouponNotFound
	}
	return nil, model.ErrUsageLimitBelowUsed
}

// SetActive toggles a coupon's active flag.
func (r *couponRepository) SetActive(ctx context.Context, code string, active bool) (*model.Coupon, error) {
	query := `UPDATE coupons SET is_active = $2, updated_at = NOW() WHERE code = $1 RETURNING ` + couponColumns

	c, err := scanCoupon(r.pool.QueryRow(ctx, query, code, active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCouponNotFound
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to toggle coupon")
		return nil, fmt.Errorf("failed to toggle coupon: %w", err)
	}

	r.logger.Debug().Str("code", code).Bool("active", active).Msg("coupon toggled")

	return c, nil
}

// Delete removes a coupon. The redemption foreign key refuses the delete while history exists
// unless force removes the history first in the same transaction.
func (r *couponRepository) Delete(ctx context.Context, code string, force bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if force {
		tag, err := tx.Exec(ctx, `DELETE FROM coupon_redemptions WHERE coupon_code = $1`, code)
		if err != nil {
			r.logger.Error().Err(err).Str("code", code).Msg("failed to delete coupon redemptions")
			return fmt.Errorf("failed to delete coupon redemptions: %w", err)
		}
		r.logger.Warn().
			Str("code", code).
			Int64("redemptions", tag.RowsAffected()).
			Msg("deleting coupon redemption history")
	}

	tag, err := tx.Exec(ctx, `DELETE FROM coupons WHERE code = $1`, code)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return model.ErrCouponHasRedemptions
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to delete coupon")
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCouponNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("code", code).Msg("failed to commit coupon delete")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info().Str("code", code).Bool("force", force).Msg("coupon deleted")

	return nil
}

// Reserve inserts the redemption and increments used_count in one transaction.
//
// The insert goes first: the unique (coupon_code, booking_id) constraint detects a replayed
// booking and the foreign key detects a missing coupon. The conditional UPDATE then takes the
// row lock and is re-evaluated against the latest committed used_count, so concurrent
// reservations can never push it past usage_limit.
func (r *couponRepository) Reserve(ctx context.Context, red *model.Redemption) (*model.Redemption, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insert := `
		INSERT INTO coupon_redemptions (` + redemptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (coupon_code, booking_id) DO NOTHING
	`
	tag, err := tx.Exec(ctx, insert,
		red.ID, red.CouponCode, red.BookingID, red.UserID, red.CarID, red.DiscountApplied, red.UsedAt)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, false, model.ErrCouponNotFound
		}
		r.logger.Error().Err(err).Str("code", red.CouponCode).Msg("failed to insert redemption")
		return nil, false, fmt.Errorf("failed to insert redemption: %w", err)
	}

	if tag.RowsAffected() == 0 {
		_ = tx.Rollback(ctx)

		existing, err := r.FindRedemption(ctx, red.CouponCode, red.BookingID)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, fmt.Errorf("redemption for booking %s conflicted but could not be read back", red.BookingID)
		}
		return existing, false, nil
	}

	tag, err = tx.Exec(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE code = $1 AND used_count < usage_limit
	`, red.CouponCode)
	if err != nil {
		r.logger.Error().Err(err).Str("code", red.CouponCode).Msg("failed to increment coupon usage")
		return nil, false, fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, false, model.ErrCouponUsageExhausted
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("code", red.CouponCode).Msg("failed to commit reservation")
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug().
		Str("code", red.CouponCode).
		Str("booking_id", red.BookingID).
		Str("redemption_id", red.ID.String()).
		Msg("coupon usage reserved")

	stored := *red
	return &stored, true, nil
}

// FindRedemption looks up a coupon's redemption for a booking.
func (r *couponRepository) FindRedemption(ctx context.Context, code, bookingID string) (*model.Redemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM coupon_redemptions WHERE coupon_code = $1 AND booking_id = $2`

	red, err := scanRedemption(r.pool.QueryRow(ctx, query, code, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).
			Str("code", code).
			Str("booking_id", bookingID).
			Msg("failed to query redemption")
		return nil, fmt.Errorf("failed to query redemption: %w", err)
	}

	return red, nil
}

// ListRedemptions retrieves a coupon's redemptions, newest first.
func (r *couponRepository) ListRedemptions(ctx context.Context, code string, limit, offset int) ([]model.Redemption, error) {
	if limit <= 0 {
		return []model.Redemption{}, nil
	}
	offset = max(offset, 0)

	query := `
		SELECT ` + redemptionColumns + `
		FROM coupon_redemptions
		WHERE coupon_code = $1
		ORDER BY used_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, code, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query redemptions")
		return nil, fmt.Errorf("failed to query redemptions: %w", err)
	}
	defer rows.Close()

	redemptions := make([]model.Redemption, 0)
	for rows.Next() {
		red, err := scanRedemption(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan redemption row")
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		redemptions = append(redemptions, *red)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating redemption rows")
		return nil, fmt.Errorf("error iterating redemptions: %w", err)
	}

	return redemptions, nil
}

func (r *couponRepository) exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM coupons WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		r.logger.Error().Err(err).Str("code", code).Msg("failed to check coupon existence")
		return false, fmt.Errorf("failed to check coupon existence: %w", err)
	}
	return exists, nil
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var (
		c            model.Coupon
		discountType string
		applicableTo string
		maxDiscount  decimal.NullDecimal
	)

	err := row.Scan(
		&c.Code,
		&c.Description,
		&discountType,
		&c.DiscountValue,
		&c.MinAmount,
		&maxDiscount,
		&c.ValidityStart,
		&c.ValidityEnd,
		&c.UsageLimit,
		&c.UsedCount,
		&applicableTo,
		&c.CarIDs,
		&c.UserID,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.DiscountType = model.DiscountType(discountType)
	c.ApplicableTo = model.Applicability(applicableTo)
	if maxDiscount.Valid {
		c.MaxDiscount = &maxDiscount.Decimal
	}
	if len(c.CarIDs) == 0 {
		c.CarIDs = nil
	}

	return &c, nil
}

func scanRedemption(row pgx.Row) (*model.Redemption, error) {
	var red model.Redemption
	err := row.Scan(
		&red.ID,
		&red.CouponCode,
		&red.BookingID,
		&red.UserID,
		&red.CarID,
		&red.DiscountApplied,
		&red.UsedAt,
	)
	if err != nil {
		return nil, err
	}
	return &red, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// carIDs never returns nil so the NOT NULL array column receives '{}'.
func carIDs(c *model.Coupon) []string {
	if c.CarIDs == nil {
		return []string{}
	}
	return c.CarIDs
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
