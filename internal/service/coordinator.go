package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentwheels/internal/coupon"
	"rentwheels/internal/model"
	"rentwheels/internal/pricing"
	"rentwheels/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var errBookingIDRequired = model.NewDomainError(model.ErrCodeValidationFailed, "booking ID is required")

// redemptionCoordinator implements RedemptionService.
type redemptionCoordinator struct {
	store  repository.CouponStore
	locks  *keyedMutex
	now    func() time.Time
	logger zerolog.Logger
}

// NewRedemptionCoordinator creates a redemption service over store.
// Reservations are serialised per coupon code unless the store reserves atomically on its own.
func NewRedemptionCoordinator(store repository.CouponStore, logger zerolog.Logger) RedemptionService {
	return newRedemptionCoordinator(store, time.Now, logger)
}

func newRedemptionCoordinator(store repository.CouponStore, now func() time.Time, logger zerolog.Logger) *redemptionCoordinator {
	c := &redemptionCoordinator{
		store:  store,
		now:    now,
		logger: logger.With().Str("service", "redemption").Logger(),
	}
	if !repository.IsAtomic(store) {
		c.locks = newKeyedMutex()
		c.logger.Info().Msg("store does not reserve atomically, serialising reservations per coupon")
	}
	return c
}

// Redeem moves a request through validating and reserving to committed or rejected.
func (c *redemptionCoordinator) Redeem(ctx context.Context, req *model.RedeemRequest) (*model.RedeemResult, error) {
	code := model.NormalizeCode(req.Code)
	bookingID := strings.TrimSpace(req.BookingID)
	if bookingID == "" {
		return nil, errBookingIDRequired
	}

	log := c.logger.With().Str("coupon_code", code).Str("booking_id", bookingID).Logger()
	log.Debug().Msg("validating")

	// Price before the coupon; a malformed stay or amount is a rejection, not an error.
	base, err := quoteRedeem(req, decimal.Zero)
	if err != nil {
		if reason, ok := model.AsDomainError(err); ok {
			return c.reject(log, reason, nil), nil
		}
		return nil, err
	}

	if code == "" {
		return c.reject(log, model.ErrCouponNotFound, base), nil
	}

	existing, err := c.store.FindRedemption(ctx, code, bookingID)
	if err != nil {
		log.Error().Err(err).Msg("failed to look up existing redemption")
		return nil, storeError("look up redemption", err)
	}
	if existing != nil {
		return c.replay(log, req, existing)
	}

	cp, err := c.store.GetByCode(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("failed to load coupon")
		return nil, storeError("load coupon", err)
	}

	now := c.now()
	rc := req.Context()
	if reason := coupon.CheckEligibility(cp, base.TotalPrice, rc, now); reason != nil {
		return c.reject(log, reason, base), nil
	}

	breakdown, err := quoteRedeem(req, coupon.CalculateDiscount(cp, base.TotalPrice))
	if err != nil {
		return nil, err
	}
	breakdown.CouponCode = code

	redemption := &model.Redemption{
		ID:              uuid.New(),
		CouponCode:      code,
		BookingID:       bookingID,
		UserID:          rc.UserID,
		CarID:           rc.CarID,
		DiscountApplied: breakdown.Discount,
		UsedAt:          now.UTC(),
	}

	log.Debug().Str("discount", breakdown.Discount.String()).Msg("reserving")
	stored, created, err := c.reserve(ctx, redemption)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCouponUsageExhausted):
			return c.reject(log, model.ErrCouponUsageExhausted, base), nil
		case errors.Is(err, model.ErrCouponNotFound):
			return c.reject(log, model.ErrCouponNotFound, base), nil
		}
		log.Error().Err(err).Msg("failed to reserve coupon")
		return nil, storeError("reserve coupon", err)
	}
	if !created {
		return c.replay(log, req, stored)
	}

	log.Info().
		Str("redemption_id", stored.ID.String()).
		Str("discount", stored.DiscountApplied.String()).
		Msg("committed")

	return &model.RedeemResult{
		Status:     model.RedeemCommitted,
		Breakdown:  breakdown,
		Redemption: stored,
	}, nil
}

// Lookup returns the committed redemption of a coupon for a booking.
func (c *redemptionCoordinator) Lookup(ctx context.Context, code, bookingID string) (*model.Redemption, error) {
	code = model.NormalizeCode(code)
	bookingID = strings.TrimSpace(bookingID)

	r, err := c.store.FindRedemption(ctx, code, bookingID)
	if err != nil {
		c.logger.Error().Err(err).Str("coupon_code", code).Str("booking_id", bookingID).Msg("failed to look up redemption")
		return nil, storeError("look up redemption", err)
	}
	if r == nil {
		return nil, model.ErrRedemptionNotFound
	}
	return r, nil
}

func (c *redemptionCoordinator) reserve(ctx context.Context, r *model.Redemption) (*model.Redemption, bool, error) {
	if c.locks != nil {
		unlock := c.locks.Lock(r.CouponCode)
		defer unlock()
	}
	return c.store.Reserve(ctx, r)
}

// replay reports a redemption the booking already holds. No usage is consumed.
func (c *redemptionCoordinator) replay(log zerolog.Logger, req *model.RedeemRequest, existing *model.Redemption) (*model.RedeemResult, error) {
	breakdown, err := quoteRedeem(req, existing.DiscountApplied)
	if err != nil {
		return nil, err
	}
	breakdown.CouponCode = existing.CouponCode

	log.Info().Str("redemption_id", existing.ID.String()).Msg("committed (replayed)")
	return &model.RedeemResult{
		Status:     model.RedeemCommitted,
		Breakdown:  breakdown,
		Redemption: existing,
		Replayed:   true,
	}, nil
}

// reject reports a business rejection together with the undiscounted price, when it could be computed.
func (c *redemptionCoordinator) reject(log zerolog.Logger, reason *model.DomainError, base *model.PriceBreakdown) *model.RedeemResult {
	log.Debug().Str("reason", reason.Code).Msg("rejected")
	result := model.Rejected(reason)
	result.Breakdown = base
	return result
}

// quoteRedeem prices a redeem request from its stay, or from its bare amount when no stay is given.
func quoteRedeem(req *model.RedeemRequest, discount decimal.Decimal) (*model.PriceBreakdown, error) {
	if req.Stay != nil {
		return pricing.Build(req.Stay.BasePricePerDay, req.Stay.Pickup, req.Stay.Drop, discount)
	}
	return pricing.FromTotal(req.Amount, discount)
}
