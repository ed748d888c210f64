package service

import (
	"context"
	"errors"
	"fmt"

	"rentwheels/internal/model"

	"github.com/shopspring/decimal"
)

// ErrStoreUnavailable marks failures of the coupon store. Callers may retry them.
var ErrStoreUnavailable = errors.New("coupon store unavailable")

// PricingService defines read-only pricing operations.
type PricingService interface {
	// Quote prices a rental and previews the effect of an optional coupon code.
	// A coupon that cannot be applied is reported in the response, not as an error.
	Quote(ctx context.Context, req *model.QuoteRequest) (*model.QuoteResponse, error)

	// ApplicableCoupons lists the coupons that could currently be applied to a booking of amount.
	ApplicableCoupons(ctx context.Context, amount decimal.Decimal, rc model.RedemptionContext) ([]model.CouponOffer, error)
}

// RedemptionService defines coupon redemption operations.
type RedemptionService interface {
	// Redeem applies a coupon to a booking, consuming one usage unit.
	// Business rejections are returned in the result; errors mean the outcome is unknown.
	Redeem(ctx context.Context, req *model.RedeemRequest) (*model.RedeemResult, error)

	// Lookup returns the committed redemption of a coupon for a booking.
	Lookup(ctx context.Context, code, bookingID string) (*model.Redemption, error)
}

// CouponAdminService defines administrative coupon management.
type CouponAdminService interface {
	Create(ctx context.Context, coupon *model.Coupon) (*model.Coupon, error)
	// Update replaces the editable fields of a coupon. A nil active keeps the stored flag.
	Update(ctx context.Context, code string, coupon *model.Coupon, active *bool) (*model.Coupon, error)
	SetActive(ctx context.Context, code string, active bool) (*model.Coupon, error)
	Delete(ctx context.Context, code string, force bool) error
	Get(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context, limit, offset int) ([]model.Coupon, error)
	ListRedemptions(ctx context.Context, code string, limit, offset int) ([]model.Redemption, error)
}

// storeError passes domain errors through and marks everything else as a store failure.
func storeError(op string, err error) error {
	if _, ok := model.AsDomainError(err); ok {
		return err
	}
	return fmt.Errorf("failed to %s: %w: %w", op, ErrStoreUnavailable, err)
}
