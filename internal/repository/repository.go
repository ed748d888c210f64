package repository

import (
	"context"

	"rentwheels/internal/model"
)

// CouponStore defines the interface for coupon persistence.
//
// UsedCount is owned by the store: it only changes through Reserve, and no
// implementation may let it exceed UsageLimit as seen by any reader.
type CouponStore interface {
	// GetByCode retrieves a coupon by its normalised code. It returns nil, nil when the coupon does not exist.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// List retrieves coupons ordered by code with pagination support.
	// A non-positive limit returns no coupons and a negative offset counts as zero.
	List(ctx context.Context, limit, offset int) ([]model.Coupon, error)

	// Create inserts a new coupon. Returns model.ErrCouponExists for a duplicate code.
	Create(ctx context.Context, coupon *model.Coupon) error

	// Update replaces the editable fields of a coupon and returns the stored result.
	// UsedCount is never written. Lowering UsageLimit below the current UsedCount fails
	// with model.ErrUsageLimitBelowUsed; the comparison is made atomically in the store.
	// The active flag is taken from active, not from coupon.IsActive; a nil active keeps
	// the stored flag.
	Update(ctx context.Context, coupon *model.Coupon, active *bool) (*model.Coupon, error)

	// SetActive toggles the administrative kill switch and returns the stored result.
	SetActive(ctx context.Context, code string, active bool) (*model.Coupon, error)

	// Delete removes a coupon. Without force it fails with model.ErrCouponHasRedemptions
	// while redemptions reference the coupon; with force the redemptions are removed too.
	Delete(ctx context.Context, code string, force bool) error

	// Reserve atomically consumes one usage unit and appends the redemption.
	// It fails with model.ErrCouponUsageExhausted when UsedCount has reached UsageLimit and
	// with model.ErrCouponNotFound when the coupon does not exist.
	// If the booking already holds a redemption of this coupon, that redemption is returned
	// with created set to false and no usage is consumed.
	Reserve(ctx context.Context, redemption *model.Redemption) (stored *model.Redemption, created bool, err error)

	// FindRedemption looks up the redemption of a coupon by booking. It returns nil, nil when there is none.
	FindRedemption(ctx context.Context, code, bookingID string) (*model.Redemption, error)

	// ListRedemptions retrieves a coupon's redemptions, newest first. A non-positive limit
	// returns no redemptions.
	ListRedemptions(ctx context.Context, code string, limit, offset int) ([]model.Redemption, error)
}

// AtomicReserver is implemented by stores whose Reserve is a single indivisible operation.
// Callers serialise reservations per coupon themselves for stores that do not report it.
type AtomicReserver interface {
	ReservesAtomically() bool
}

// IsAtomic reports whether store declares atomic reservation.
func IsAtomic(store CouponStore) bool {
	ar, ok := store.(AtomicReserver)
	return ok && ar.ReservesAtomically()
}
