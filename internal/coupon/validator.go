package coupon

import (
	"time"

	"rentwheels/internal/model"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CheckEligibility reports whether a coupon may be applied to a booking of the given amount.
// A nil result means eligible. Checks run in a fixed order and the first failure wins:
//   - existence
//   - active flag
//   - validity window (not yet active, expired)
//   - usage count (advisory, the store makes the binding decision)
//   - minimum amount
//   - car or user applicability
//
// CheckEligibility has no side effects.
func CheckEligibility(c *model.Coupon, amount decimal.Decimal, rc model.RedemptionContext, now time.Time) *model.DomainError {
	if c == nil {
		return model.ErrCouponNotFound
	}
	if !c.IsActive {
		return model.ErrCouponInactive
	}
	if now.Before(c.ValidityStart) {
		return model.ErrCouponNotYetActive.WithMessage(
			"This coupon is valid from " + c.ValidityStart.Format("2 Jan 2006"))
	}
	if now.After(c.ValidityEnd) {
		return model.ErrCouponExpired
	}
	if c.UsedCount >= c.UsageLimit {
		return model.ErrCouponUsageExhausted
	}
	if amount.LessThan(c.MinAmount) {
		return model.ErrAmountBelowMinimum.WithMessage(
			"This coupon requires a minimum booking amount of " + FormatAmount(c.MinAmount))
	}

	switch c.ApplicableTo {
	case model.ApplicableToCar:
		if rc.CarID == "" || !NewIDSet(c.CarIDs...).Contains(rc.CarID) {
			return model.ErrNotApplicableToCar
		}
	case model.ApplicableToUser:
		if rc.UserID == "" || rc.UserID != c.UserID {
			return model.ErrNotApplicableToUser
		}
	}

	return nil
}

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders an amount in rupees with thousands grouping, e.g. ₹1,000.
func FormatAmount(amount decimal.Decimal) string {
	if amount.IsInteger() {
		return amountPrinter.Sprintf("₹%d", amount.IntPart())
	}
	return amountPrinter.Sprintf("₹%.2f", amount.InexactFloat64())
}
