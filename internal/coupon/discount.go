package coupon

import (
	"rentwheels/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateDiscount returns the discount a coupon gives on amount, in whole currency units.
// It assumes the coupon has already passed CheckEligibility. The result is never negative,
// never above amount and never above the coupon's MaxDiscount.
func CalculateDiscount(c *model.Coupon, amount decimal.Decimal) decimal.Decimal {
	if c == nil || !amount.IsPositive() {
		return decimal.Zero
	}

	var raw decimal.Decimal
	switch c.DiscountType {
	case model.DiscountPercentage:
		raw = amount.Mul(c.DiscountValue).Div(hundred).Round(0)
	case model.DiscountFixed:
		raw = decimal.Min(c.DiscountValue, amount)
	default:
		return decimal.Zero
	}

	if c.MaxDiscount != nil {
		raw = decimal.Min(raw, *c.MaxDiscount)
	}

	// Fractional values and caps still land on whole units without crossing either bound.
	raw = raw.Round(0)
	if c.MaxDiscount != nil && raw.GreaterThan(*c.MaxDiscount) {
		raw = c.MaxDiscount.Floor()
	}
	if raw.GreaterThan(amount) {
		raw = amount.Floor()
	}
	if raw.IsNegative() {
		return decimal.Zero
	}
	return raw
}
