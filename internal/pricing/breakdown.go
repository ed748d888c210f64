// Package pricing computes booking price breakdowns.
package pricing

import (
	"time"

	"rentwheels/internal/model"

	"github.com/shopspring/decimal"
)

// AdvanceRate is the share of the final price collected at booking time.
var AdvanceRate = decimal.RequireFromString("0.35")

const day = 24 * time.Hour

// TotalDays returns the number of rental days between pickup and drop, rounded up, minimum 1.
func TotalDays(pickup, drop time.Time) (int, error) {
	if !drop.After(pickup) {
		return 0, model.ErrInvalidDateRange
	}

	span := drop.Sub(pickup)
	days := int(span / day)
	if span%day != 0 {
		days++
	}
	return max(days, 1), nil
}

// Build prices a rental of basePricePerDay between pickup and drop, less discount.
func Build(basePricePerDay decimal.Decimal, pickup, drop time.Time, discount decimal.Decimal) (*model.PriceBreakdown, error) {
	if !basePricePerDay.IsPositive() {
		return nil, model.ErrInvalidPrice
	}

	days, err := TotalDays(pickup, drop)
	if err != nil {
		return nil, err
	}

	b := &model.PriceBreakdown{
		BasePricePerDay: basePricePerDay,
		TotalDays:       days,
		TotalPrice:      basePricePerDay.Mul(decimal.NewFromInt(int64(days))),
	}
	split(b, discount)
	return b, nil
}

// FromTotal prices a booking whose total is already known, as a single day at that total.
func FromTotal(total, discount decimal.Decimal) (*model.PriceBreakdown, error) {
	if !total.IsPositive() {
		return nil, model.ErrInvalidPrice
	}

	b := &model.PriceBreakdown{
		BasePricePerDay: total,
		TotalDays:       1,
		TotalPrice:      total,
	}
	split(b, discount)
	return b, nil
}

// split fills in the discount, final price and the advance/remaining payments.
// Advance is rounded half up to whole units; remaining absorbs the difference so the two always sum to final.
func split(b *model.PriceBreakdown, discount decimal.Decimal) {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(b.TotalPrice) {
		discount = b.TotalPrice
	}

	b.Discount = discount
	b.FinalPrice = b.TotalPrice.Sub(discount)
	b.AdvancePayment = b.FinalPrice.Mul(AdvanceRate).Round(0)
	b.RemainingPayment = b.FinalPrice.Sub(b.AdvancePayment)
}
