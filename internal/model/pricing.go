package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBreakdown is the computed price of a booking, split into advance and remaining payments.
type PriceBreakdown struct {
	BasePricePerDay  decimal.Decimal `json:"basePricePerDay"`
	TotalDays        int             `json:"totalDays"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	Discount         decimal.Decimal `json:"discount"`
	FinalPrice       decimal.Decimal `json:"finalPrice"`
	AdvancePayment   decimal.Decimal `json:"advancePayment"`
	RemainingPayment decimal.Decimal `json:"remainingPayment"`
	CouponCode       string          `json:"couponCode,omitempty"`
}

// QuoteRequest represents the request payload for a price preview.
type QuoteRequest struct {
	Code            string          `json:"code,omitempty" validate:"max=50"`
	BasePricePerDay decimal.Decimal `json:"basePricePerDay"`
	Pickup          time.Time       `json:"pickup" validate:"required"`
	Drop            time.Time       `json:"drop" validate:"required"`
	CarID           string          `json:"carId,omitempty" validate:"max=100"`
	UserID          string          `json:"userId,omitempty" validate:"max=100"`
}

// QuoteResponse carries the breakdown and, when a supplied code could not be applied, the reason.
type QuoteResponse struct {
	Breakdown *PriceBreakdown `json:"breakdown"`
	Rejection *DomainError    `json:"rejection,omitempty"`
}
