package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Redemption is one successful application of a coupon to a booking.
type Redemption struct {
	ID              uuid.UUID       `json:"id"`
	CouponCode      string          `json:"couponCode"`
	BookingID       string          `json:"bookingId"`
	UserID          string          `json:"userId,omitempty"`
	CarID           string          `json:"carId,omitempty"`
	DiscountApplied decimal.Decimal `json:"discountApplied"`
	UsedAt          time.Time       `json:"usedAt"`
}

// RedemptionContext identifies who is booking what.
type RedemptionContext struct {
	CarID  string
	UserID string
}

// Stay describes a rental period priced at a daily rate.
type Stay struct {
	BasePricePerDay decimal.Decimal `json:"basePricePerDay"`
	Pickup          time.Time       `json:"pickup" validate:"required"`
	Drop            time.Time       `json:"drop" validate:"required"`
}

// RedeemRequest represents the request payload for redeeming a coupon against a booking.
// Either Amount or Stay must be provided; Stay takes precedence.
type RedeemRequest struct {
	Code      string          `json:"code" validate:"required,max=50"`
	BookingID string          `json:"bookingId" validate:"required,max=100"`
	Amount    decimal.Decimal `json:"amount"`
	CarID     string          `json:"carId,omitempty" validate:"max=100"`
	UserID    string          `json:"userId,omitempty" validate:"max=100"`
	Stay      *Stay           `json:"stay,omitempty"`
}

// Context returns the redemption context of the request with surrounding whitespace removed.
func (r *RedeemRequest) Context() RedemptionContext {
	return RedemptionContext{CarID: strings.TrimSpace(r.CarID), UserID: strings.TrimSpace(r.UserID)}
}

// RedeemStatus is the terminal state of a redemption attempt.
type RedeemStatus string

const (
	RedeemCommitted RedeemStatus = "committed"
	RedeemRejected  RedeemStatus = "rejected"
)

// RedeemResult is the outcome of a redemption attempt.
type RedeemResult struct {
	Status     RedeemStatus    `json:"status"`
	Breakdown  *PriceBreakdown `json:"breakdown,omitempty"`
	Redemption *Redemption     `json:"redemption,omitempty"`
	Rejection  *DomainError    `json:"rejection,omitempty"`
	Replayed   bool            `json:"replayed,omitempty"`
}

// Committed reports whether the redemption consumed (or had already consumed) a usage unit.
func (r *RedeemResult) Committed() bool {
	return r.Status == RedeemCommitted
}

// Rejected builds a rejected result.
func Rejected(reason *DomainError) *RedeemResult {
	return &RedeemResult{Status: RedeemRejected, Rejection: reason}
}
