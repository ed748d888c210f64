package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money is rendered as plain JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// DiscountType is the formula used to compute a coupon's discount.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Applicability restricts which bookings a coupon can be used for.
type Applicability string

const (
	ApplicableToCar  Applicability = "car"
	ApplicableToUser Applicability = "user"
	ApplicableToAny  Applicability = "any"
)

// MaxCodeLength is the longest coupon code accepted.
const MaxCodeLength = 50

var hundred = decimal.NewFromInt(100)

// Coupon is an administratively created discount code.
type Coupon struct {
	Code          string           `json:"code"`
	Description   string           `json:"description,omitempty"`
	DiscountType  DiscountType     `json:"discountType"`
	DiscountValue decimal.Decimal  `json:"discountValue"`
	MinAmount     decimal.Decimal  `json:"minAmount"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount,omitempty"`
	ValidityStart time.Time        `json:"validityStart"`
	ValidityEnd   time.Time        `json:"validityEnd"`
	UsageLimit    int              `json:"usageLimit"`
	UsedCount     int              `json:"usedCount"`
	ApplicableTo  Applicability    `json:"applicableTo"`
	CarIDs        []string         `json:"carIds,omitempty"`
	UserID        string           `json:"userId,omitempty"`
	IsActive      bool             `json:"isActive"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Normalize canonicalises the code, trims identifiers and drops duplicate car IDs.
func (c *Coupon) Normalize() {
	c.Code = NormalizeCode(c.Code)
	c.Description = strings.TrimSpace(c.Description)
	c.UserID = strings.TrimSpace(c.UserID)

	if len(c.CarIDs) > 0 {
		seen := make(map[string]struct{}, len(c.CarIDs))
		ids := make([]string, 0, len(c.CarIDs))
		for _, id := range c.CarIDs {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		c.CarIDs = ids
	}
}

// Validate checks the coupon invariants. Violations are reported as ErrInvalidCoupon.
func (c *Coupon) Validate() error {
	invalid := func(format string, args ...any) error {
		return ErrInvalidCoupon.WithMessage(fmt.Sprintf(format, args...))
	}

	if c.Code == "" {
		return invalid("coupon code is required")
	}
	if len(c.Code) > MaxCodeLength {
		return invalid("coupon code must be at most %d characters", MaxCodeLength)
	}

	switch c.DiscountType {
	case DiscountPercentage:
		if c.DiscountValue.GreaterThan(hundred) {
			return invalid("percentage discount cannot exceed 100")
		}
	case DiscountFixed:
	default:
		return invalid("unknown discount type %q", c.DiscountType)
	}

	if !c.DiscountValue.IsPositive() {
		return invalid("discount value must be greater than zero")
	}
	if c.MinAmount.IsNegative() {
		return invalid("minimum amount cannot be negative")
	}
	if c.MaxDiscount != nil && !c.MaxDiscount.IsPositive() {
		return invalid("maximum discount must be greater than zero")
	}

	if c.ValidityStart.IsZero() || c.ValidityEnd.IsZero() {
		return invalid("validity start and end are required")
	}
	if c.ValidityStart.After(c.ValidityEnd) {
		return invalid("validity start must not be after validity end")
	}

	if c.UsageLimit < 1 {
		return invalid("usage limit must be at least 1")
	}
	if c.UsedCount < 0 || c.UsedCount > c.UsageLimit {
		return invalid("used count must be between 0 and the usage limit")
	}

	switch c.ApplicableTo {
	case ApplicableToCar:
		if len(c.CarIDs) == 0 {
			return invalid("car IDs are required when the coupon applies to cars")
		}
	case ApplicableToUser:
		if c.UserID == "" {
			return invalid("user ID is required when the coupon applies to a user")
		}
	case ApplicableToAny:
	default:
		return invalid("unknown applicability %q", c.ApplicableTo)
	}

	return nil
}

// CouponRequest represents the request payload for creating or updating a coupon.
type CouponRequest struct {
	Code          string           `json:"code" validate:"required,max=50"`
	Description   string           `json:"description" validate:"max=500"`
	DiscountType  string           `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue decimal.Decimal  `json:"discountValue"`
	MinAmount     decimal.Decimal  `json:"minAmount"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount,omitempty"`
	ValidityStart time.Time        `json:"validityStart" validate:"required"`
	ValidityEnd   time.Time        `json:"validityEnd" validate:"required"`
	UsageLimit    int              `json:"usageLimit" validate:"required,gte=1"`
	ApplicableTo  string           `json:"applicableTo" validate:"required,oneof=car user any"`
	CarIDs        []string         `json:"carIds,omitempty" validate:"omitempty,dive,required,max=100"`
	UserID        string           `json:"userId,omitempty" validate:"max=100"`
	IsActive      *bool            `json:"isActive,omitempty"`
}

// ToCoupon converts the request into a coupon. Coupons are active unless stated otherwise.
func (r *CouponRequest) ToCoupon() *Coupon {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}

	c := &Coupon{
		Code:          r.Code,
		Description:   r.Description,
		DiscountType:  DiscountType(r.DiscountType),
		DiscountValue: r.DiscountValue,
		MinAmount:     r.MinAmount,
		MaxDiscount:   r.MaxDiscount,
		ValidityStart: r.ValidityStart,
		ValidityEnd:   r.ValidityEnd,
		UsageLimit:    r.UsageLimit,
		ApplicableTo:  Applicability(r.ApplicableTo),
		CarIDs:        r.CarIDs,
		UserID:        r.UserID,
		IsActive:      active,
	}
	c.Normalize()
	return c
}

// ActiveRequest represents the request payload for toggling a coupon.
type ActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// CouponOffer describes a coupon that can currently be applied, with the discount it would give.
type CouponOffer struct {
	Code         string           `json:"code"`
	Description  string           `json:"description,omitempty"`
	DiscountType DiscountType     `json:"discountType"`
	Value        decimal.Decimal  `json:"discountValue"`
	MaxDiscount  *decimal.Decimal `json:"maxDiscount,omitempty"`
	Discount     decimal.Decimal  `json:"discount"`
	ValidUntil   time.Time        `json:"validUntil"`
}
