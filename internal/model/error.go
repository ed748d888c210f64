package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeUnauthorised     = "UNAUTHORIZED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"

	ErrCodeCouponNotFound       = "COUPON_NOT_FOUND"
	ErrCodeCouponInactive       = "COUPON_INACTIVE"
	ErrCodeCouponNotYetActive   = "COUPON_NOT_YET_ACTIVE"
	ErrCodeCouponExpired        = "COUPON_EXPIRED"
	ErrCodeCouponUsageExhausted = "COUPON_USAGE_EXHAUSTED"
	ErrCodeAmountBelowMinimum   = "AMOUNT_BELOW_MINIMUM"
	ErrCodeNotApplicableToCar   = "NOT_APPLICABLE_TO_CAR"
	ErrCodeNotApplicableToUser  = "NOT_APPLICABLE_TO_USER"
	ErrCodeInvalidDateRange     = "INVALID_DATE_RANGE"
	ErrCodeRedemptionNotFound   = "REDEMPTION_NOT_FOUND"

	ErrCodeInvalidCoupon        = "INVALID_COUPON"
	ErrCodeInvalidPrice         = "INVALID_PRICE"
	ErrCodeCouponExists         = "COUPON_EXISTS"
	ErrCodeUsageLimitBelowUsed  = "USAGE_LIMIT_BELOW_USED"
	ErrCodeCouponHasRedemptions = "COUPON_HAS_REDEMPTIONS"
)

// DomainError is an expected business outcome. Its Message is safe to show to end users.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code so that errors carrying a customised message still
// compare equal to the sentinel they were derived from.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of the error with a more specific message.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// AsDomainError extracts a DomainError from an error chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Rejection reasons and admin write errors
var (
	ErrCouponNotFound       = NewDomainError(ErrCodeCouponNotFound, "This coupon code does not exist")
	ErrCouponInactive       = NewDomainError(ErrCodeCouponInactive, "This coupon is no longer active")
	ErrCouponNotYetActive   = NewDomainError(ErrCodeCouponNotYetActive, "This coupon is not valid yet")
	ErrCouponExpired        = NewDomainError(ErrCodeCouponExpired, "This coupon has expired")
	ErrCouponUsageExhausted = NewDomainError(ErrCodeCouponUsageExhausted, "This coupon has reached its usage limit")
	ErrAmountBelowMinimum   = NewDomainError(ErrCodeAmountBelowMinimum, "The booking amount is below the minimum required for this coupon")
	ErrNotApplicableToCar   = NewDomainError(ErrCodeNotApplicableToCar, "This coupon is not valid for the selected car")
	ErrNotApplicableToUser  = NewDomainError(ErrCodeNotApplicableToUser, "This coupon is not available for your account")
	ErrInvalidDateRange     = NewDomainError(ErrCodeInvalidDateRange, "Drop-off time must be after pick-up time")
	ErrRedemptionNotFound   = NewDomainError(ErrCodeRedemptionNotFound, "No redemption of this coupon exists for the booking")

	ErrInvalidCoupon        = NewDomainError(ErrCodeInvalidCoupon, "Coupon definition is invalid")
	ErrInvalidPrice         = NewDomainError(ErrCodeInvalidPrice, "Price must be greater than zero")
	ErrCouponExists         = NewDomainError(ErrCodeCouponExists, "A coupon with this code already exists")
	ErrUsageLimitBelowUsed  = NewDomainError(ErrCodeUsageLimitBelowUsed, "Usage limit cannot be lower than the number of redemptions already made")
	ErrCouponHasRedemptions = NewDomainError(ErrCodeCouponHasRedemptions, "Coupon has redemption history; deactivate it or delete with force")
)
