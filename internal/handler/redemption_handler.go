package handler

import (
	"net/http"

	"rentwheels/internal/model"
	"rentwheels/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// RedemptionHandler handles coupon redemption requests.
type RedemptionHandler struct {
	service   service.RedemptionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// rejectionResponse is the error body of a rejected redemption, with the undiscounted price when known.
type rejectionResponse struct {
	model.ErrorResponse
	Breakdown *model.PriceBreakdown `json:"breakdown,omitempty"`
}

// NewRedemptionHandler creates a new redemption handler.
func NewRedemptionHandler(service service.RedemptionService, logger zerolog.Logger) *RedemptionHandler {
	return &RedemptionHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger.With().Str("handler", "redemption").Logger(),
	}
}

// Redeem handles POST /api/redemptions requests.
// 201 for a new redemption, 200 when the booking already held one, 409/422 for rejections.
func (h *RedemptionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req model.RedeemRequest
	if err := decodeAndValidate(w, r, h.validator, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Redeem(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if !result.Committed() {
		reason := result.Rejection
		h.logger.Info().
			Str("coupon_code", req.Code).
			Str("booking_id", req.BookingID).
			Str("reason", reason.Code).
			Msg("redemption rejected")
		writeJSON(w, statusFor(reason.Code), rejectionResponse{
			ErrorResponse: errorBody(r, reason.Code, reason.Message),
			Breakdown:     result.Breakdown,
		})
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// Lookup handles GET /api/redemptions/{code}/{bookingId} requests.
func (h *RedemptionHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	redemption, err := h.service.Lookup(r.Context(), chi.URLParam(r, "code"), chi.URLParam(r, "bookingId"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, redemption)
}
