package handler

import (
	"net/http"
	"strings"

	"rentwheels/internal/model"
	"rentwheels/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PricingHandler handles price preview requests.
type PricingHandler struct {
	service   service.PricingService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewPricingHandler creates a new pricing handler.
func NewPricingHandler(service service.PricingService, logger zerolog.Logger) *PricingHandler {
	return &PricingHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger.With().Str("handler", "pricing").Logger(),
	}
}

// Quote handles POST /api/pricing/quote requests.
// A coupon that cannot be applied is reported inside the 200 response.
func (h *PricingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req model.QuoteRequest
	if err := decodeAndValidate(w, r, h.validator, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	resp, err := h.service.Quote(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Applicable handles GET /api/coupons/applicable?amount=&carId=&userId= requests.
func (h *PricingHandler) Applicable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	raw := strings.TrimSpace(q.Get("amount"))
	if raw == "" {
		writeError(w, r, model.NewDomainError(model.ErrCodeValidationFailed, "amount is required"), h.logger)
		return
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		writeError(w, r, model.NewDomainError(model.ErrCodeValidationFailed, "invalid amount parameter"), h.logger)
		return
	}

	rc := model.RedemptionContext{
		CarID:  strings.TrimSpace(q.Get("carId")),
		UserID: strings.TrimSpace(q.Get("userId")),
	}

	offers, err := h.service.ApplicableCoupons(r.Context(), amount, rc)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, offers)
}
