package handler

import (
	"net/http"
	"strconv"

	"rentwheels/internal/model"
	"rentwheels/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CouponHandler handles administrative coupon requests.
type CouponHandler struct {
	service   service.CouponAdminService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(service service.CouponAdminService, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger.With().Str("handler", "coupon").Logger(),
	}
}

// List handles GET /api/admin/coupons requests with pagination.
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	coupons, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, coupons)
}

// Create handles POST /api/admin/coupons requests.
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CouponRequest
	if err := decodeAndValidate(w, r, h.validator, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	created, err := h.service.Create(r.Context(), req.ToCoupon())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/admin/coupons/{code} requests.
func (h *CouponHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Update handles PUT /api/admin/coupons/{code} requests. The code in the path wins over the body,
// and an omitted isActive leaves the coupon's active flag as it is.
func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req model.CouponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if req.Code == "" {
		req.Code = code
	}
	if err := validateStruct(h.validator, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	updated, err := h.service.Update(r.Context(), code, req.ToCoupon(), req.IsActive)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// SetActive handles PATCH /api/admin/coupons/{code}/active requests.
func (h *CouponHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req model.ActiveRequest
	if err := decodeAndValidate(w, r, h.validator, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	updated, err := h.service.SetActive(r.Context(), chi.URLParam(r, "code"), *req.IsActive)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/admin/coupons/{code}?force=true requests.
func (h *CouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		var err error
		force, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, model.NewDomainError(model.ErrCodeValidationFailed, "invalid force parameter"), h.logger)
			return
		}
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "code"), force); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRedemptions handles GET /api/admin/coupons/{code}/redemptions requests.
func (h *CouponHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	redemptions, err := h.service.ListRedemptions(r.Context(), chi.URLParam(r, "code"), limit, offset)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, redemptions)
}
