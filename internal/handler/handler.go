package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"rentwheels/internal/model"
	"rentwheels/internal/service"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	maxBodyBytes = 1 << 20

	defaultPageSize = 20
	maxPageSize     = 100
)

var errInvalidJSON = model.NewDomainError(model.ErrCodeInvalidJSON, "request body is not valid JSON")

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// errorBody builds the error payload, tagged with the request ID for correlation.
func errorBody(r *http.Request, code, message string) model.ErrorResponse {
	return model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: chimw.GetReqID(r.Context()),
	}
}

// writeError maps err to a status code and writes it as an error response.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	status, code, message := classify(err)

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Str("code", code).
		Int("status", status).
		Str("request_id", chimw.GetReqID(r.Context())).
		Msg("handler error")

	writeJSON(w, status, errorBody(r, code, message))
}

// classify maps an error to its HTTP status, error code and client-safe message.
func classify(err error) (int, string, string) {
	if de, ok := model.AsDomainError(err); ok {
		return statusFor(de.Code), de.Code, de.Message
	}
	if errors.Is(err, service.ErrStoreUnavailable) {
		return http.StatusServiceUnavailable, model.ErrCodeStoreUnavailable, "coupon store is temporarily unavailable, please retry"
	}
	return http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error"
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeCouponNotFound, model.ErrCodeRedemptionNotFound:
		return http.StatusNotFound
	case model.ErrCodeCouponUsageExhausted,
		model.ErrCodeCouponExists,
		model.ErrCodeUsageLimitBelowUsed,
		model.ErrCodeCouponHasRedemptions:
		return http.StatusConflict
	case model.ErrCodeInvalidJSON, model.ErrCodeValidationFailed, model.ErrCodeInvalidCoupon:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

// decodeAndValidate reads a JSON body into dst and validates its struct tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	return validateStruct(v, dst)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errInvalidJSON.WithMessage("request body is required")
		}
		return errInvalidJSON
	}
	return nil
}

func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return model.NewDomainError(model.ErrCodeValidationFailed, err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.SplitN(fe.Namespace(), ".", 2)
		name := field[len(field)-1]
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", name, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", name, fe.Tag()))
		}
	}
	return model.NewDomainError(model.ErrCodeValidationFailed, strings.Join(msgs, "; "))
}

// parsePagination reads limit and offset query parameters.
func parsePagination(r *http.Request) (int, int, error) {
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if limit < 1 || limit > maxPageSize {
		return 0, 0, model.NewDomainError(model.ErrCodeValidationFailed,
			fmt.Sprintf("limit must be between 1 and %d", maxPageSize))
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	if offset < 0 {
		return 0, 0, model.NewDomainError(model.ErrCodeValidationFailed, "offset cannot be negative")
	}
	return limit, offset, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewDomainError(model.ErrCodeValidationFailed, fmt.Sprintf("invalid %s parameter", key))
	}
	return n, nil
}
