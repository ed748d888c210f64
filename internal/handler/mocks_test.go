package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rentwheels/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPricingService is a mock implementation of PricingService.
type MockPricingService struct {
	mock.Mock
}

func (m *MockPricingService) Quote(ctx context.Context, req *model.QuoteRequest) (*model.QuoteResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuoteResponse), args.Error(1)
}

func (m *MockPricingService) ApplicableCoupons(ctx context.Context, amount decimal.Decimal, rc model.RedemptionContext) ([]model.CouponOffer, error) {
	args := m.Called(ctx, amount, rc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CouponOffer), args.Error(1)
}

// MockRedemptionService is a mock implementation of RedemptionService.
type MockRedemptionService struct {
	mock.Mock
}

func (m *MockRedemptionService) Redeem(ctx context.Context, req *model.RedeemRequest) (*model.RedeemResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RedeemResult), args.Error(1)
}

func (m *MockRedemptionService) Lookup(ctx context.Context, code, bookingID string) (*model.Redemption, error) {
	args := m.Called(ctx, code, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Redemption), args.Error(1)
}

// MockCouponAdminService is a mock implementation of CouponAdminService.
type MockCouponAdminService struct {
	mock.Mock
}

func (m *MockCouponAdminService) Create(ctx context.Context, coupon *model.Coupon) (*model.Coupon, error) {
	args := m.Called(ctx, coupon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponAdminService) Update(ctx context.Context, code string, coupon *model.Coupon, active *bool) (*model.Coupon, error) {
	args := m.Called(ctx, code, coupon, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponAdminService) SetActive(ctx context.Context, code string, active bool) (*model.Coupon, error) {
	args := m.Called(ctx, code, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponAdminService) Delete(ctx context.Context, code string, force bool) error {
	args := m.Called(ctx, code, force)
	return args.Error(0)
}

func (m *MockCouponAdminService) Get(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponAdminService) List(ctx context.Context, limit, offset int) ([]model.Coupon, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *MockCouponAdminService) ListRedemptions(ctx context.Context, code string, limit, offset int) ([]model.Redemption, error) {
	args := m.Called(ctx, code, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Redemption), args.Error(1)
}

// newRequest builds a request with a JSON body and chi URL parameters given as key/value pairs.
func newRequest(t *testing.T, method, target string, body any, params ...string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, target, &buf)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
