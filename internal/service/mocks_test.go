package service

import (
	"context"

	"rentwheels/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockCouponStore is a mock implementation of repository.CouponStore.
type MockCouponStore struct {
	mock.Mock
}

func (m *MockCouponStore) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponStore) List(ctx context.Context, limit, offset int) ([]model.Coupon, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *MockCouponStore) Create(ctx context.Context, coupon *model.Coupon) error {
	args := m.Called(ctx, coupon)
	return args.Error(0)
}

func (m *MockCouponStore) Update(ctx context.Context, coupon *model.Coupon, active *bool) (*model.Coupon, error) {
	args := m.Called(ctx, coupon, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponStore) SetActive(ctx context.Context, code string, active bool) (*model.Coupon, error) {
	args := m.Called(ctx, code, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponStore) Delete(ctx context.Context, code string, force bool) error {
	args := m.Called(ctx, code, force)
	return args.Error(0)
}

func (m *MockCouponStore) Reserve(ctx context.Context, redemption *model.Redemption) (*model.Redemption, bool, error) {
	args := m.Called(ctx, redemption)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Redemption), args.Bool(1), args.Error(2)
}

func (m *MockCouponStore) FindRedemption(ctx context.Context, code, bookingID string) (*model.Redemption, error) {
	args := m.Called(ctx, code, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Redemption), args.Error(1)
}

func (m *MockCouponStore) ListRedemptions(ctx context.Context, code string, limit, offset int) ([]model.Redemption, error) {
	args := m.Called(ctx, code, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Redemption), args.Error(1)
}

// ReservesAtomically keeps the mock out of the keyed-mutex path.
func (m *MockCouponStore) ReservesAtomically() bool {
	return true
}
