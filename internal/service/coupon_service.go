package service

import (
	"context"

	"rentwheels/internal/model"
	"rentwheels/internal/repository"

	"github.com/rs/zerolog"
)

// couponAdminService implements CouponAdminService.
type couponAdminService struct {
	store  repository.CouponStore
	logger zerolog.Logger
}

// NewCouponAdminService creates a new coupon admin service.
func NewCouponAdminService(store repository.CouponStore, logger zerolog.Logger) CouponAdminService {
	return &couponAdminService{
		store:  store,
		logger: logger.With().Str("service", "coupon_admin").Logger(),
	}
}

// Create stores a new coupon. Its usage count always starts at zero.
func (s *couponAdminService) Create(ctx context.Context, c *model.Coupon) (*model.Coupon, error) {
	c.Normalize()
	c.UsedCount = 0
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, c); err != nil {
		s.logger.Warn().Err(err).Str("coupon_code", c.Code).Msg("failed to create coupon")
		return nil, storeError("create coupon", err)
	}

	s.logger.Info().Str("coupon_code", c.Code).Int("usage_limit", c.UsageLimit).Msg("coupon created")
	return c, nil
}

// Update replaces the editable fields of the coupon identified by code.
// The active flag only changes when active is non-nil.
func (s *couponAdminService) Update(ctx context.Context, code string, c *model.Coupon, active *bool) (*model.Coupon, error) {
	c.Code = code
	c.Normalize()
	c.UsedCount = 0
	if err := c.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, c, active)
	if err != nil {
		s.logger.Warn().Err(err).Str("coupon_code", c.Code).Msg("failed to update coupon")
		return nil, storeError("update coupon", err)
	}

	s.logger.Info().Str("coupon_code", updated.Code).Msg("coupon updated")
	return updated, nil
}

func (s *couponAdminService) SetActive(ctx context.Context, code string, active bool) (*model.Coupon, error) {
	code = model.NormalizeCode(code)
	updated, err := s.store.SetActive(ctx, code, active)
	if err != nil {
		s.logger.Warn().Err(err).Str("coupon_code", code).Msg("failed to toggle coupon")
		return nil, storeError("toggle coupon", err)
	}

	s.logger.Info().Str("coupon_code", code).Bool("active", active).Msg("coupon toggled")
	return updated, nil
}

// Delete removes a coupon. Coupons with redemption history are only removed with force.
func (s *couponAdminService) Delete(ctx context.Context, code string, force bool) error {
	code = model.NormalizeCode(code)
	if err := s.store.Delete(ctx, code, force); err != nil {
		s.logger.Warn().Err(err).Str("coupon_code", code).Bool("force", force).Msg("failed to delete coupon")
		return storeError("delete coupon", err)
	}

	s.logger.Info().Str("coupon_code", code).Bool("force", force).Msg("coupon deleted")
	return nil
}

func (s *couponAdminService) Get(ctx context.Context, code string) (*model.Coupon, error) {
	code = model.NormalizeCode(code)
	c, err := s.store.GetByCode(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Str("coupon_code", code).Msg("failed to get coupon")
		return nil, storeError("get coupon", err)
	}
	if c == nil {
		return nil, model.ErrCouponNotFound
	}
	return c, nil
}

func (s *couponAdminService) List(ctx context.Context, limit, offset int) ([]model.Coupon, error) {
	coupons, err := s.store.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Int("limit", limit).Int("offset", offset).Msg("failed to list coupons")
		return nil, storeError("list coupons", err)
	}
	return coupons, nil
}

// ListRedemptions returns a coupon's usage history, newest first.
func (s *couponAdminService) ListRedemptions(ctx context.Context, code string, limit, offset int) ([]model.Redemption, error) {
	if _, err := s.Get(ctx, code); err != nil {
		return nil, err
	}

	code = model.NormalizeCode(code)
	redemptions, err := s.store.ListRedemptions(ctx, code, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("coupon_code", code).Msg("failed to list redemptions")
		return nil, storeError("list redemptions", err)
	}
	return redemptions, nil
}
