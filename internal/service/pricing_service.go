package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"rentwheels/internal/coupon"
	"rentwheels/internal/model"
	"rentwheels/internal/pricing"
	"rentwheels/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const offersPageSize = 100

// pricingService implements PricingService.
type pricingService struct {
	store  repository.CouponStore
	now    func() time.Time
	logger zerolog.Logger
}

// NewPricingService creates a new pricing service.
func NewPricingService(store repository.CouponStore, logger zerolog.Logger) PricingService {
	return newPricingService(store, time.Now, logger)
}

func newPricingService(store repository.CouponStore, now func() time.Time, logger zerolog.Logger) *pricingService {
	return &pricingService{
		store:  store,
		now:    now,
		logger: logger.With().Str("service", "pricing").Logger(),
	}
}

// Quote prices the rental, then re-prices it with the coupon when one is given and applicable.
func (s *pricingService) Quote(ctx context.Context, req *model.QuoteRequest) (*model.QuoteResponse, error) {
	base, err := pricing.Build(req.BasePricePerDay, req.Pickup, req.Drop, decimal.Zero)
	if err != nil {
		return nil, err
	}

	code := model.NormalizeCode(req.Code)
	if code == "" {
		return &model.QuoteResponse{Breakdown: base}, nil
	}

	cp, err := s.store.GetByCode(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Str("coupon_code", code).Msg("failed to load coupon")
		return nil, storeError("load coupon", err)
	}

	rc := model.RedemptionContext{CarID: strings.TrimSpace(req.CarID), UserID: strings.TrimSpace(req.UserID)}
	if reason := coupon.CheckEligibility(cp, base.TotalPrice, rc, s.now()); reason != nil {
		s.logger.Debug().Str("coupon_code", code).Str("reason", reason.Code).Msg("coupon not applicable to quote")
		return &model.QuoteResponse{Breakdown: base, Rejection: reason}, nil
	}

	priced, err := pricing.Build(req.BasePricePerDay, req.Pickup, req.Drop, coupon.CalculateDiscount(cp, base.TotalPrice))
	if err != nil {
		return nil, err
	}
	priced.CouponCode = code
	return &model.QuoteResponse{Breakdown: priced}, nil
}

// ApplicableCoupons returns eligible coupons, largest discount first.
func (s *pricingService) ApplicableCoupons(ctx context.Context, amount decimal.Decimal, rc model.RedemptionContext) ([]model.CouponOffer, error) {
	if !amount.IsPositive() {
		return nil, model.ErrInvalidPrice
	}

	now := s.now()
	offers := make([]model.CouponOffer, 0)
	for offset := 0; ; offset += offersPageSize {
		coupons, err := s.store.List(ctx, offersPageSize, offset)
		if err != nil {
			s.logger.Error().Err(err).Int("offset", offset).Msg("failed to list coupons")
			return nil, storeError("list coupons", err)
		}

		for i := range coupons {
			c := &coupons[i]
			if coupon.CheckEligibility(c, amount, rc, now) != nil {
				continue
			}
			offers = append(offers, model.CouponOffer{
				Code:         c.Code,
				Description:  c.Description,
				DiscountType: c.DiscountType,
				Value:        c.DiscountValue,
				MaxDiscount:  c.MaxDiscount,
				Discount:     coupon.CalculateDiscount(c, amount),
				ValidUntil:   c.ValidityEnd,
			})
		}

		if len(coupons) < offersPageSize {
			break
		}
	}

	slices.SortStableFunc(offers, func(a, b model.CouponOffer) int {
		if n := b.Discount.Cmp(a.Discount); n != 0 {
			return n
		}
		return strings.Compare(a.Code, b.Code)
	})

	s.logger.Debug().Int("offers", len(offers)).Str("amount", amount.String()).Msg("applicable coupons listed")
	return offers, nil
}
