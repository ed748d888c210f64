package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"rentwheels/internal/model"
)

// memoryStore implements CouponStore in process memory. mu is a read-write lock: reads
// share it and every write holds it exclusively, which makes Reserve atomic with respect
// to every other operation.
type memoryStore struct {
	mu          sync.RWMutex
	coupons     map[string]*model.Coupon
	redemptions map[string][]*model.Redemption // by coupon code, in insertion order
	now         func() time.Time
}

// NewMemoryStore creates an empty in-memory coupon store.
func NewMemoryStore() CouponStore {
	return &memoryStore{
		coupons:     make(map[string]*model.Coupon),
		redemptions: make(map[string][]*model.Redemption),
		now:         time.Now,
	}
}

// ReservesAtomically reports that Reserve holds the store lock for its whole duration.
func (s *memoryStore) ReservesAtomically() bool {
	return true
}

func (s *memoryStore) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.coupons[code]
	if !ok {
		return nil, nil
	}
	return cloneCoupon(c), nil
}

func (s *memoryStore) List(ctx context.Context, limit, offset int) ([]model.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make([]string, 0, len(s.coupons))
	for code := range s.coupons {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	coupons := make([]model.Coupon, 0)
	for _, code := range page(codes, limit, offset) {
		coupons = append(coupons, *cloneCoupon(s.coupons[code]))
	}
	return coupons, nil
}

func (s *memoryStore) Create(ctx context.Context, c *model.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.coupons[c.Code]; ok {
		return model.ErrCouponExists
	}

	now := s.now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.coupons[c.Code] = cloneCoupon(c)
	return nil
}

func (s *memoryStore) Update(ctx context.Context, c *model.Coupon, active *bool) (*model.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.coupons[c.Code]
	if !ok {
		return nil, model.ErrCouponNotFound
	}
	if c.UsageLimit < current.UsedCount {
		return nil, model.ErrUsageLimitBelowUsed
	}

	updated := cloneCoupon(c)
	updated.UsedCount = current.UsedCount
	updated.IsActive = current.IsActive
	if active != nil {
		updated.IsActive = *active
	}
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.now().UTC()
	s.coupons[c.Code] = updated
	return cloneCoupon(updated), nil
}

func (s *memoryStore) SetActive(ctx context.Context, code string, active bool) (*model.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[code]
	if !ok {
		return nil, model.ErrCouponNotFound
	}
	c.IsActive = active
	c.UpdatedAt = s.now().UTC()
	return cloneCoupon(c), nil
}

func (s *memoryStore) Delete(ctx context.Context, code string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.coupons[code]; !ok {
		return model.ErrCouponNotFound
	}
	if len(s.redemptions[code]) > 0 && !force {
		return model.ErrCouponHasRedemptions
	}

	delete(s.coupons, code)
	delete(s.redemptions, code)
	return nil
}

func (s *memoryStore) Reserve(ctx context.Context, red *model.Redemption) (*model.Redemption, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[red.CouponCode]
	if !ok {
		return nil, false, model.ErrCouponNotFound
	}
	for _, existing := range s.redemptions[red.CouponCode] {
		if existing.BookingID == red.BookingID {
			stored := *existing
			return &stored, false, nil
		}
	}
	if c.UsedCount >= c.UsageLimit {
		return nil, false, model.ErrCouponUsageExhausted
	}

	c.UsedCount++
	c.UpdatedAt = s.now().UTC()
	stored := *red
	s.redemptions[red.CouponCode] = append(s.redemptions[red.CouponCode], &stored)

	result := stored
	return &result, true, nil
}

func (s *memoryStore) FindRedemption(ctx context.Context, code, bookingID string) (*model.Redemption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, red := range s.redemptions[code] {
		if red.BookingID == bookingID {
			found := *red
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) ListRedemptions(ctx context.Context, code string, limit, offset int) ([]model.Redemption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.redemptions[code]
	newestFirst := make([]*model.Redemption, len(all))
	for i, red := range all {
		newestFirst[len(all)-1-i] = red
	}

	redemptions := make([]model.Redemption, 0)
	for _, red := range page(newestFirst, limit, offset) {
		redemptions = append(redemptions, *red)
	}
	return redemptions, nil
}

func cloneCoupon(c *model.Coupon) *model.Coupon {
	clone := *c
	if c.MaxDiscount != nil {
		maxDiscount := *c.MaxDiscount
		clone.MaxDiscount = &maxDiscount
	}
	if c.CarIDs != nil {
		clone.CarIDs = append([]string(nil), c.CarIDs...)
	}
	return &clone
}

// page applies limit/offset to items. A non-positive limit returns nothing.
func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
