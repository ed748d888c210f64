package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rentwheels/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCoupon returns a valid coupon with the given code and usage limit.
func testCoupon(code string, limit int) *model.Coupon {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	maxDiscount := decimal.NewFromInt(500)
	return &model.Coupon{
		Code:          code,
		Description:   "Test coupon",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(20),
		MinAmount:     decimal.NewFromInt(1000),
		MaxDiscount:   &maxDiscount,
		ValidityStart: start,
		ValidityEnd:   start.AddDate(1, 0, 0),
		UsageLimit:    limit,
		ApplicableTo:  model.ApplicableToAny,
		IsActive:      true,
	}
}

func testRedemption(code, bookingID string) *model.Redemption {
	return &model.Redemption{
		ID:              uuid.New(),
		CouponCode:      code,
		BookingID:       bookingID,
		UserID:          "user-1",
		CarID:           "car-1",
		DiscountApplied: decimal.NewFromInt(500),
		UsedAt:          time.Now().UTC().Truncate(time.Microsecond),
	}
}

// runCouponStoreContract exercises the behaviour every CouponStore implementation must share.
func runCouponStoreContract(t *testing.T, newStore func(t *testing.T) CouponStore) {
	ctx := context.Background()

	t.Run("Create and get", func(t *testing.T) {
		store := newStore(t)
		c := testCoupon("WELCOME20", 10)
		c.CarIDs = nil

		require.NoError(t, store.Create(ctx, c))
		assert.False(t, c.CreatedAt.IsZero())

		got, err := store.GetByCode(ctx, "WELCOME20")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "WELCOME20", got.Code)
		assert.Equal(t, model.DiscountPercentage, got.DiscountType)
		assert.True(t, decimal.NewFromInt(20).Equal(got.DiscountValue))
		assert.True(t, decimal.NewFromInt(1000).Equal(got.MinAmount))
		require.NotNil(t, got.MaxDiscount)
		assert.True(t, decimal.NewFromInt(500).Equal(*got.MaxDiscount))
		assert.True(t, c.ValidityStart.Equal(got.ValidityStart))
		assert.Equal(t, 10, got.UsageLimit)
		assert.Equal(t, 0, got.UsedCount)
		assert.True(t, got.IsActive)
	})

	t.Run("Get missing coupon", func(t *testing.T) {
		store := newStore(t)

		got, err := store.GetByCode(ctx, "MISSING")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Create duplicate", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, testCoupon("DUP", 1)))

		err := store.Create(ctx, testCoupon("DUP", 1))
		assert.True(t, errors.Is(err, model.ErrCouponExists))
	})

	t.Run("Car applicability round trip", func(t *testing.T) {
		store := newStore(t)
		c := testCoupon("CARS", 5)
		c.ApplicableTo = model.ApplicableToCar
		c.CarIDs = []string{"car-1", "car-2"}
		c.MaxDiscount = nil
		require.NoError(t, store.Create(ctx, c))

		got, err := store.GetByCode(ctx, "CARS")
		require.NoError(t, err)
		assert.Equal(t, model.ApplicableToCar, got.ApplicableTo)
		assert.Equal(t, []string{"car-1", "car-2"}, got.CarIDs)
		assert.Nil(t, got.MaxDiscount)
	})

	t.Run("List is ordered and paginated", func(t *testing.T) {
		store := newStore(t)
		for _, code := range []string{"CHARLIE", "ALPHA", "BRAVO"} {
			require.NoError(t, store.Create(ctx, testCoupon(code, 1)))
		}

		all, err := store.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "ALPHA", all[0].Code)
		assert.Equal(t, "BRAVO", all[1].Code)
		assert.Equal(t, "CHARLIE", all[2].Code)

		page, err := store.List(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "BRAVO", page[0].Code)

		empty, err := store.List(ctx, 10, 10)
		require.NoError(t, err)
		assert.Empty(t, empty)

		for _, limit := range []int{0, -1} {
			none, err := store.List(ctx, limit, 0)
			require.NoError(t, err)
			assert.Empty(t, none, "limit %d", limit)
		}
	})

	t.Run("Update keeps used count", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, testCoupon("EDIT", 5)))
		_, _, err := store.Reserve(ctx, testRedemption("EDIT", "booking-1"))
		require.NoError(t, err)

		edit := testCoupon("EDIT", 8)
		edit.Description = "Edited"
		edit.UsedCount = 0
		updated, err := store.Update(ctx, edit, nil)
		require.NoError(t, err)

		assert.Equal(t, "Edited", updated.Description)
		assert.Equal(t, 8, updated.UsageLimit)
		assert.Equal(t, 1, updated.UsedCount)
	})

	t.Run("Update cannot lower limit below used", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, testCoupon("TIGHT", 3)))
		for i := range 2 {
			_, _, err := store.Reserve(ctx, testRedemption("TIGHT", fmt.Sprintf("booking-%d", i)))
			require.NoError(t, err)
		}

		_, err := store.Update(ctx, testCoupon("TIGHT", 1), nil)
		assert.True(t, errors.Is(err, model.ErrUsageLimitBelowUsed))

		updated, err := store.Update(ctx, testCoupon("TIGHT", 2), nil)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.UsageLimit)
	})

	t.Run("Update without active flag keeps a disabled coupon disabled", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, testCoupon("PAUSED", 5)))
		_, err := store.SetActive(ctx, "PAUSED", false)
		require.NoError(t, err)

		edit := testCoupon("PAUSED", 6)
		edit.IsActive = true
		updated, err := store.Update(ctx, edit, nil)
		require.NoError(t, err)
		assert.False(t, updated.IsActive)

		stored, err := store.GetByCode(ctx, "PAUSED")
		require.NoError(t, err)
		assert.False(t, stored.IsActive)
		assert.Equal(t, 6, stored.UsageLimit)

		active := true
		updated, err = store.Update(ctx, testCoupon("PAUSED", 6), &active)
		require.NoError(t, err)
		assert.True(t, updated.IsActive)

		inactive := false
		updated, err = store.Update(ctx, testCoupon("PAUSED", 6), &inactive)
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
	})

	t.Run("Update missing coupon", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Update(ctx, testCoupon("GHOST", 1), nil)
		assert.True(t, errors.Is(err, model.ErrCouponNotFound))
	})

	t.Run("Set active", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, testCoupon("TOGGLE", 1)))

		c, err := store.SetActive(ctx, "TOGGLE", false)
		require.NoError(t, err)
		assert.False(t, c.IsActive)

		got, err := store.GetByCode(ctx, "TOGGLE")
		require.NoError(t, err)
		assert.False(t, got.IsActive)

		_, err = store.SetActive(ctx, "GHOST", true)
		assert.True(t, errors.Is(err, model.ErrCouponNotFound))
	})

	t.Run("Reserve consumes usage", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, testCoupon("ONCE", 1)))

		red := testRedemption("ONCE", "booking-1")
		stored, created, err := store.Reserve(ctx, red)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, red.ID, stored.ID)

		got, err := store.GetByCode(ctx, "ONCE")
		require.NoError(t, err)
		assert.Equal(t, 1, got.UsedCount)

		_, _, err = store.Reserve(ctx, testRedemption("ONCE", "booking-2"))
		assert.True(t, errors.Is(err, model.ErrCouponUsageExhausted))

		got, err = store.GetByCode(ctx, "ONCE")
		require.NoError(t, err)
		assert.Equal(t, 1, got.UsedCount)
	})

	t.Run("Reserve replays booking", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, testCoupon("REPLAY", 5)))

		first := testRedemption("REPLAY", "booking-1")
		_, created, err := store.Reserve(ctx, first)
		require.NoError(t, err)
		require.True(t, created)

		again, created, err := store.Reserve(ctx, testRedemption("REPLAY", "booking-1"))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)

		got, err := store.GetByCode(ctx, "REPLAY")
		require.NoError(t, err)
		assert.Equal(t, 1, got.UsedCount)
	})

	t.Run("Reserve replays booking even when exhausted", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, testCoupon("LAST", 1)))

		first := testRedemption("LAST", "booking-1")
		_, _, err := store.Reserve(ctx, first)
		require.NoError(t, err)

		again, created, err := store.Reserve(ctx, testRedemption("LAST", "booking-1"))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("Reserve missing coupon", func(t *testing.T) {
		store := newStore(t)

		_, _, err := store.Reserve(ctx, testRedemption("GHOST", "booking-1"))
		assert.True(t, errors.Is(err, model.ErrCouponNotFound))
	})

	t.Run("Find and list redemptions", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, testCoupon("HISTORY", 5)))

		base := time.Now().UTC().Truncate(time.Second)
		for i := range 3 {
			red := testRedemption("HISTORY", fmt.Sprintf("booking-%d", i))
			red.UsedAt = base.Add(time.Duration(i) * time.Minute)
			_, _, err := store.Reserve(ctx, red)
			require.NoError(t, err)
		}

		found, err := store.FindRedemption(ctx, "HISTORY", "booking-1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "booking-1", found.BookingID)
		assert.Equal(t, "user-1", found.UserID)
		assert.Equal(t, "car-1", found.CarID)
		assert.True(t, decimal.NewFromInt(500).Equal(found.DiscountApplied))

		missing, err := store.FindRedemption(ctx, "HISTORY", "booking-9")
		require.NoError(t, err)
		assert.Nil(t, missing)

		list, err := store.ListRedemptions(ctx, "HISTORY", 2, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "booking-2", list[0].BookingID)
		assert.Equal(t, "booking-1", list[1].BookingID)

		rest, err := store.ListRedemptions(ctx, "HISTORY", 2, 2)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, "booking-0", rest[0].BookingID)

		none, err := store.ListRedemptions(ctx, "HISTORY", 0, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, testCoupon("UNUSED", 1)))
		require.NoError(t, store.Create(ctx, testCoupon("USED", 1)))
		_, _, err := store.Reserve(ctx, testRedemption("USED", "booking-1"))
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, "UNUSED", false))
		got, err := store.GetByCode(ctx, "UNUSED")
		require.NoError(t, err)
		assert.Nil(t, got)

		err = store.Delete(ctx, "USED", false)
		assert.True(t, errors.Is(err, model.ErrCouponHasRedemptions))

		require.NoError(t, store.Delete(ctx, "USED", true))
		got, err = store.GetByCode(ctx, "USED")
		require.NoError(t, err)
		assert.Nil(t, got)
		red, err := store.FindRedemption(ctx, "USED", "booking-1")
		require.NoError(t, err)
		assert.Nil(t, red)

		list, err := store.List(ctx, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, list)

		err = store.Delete(ctx, "GHOST", true)
		assert.True(t, errors.Is(err, model.ErrCouponNotFound))
	})

	t.Run("Concurrent reservations never exceed limit", func(t *testing.T) {
		store := newStore(t)
		const limit, extra = 10, 15
		require.NoError(t, store.Create(ctx, testCoupon("RUSH", limit)))

		var committed, exhausted, failed atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := range limit + extra {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, created, err := store.Reserve(ctx, testRedemption("RUSH", fmt.Sprintf("booking-%d", i)))
				switch {
				case err == nil && created:
					committed.Add(1)
				case errors.Is(err, model.ErrCouponUsageExhausted):
					exhausted.Add(1)
				default:
					failed.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(limit), committed.Load())
		assert.Equal(t, int32(extra), exhausted.Load())
		assert.Equal(t, int32(0), failed.Load())

		got, err := store.GetByCode(ctx, "RUSH")
		require.NoError(t, err)
		assert.Equal(t, limit, got.UsedCount)

		history, err := store.ListRedemptions(ctx, "RUSH", 100, 0)
		require.NoError(t, err)
		assert.Len(t, history, limit)
	})

	t.Run("Concurrent replays of one booking consume once", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Create(ctx, testCoupon("SAME", 5)))

		var created atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok, err := store.Reserve(ctx, testRedemption("SAME", "booking-1"))
				if err == nil && ok {
					created.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), created.Load())
		got, err := store.GetByCode(ctx, "SAME")
		require.NoError(t, err)
		assert.Equal(t, 1, got.UsedCount)
	})
}
