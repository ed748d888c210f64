package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"rentwheels/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Key layout. Per-coupon keys share a hash tag so the reserve script stays within one slot.
//
//	rentwheels:coupon:{CODE}              hash: data (JSON), used, limit, active, updated
//	rentwheels:coupon:{CODE}:redemptions  hash: booking id -> redemption JSON
//	rentwheels:coupon:{CODE}:history      list: booking ids, newest first
//	rentwheels:coupons                    sorted set of codes (score 0, lexical order)
const (
	redisKeyPrefix = "rentwheels:"
	redisIndexKey  = redisKeyPrefix + "coupons"
)

func couponKey(code string) string      { return redisKeyPrefix + "coupon:{" + code + "}" }
func redemptionsKey(code string) string { return couponKey(code) + ":redemptions" }
func historyKey(code string) string     { return couponKey(code) + ":history" }

var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'data', ARGV[1], 'used', ARGV[2], 'limit', ARGV[3], 'active', ARGV[4], 'updated', ARGV[5])
return 1
`)

var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local used = tonumber(redis.call('HGET', KEYS[1], 'used'))
if tonumber(ARGV[2]) < used then
	return -2
end
redis.call('HSET', KEYS[1], 'data', ARGV[1], 'limit', ARGV[2], 'updated', ARGV[4])
if ARGV[3] ~= '' then
	redis.call('HSET', KEYS[1], 'active', ARGV[3])
end
return 1
`)

var setActiveScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'active', ARGV[1], 'updated', ARGV[2])
return 1
`)

var deleteScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
if ARGV[1] ~= '1' and redis.call('HLEN', KEYS[2]) > 0 then
	return -2
end
redis.call('DEL', KEYS[1], KEYS[2], KEYS[3])
return 1
`)

// reserveScript is the atomic conditional increment: it replays an existing booking,
// refuses when used has reached limit, and otherwise increments used and records the
// redemption in the same script execution.
var reserveScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {-1}
end
local existing = redis.call('HGET', KEYS[2], ARGV[1])
if existing then
	return {0, existing}
end
local used = tonumber(redis.call('HGET', KEYS[1], 'used'))
local limit = tonumber(redis.call('HGET', KEYS[1], 'limit'))
if used >= limit then
	return {-2}
end
redis.call('HINCRBY', KEYS[1], 'used', 1)
redis.call('HSET', KEYS[1], 'updated', ARGV[3])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
redis.call('LPUSH', KEYS[3], ARGV[1])
return {1}
`)

// redisStore implements CouponStore on Redis using Lua scripts for every conditional write.
type redisStore struct {
	client redis.UniversalClient
	logger zerolog.Logger
	now    func() time.Time
}

// NewRedisStore creates a new Redis-backed coupon store.
func NewRedisStore(client redis.UniversalClient, logger zerolog.Logger) CouponStore {
	return &redisStore{
		client: client,
		logger: logger.With().Str("repository", "coupon-redis").Logger(),
		now:    time.Now,
	}
}

// ReservesAtomically reports that Reserve runs as a single Lua script.
func (s *redisStore) ReservesAtomically() bool {
	return true
}

func (s *redisStore) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	values, err := s.client.HMGet(ctx, couponKey(code), "data", "used", "limit", "active", "updated").Result()
	if err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to read coupon")
		return nil, fmt.Errorf("failed to read coupon: %w", err)
	}

	c, err := decodeCouponHash(values)
	if err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to decode coupon")
		return nil, fmt.Errorf("failed to decode coupon %s: %w", code, err)
	}
	return c, nil
}

func (s *redisStore) List(ctx context.Context, limit, offset int) ([]model.Coupon, error) {
	if limit <= 0 {
		return []model.Coupon{}, nil
	}
	offset = max(offset, 0)
	stop := int64(offset + limit - 1)

	codes, err := s.client.ZRange(ctx, redisIndexKey, int64(offset), stop).Result()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read coupon index")
		return nil, fmt.Errorf("failed to read coupon index: %w", err)
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.SliceCmd, len(codes))
	for i, code := range codes {
		cmds[i] = pipe.HMGet(ctx, couponKey(code), "data", "used", "limit", "active", "updated")
	}
	if len(codes) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			s.logger.Error().Err(err).Msg("failed to read coupons")
			return nil, fmt.Errorf("failed to read coupons: %w", err)
		}
	}

	coupons := make([]model.Coupon, 0, len(codes))
	for i, cmd := range cmds {
		c, err := decodeCouponHash(cmd.Val())
		if err != nil {
			return nil, fmt.Errorf("failed to decode coupon %s: %w", codes[i], err)
		}
		// Deleted between reading the index and the hashes.
		if c == nil {
			continue
		}
		coupons = append(coupons, *c)
	}
	return coupons, nil
}

func (s *redisStore) Create(ctx context.Context, c *model.Coupon) error {
	now := s.now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode coupon: %w", err)
	}

	created, err := createScript.Run(ctx, s.client, []string{couponKey(c.Code)},
		data, c.UsedCount, c.UsageLimit, redisBool(c.IsActive), formatTime(now)).Int()
	if err != nil {
		s.logger.Error().Err(err).Str("code", c.Code).Msg("failed to create coupon")
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	if created == 0 {
		return model.ErrCouponExists
	}

	if err := s.client.ZAdd(ctx, redisIndexKey, redis.Z{Member: c.Code}).Err(); err != nil {
		s.logger.Error().Err(err).Str("code", c.Code).Msg("failed to index coupon")
		return fmt.Errorf("failed to index coupon: %w", err)
	}

	s.logger.Debug().Str("code", c.Code).Msg("coupon created successfully")
	return nil
}

// Update leaves the active field alone when active is nil; the hash field, not the
// JSON document, is what readers see.
func (s *redisStore) Update(ctx context.Context, c *model.Coupon, active *bool) (*model.Coupon, error) {
	current, err := s.GetByCode(ctx, c.Code)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, model.ErrCouponNotFound
	}

	updated := *c
	updated.IsActive = current.IsActive
	activeArg := ""
	if active != nil {
		updated.IsActive = *active
		activeArg = redisBool(*active)
	}
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode coupon: %w", err)
	}

	result, err := updateScript.Run(ctx, s.client, []string{couponKey(c.Code)},
		data, c.UsageLimit, activeArg, formatTime(updated.UpdatedAt)).Int()
	if err != nil {
		s.logger.Error().Err(err).Str("code", c.Code).Msg("failed to update coupon")
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}

	switch result {
	case -1:
		return nil, model.ErrCouponNotFound
	case -2:
		return nil, model.ErrUsageLimitBelowUsed
	}

	s.logger.Debug().Str("code", c.Code).Msg("coupon updated successfully")
	return s.GetByCode(ctx, c.Code)
}

func (s *redisStore) SetActive(ctx context.Context, code string, active bool) (*model.Coupon, error) {
	ok, err := setActiveScript.Run(ctx, s.client, []string{couponKey(code)},
		redisBool(active), formatTime(s.now().UTC())).Int()
	if err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to toggle coupon")
		return nil, fmt.Errorf("failed to toggle coupon: %w", err)
	}
	if ok == 0 {
		return nil, model.ErrCouponNotFound
	}

	s.logger.Debug().Str("code", code).Bool("active", active).Msg("coupon toggled")
	return s.GetByCode(ctx, code)
}

func (s *redisStore) Delete(ctx context.Context, code string, force bool) error {
	result, err := deleteScript.Run(ctx, s.client,
		[]string{couponKey(code), redemptionsKey(code), historyKey(code)}, redisBool(force)).Int()
	if err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to delete coupon")
		return fmt.Errorf("failed to delete coupon: %w", err)
	}

	switch result {
	case -1:
		return model.ErrCouponNotFound
	case -2:
		return model.ErrCouponHasRedemptions
	}

	if err := s.client.ZRem(ctx, redisIndexKey, code).Err(); err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to remove coupon from index")
		return fmt.Errorf("failed to remove coupon from index: %w", err)
	}

	s.logger.Info().Str("code", code).Bool("force", force).Msg("coupon deleted")
	return nil
}

func (s *redisStore) Reserve(ctx context.Context, red *model.Redemption) (*model.Redemption, bool, error) {
	data, err := json.Marshal(red)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode redemption: %w", err)
	}

	keys := []string{couponKey(red.CouponCode), redemptionsKey(red.CouponCode), historyKey(red.CouponCode)}
	result, err := reserveScript.Run(ctx, s.client, keys, red.BookingID, data, formatTime(s.now().UTC())).Slice()
	if err != nil {
		s.logger.Error().Err(err).Str("code", red.CouponCode).Msg("failed to reserve coupon usage")
		return nil, false, fmt.Errorf("failed to reserve coupon usage: %w", err)
	}

	status, _ := result[0].(int64)
	switch status {
	case -1:
		return nil, false, model.ErrCouponNotFound
	case -2:
		return nil, false, model.ErrCouponUsageExhausted
	case 0:
		raw, _ := result[1].(string)
		existing, err := decodeRedemption(raw)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	s.logger.Debug().
		Str("code", red.CouponCode).
		Str("booking_id", red.BookingID).
		Str("redemption_id", red.ID.String()).
		Msg("coupon usage reserved")

	stored := *red
	return &stored, true, nil
}

func (s *redisStore) FindRedemption(ctx context.Context, code, bookingID string) (*model.Redemption, error) {
	raw, err := s.client.HGet(ctx, redemptionsKey(code), bookingID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		s.logger.Error().Err(err).Str("code", code).Str("booking_id", bookingID).Msg("failed to read redemption")
		return nil, fmt.Errorf("failed to read redemption: %w", err)
	}
	return decodeRedemption(raw)
}

func (s *redisStore) ListRedemptions(ctx context.Context, code string, limit, offset int) ([]model.Redemption, error) {
	if limit <= 0 {
		return []model.Redemption{}, nil
	}
	offset = max(offset, 0)
	stop := int64(offset + limit - 1)

	bookingIDs, err := s.client.LRange(ctx, historyKey(code), int64(offset), stop).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to read redemption history")
		return nil, fmt.Errorf("failed to read redemption history: %w", err)
	}

	redemptions := make([]model.Redemption, 0, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return redemptions, nil
	}

	values, err := s.client.HMGet(ctx, redemptionsKey(code), bookingIDs...).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to read redemptions")
		return nil, fmt.Errorf("failed to read redemptions: %w", err)
	}

	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		red, err := decodeRedemption(raw)
		if err != nil {
			return nil, err
		}
		redemptions = append(redemptions, *red)
	}
	return redemptions, nil
}

// decodeCouponHash merges the JSON document with the separately kept mutable fields.
// It returns nil, nil when the hash does not exist.
func decodeCouponHash(values []interface{}) (*model.Coupon, error) {
	data, ok := values[0].(string)
	if !ok {
		return nil, nil
	}

	var c model.Coupon
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, err
	}

	var err error
	if c.UsedCount, err = hashInt(values[1]); err != nil {
		return nil, fmt.Errorf("invalid used count: %w", err)
	}
	if c.UsageLimit, err = hashInt(values[2]); err != nil {
		return nil, fmt.Errorf("invalid usage limit: %w", err)
	}
	if active, ok := values[3].(string); ok {
		c.IsActive = active == "1"
	}
	if updated, ok := values[4].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			c.UpdatedAt = t
		}
	}

	return &c, nil
}

func decodeRedemption(raw string) (*model.Redemption, error) {
	var red model.Redemption
	if err := json.Unmarshal([]byte(raw), &red); err != nil {
		return nil, fmt.Errorf("failed to decode redemption: %w", err)
	}
	return &red, nil
}

func hashInt(v interface{}) (int, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("missing field")
	}
	return strconv.Atoi(s)
}

func redisBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
