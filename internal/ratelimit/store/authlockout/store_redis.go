package authlockout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"medgate/internal/ratelimit/models"
)

// recordFailureScript applies the window resets and increments atomically.
// Timestamps are unix milliseconds.
var recordFailureScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_cutoff = tonumber(ARGV[2])
local day_cutoff = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local last = tonumber(redis.call('HGET', key, 'last_failure_at') or '0')
local failures = tonumber(redis.call('HGET', key, 'failure_count') or '0')
local daily = tonumber(redis.call('HGET', key, 'daily_failures') or '0')
if last < window_cutoff then failures = 0 end
if last < day_cutoff then daily = 0 end
failures = failures + 1
daily = daily + 1

redis.call('HSET', key, 'failure_count', failures, 'daily_failures', daily, 'last_failure_at', now)
if redis.call('PTTL', key) < ttl then
	redis.call('PEXPIRE', key, ttl)
end
local locked = redis.call('HGET', key, 'locked_until') or '0'
return {failures, daily, locked}
`)

// RedisStore shares lockout state across gateway instances. Each record is a
// hash that expires one DailyWindow after its last write.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, identifier string) (*models.AuthLockout, error) {
	fields, err := s.client.HGetAll(ctx, identifier).Result()
	if err != nil {
		return nil, fmt.Errorf("get auth lockout: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	record := &models.AuthLockout{Identifier: identifier}
	record.FailureCount, _ = strconv.Atoi(fields["failure_count"])
	record.DailyFailures, _ = strconv.Atoi(fields["daily_failures"])
	record.LastFailureAt = fromMillis(parseInt64(fields["last_failure_at"]))
	record.LockedUntil = lockedUntil(parseInt64(fields["locked_until"]))
	return record, nil
}

func (s *RedisStore) RecordFailure(ctx context.Context, identifier string, now time.Time, window time.Duration) (*models.AuthLockout, error) {
	res, err := recordFailureScript.Run(ctx, s.client, []string{identifier},
		now.UnixMilli(),
		now.Add(-window).UnixMilli(),
		now.Add(-models.DailyWindow).UnixMilli(),
		models.DailyWindow.Milliseconds(),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("record auth failure: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("record auth failure: unexpected reply of %d values", len(res))
	}
	return &models.AuthLockout{
		Identifier:    identifier,
		FailureCount:  int(toInt64(res[0])),
		DailyFailures: int(toInt64(res[1])),
		LastFailureAt: fromMillis(now.UnixMilli()),
		LockedUntil:   lockedUntil(toInt64(res[2])),
	}, nil
}

func (s *RedisStore) Update(ctx context.Context, record *models.AuthLockout) error {
	if record == nil {
		return errors.New("auth lockout record is required")
	}
	var locked int64
	ttl := models.DailyWindow
	if record.LockedUntil != nil {
		locked = record.LockedUntil.UnixMilli()
		ttl = max(ttl, time.Until(*record.LockedUntil))
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, record.Identifier,
			"failure_count", record.FailureCount,
			"daily_failures", record.DailyFailures,
			"last_failure_at", record.LastFailureAt.UnixMilli(),
			"locked_until", locked,
		)
		p.PExpire(ctx, record.Identifier, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update auth lockout: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, identifier).Err(); err != nil {
		return fmt.Errorf("clear auth lockout: %w", err)
	}
	return nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func lockedUntil(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := fromMillis(ms)
	return &t
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case string:
		return parseInt64(n)
	}
	return 0
}
