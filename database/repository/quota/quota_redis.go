package quotaRepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const quotaPrefix = "ai:quota:"

// QuotaRepository counts AI drafts per channel per UTC day.
type QuotaRepository interface {
	Used(ctx context.Context, channelID string, day time.Time) (int, error)
	// Reserve takes one slot if fewer than limit are taken. It returns the
	// count after the call and whether a slot was taken.
	Reserve(ctx context.Context, channelID string, day time.Time, limit int) (int, bool, error)
	// Release gives back a slot taken by Reserve.
	Release(ctx context.Context, channelID string, day time.Time) error
}

// Check and increment run as one script so concurrent drafts cannot overshoot the limit.
var reserveScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n >= tonumber(ARGV[1]) then
	return {0, n}
end
n = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return {1, n}
`)

var releaseScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n > 0 then
	return redis.call('DECR', KEYS[1])
end
return 0
`)

// RedisQuotaRepo keeps one counter key per channel and day.
type RedisQuotaRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisQuotaRepo builds a quota repository. Counter keys outlive their day by ttl.
func NewRedisQuotaRepo(client *redis.Client, ttl time.Duration) *RedisQuotaRepo {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &RedisQuotaRepo{client: client, ttl: ttl}
}

func quotaKey(channelID string, day time.Time) string {
	return quotaPrefix + channelID + ":" + day.UTC().Format("2006-01-02")
}

// Used returns the number of drafts generated for channelID on day.
func (r *RedisQuotaRepo) Used(ctx context.Context, channelID string, day time.Time) (int, error) {
	val, err := r.client.Get(ctx, quotaKey(channelID, day)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota for %s: %w", channelID, err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt quota counter for %s: %w", channelID, err)
	}
	return n, nil
}

func (r *RedisQuotaRepo) Reserve(ctx context.Context, channelID string, day time.Time, limit int) (int, bool, error) {
	res, err := reserveScript.Run(ctx, r.client, []string{quotaKey(channelID, day)}, limit, int(r.ttl.Seconds())).Slice()
	if err != nil {
		return 0, false, fmt.Errorf("failed to reserve quota for %s: %w", channelID, err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("unexpected quota reply for %s: %v", channelID, res)
	}
	taken, _ := res[0].(int64)
	n, _ := res[1].(int64)
	return int(n), taken == 1, nil
}

func (r *RedisQuotaRepo) Release(ctx context.Context, channelID string, day time.Time) error {
	if err := releaseScript.Run(ctx, r.client, []string{quotaKey(channelID, day)}).Err(); err != nil {
		return fmt.Errorf("failed to release quota for %s: %w", channelID, err)
	}
	return nil
}
