package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rule is one sliding-window budget, e.g. 100 requests per 15 minutes.
type Rule struct {
	Name     string
	Requests int
	Window   time.Duration
}

// Decision is the outcome of a single Allow call
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// slidingWindow trims entries older than the window, then records the request
// only if the budget allows it. Returns {allowed, remaining, oldest_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {0, 0, tonumber(oldest[2])}
`)

// Limiter counts requests per key in Redis sorted sets
type Limiter struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewLimiter(client redis.UniversalClient) *Limiter {
	return &Limiter{client: client, now: time.Now}
}

// getRateLimitKey generates the Redis key for a rule and client
func getRateLimitKey(rule Rule, key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", rule.Name, key)
}

// Allow records one request for key under rule and reports whether it fits the budget
func (l *Limiter) Allow(ctx context.Context, rule Rule, key string) (Decision, error) {
	now := l.now()
	windowMs := rule.Window.Milliseconds()

	res, err := slidingWindow.Run(ctx, l.client,
		[]string{getRateLimitKey(rule, key)},
		now.UnixMilli(), windowMs, rule.Requests, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit reply %v", res)
	}

	d := Decision{
		Allowed:   res[0] == 1,
		Limit:     rule.Requests,
		Remaining: int(res[1]),
		ResetAt:   now.Add(rule.Window),
	}
	if !d.Allowed && res[2] > 0 {
		d.ResetAt = time.UnixMilli(res[2]).Add(rule.Window)
	}
	return d, nil
}
