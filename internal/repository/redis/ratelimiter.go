package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rivaq/rivaq-backend/internal/repository/ports"
)

// INCR the window counter, arm its expiry on the first hit, report {count, pttl}.
const fixedWindowScript = `
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {c, ttl}
`

// FixedWindowLimiter counts hits per key in Redis. A nil client allows everything.
type FixedWindowLimiter struct {
	rdb    *goredis.Client
	prefix string
}

func NewFixedWindowLimiter(c *Client, prefix string) *FixedWindowLimiter {
	l := &FixedWindowLimiter{prefix: prefix}
	if c != nil {
		l.rdb = c.rdb
	}
	return l
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (ports.RateDecision, error) {
	if limit <= 0 || l.rdb == nil {
		return ports.RateDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if window <= 0 {
		window = time.Minute
	}
	ttlms := window.Milliseconds()
	if ttlms <= 0 {
		ttlms = 1
	}

	res, err := l.rdb.Eval(ctx, fixedWindowScript, []string{l.prefix + key}, ttlms).Result()
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("ratelimit redis eval: %w", err)
	}
	arr, ok := res.([]any)
	if !ok || len(arr) != 2 {
		return ports.RateDecision{}, fmt.Errorf("ratelimit redis eval: unexpected result %T", res)
	}
	count, ok1 := arr[0].(int64)
	ttl, ok2 := arr[1].(int64)
	if !ok1 || !ok2 {
		return ports.RateDecision{}, fmt.Errorf("ratelimit redis eval: unexpected element types")
	}

	d := ports.RateDecision{
		Allowed:   int(count) <= limit,
		Limit:     limit,
		Remaining: max(0, limit-int(count)),
	}
	if !d.Allowed {
		d.RetryAfter = window
		if ttl > 0 {
			d.RetryAfter = time.Duration(ttl) * time.Millisecond
		}
	}
	return d, nil
}

var _ ports.RateLimiter = (*FixedWindowLimiter)(nil)
