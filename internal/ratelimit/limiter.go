// Package ratelimit implements a fixed-window request counter in Redis with
// an in-process token bucket to fall back on.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:" // ratelimit:{scope}:{subject}:{window_start_unix}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
	// Degraded is set when the decision came from the local fallback.
	Degraded bool
}

// Limiter counts requests per subject in fixed windows. Counters live in
// Redis so every API instance shares them.
type Limiter struct {
	client   *redis.Client
	fallback *Local
	scope    string
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewLimiter(client *redis.Client, scope string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client:   client,
		fallback: NewLocal(limit, window),
		scope:    scope,
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow counts one request for subject and reports whether it fits in the
// current window. When Redis fails the error is returned together with a
// Degraded decision from the local bucket.
func (l *Limiter) Allow(ctx context.Context, subject string) (Decision, error) {
	now := l.now()
	start := now.Truncate(l.window)
	reset := start.Add(l.window)
	key := l.key(subject, start)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// Keep the key a little past the window end so clock skew between
	// instances does not reset a counter early.
	pipe.Expire(ctx, key, l.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return l.fallback.AllowAt(subject, now), fmt.Errorf("failed to count request: %w", err)
	}

	count := int(incr.Val())
	d := Decision{
		Allowed: count <= l.limit,
		Limit:   l.limit,
		ResetAt: reset,
	}
	if d.Allowed {
		d.Remaining = l.limit - count
		return d, nil
	}

	d.RetryAfter = reset.Sub(now)
	if d.RetryAfter < time.Second {
		d.RetryAfter = time.Second
	}
	return d, nil
}

func (l *Limiter) key(subject string, start time.Time) string {
	return keyPrefix + l.scope + ":" + subject + ":" + strconv.FormatInt(start.Unix(), 10)
}

// RetryAfterSeconds renders d for a Retry-After header, rounding up.
func RetryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
