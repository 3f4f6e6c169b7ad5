package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Local is a token bucket per subject held in process memory. It stands in
// for the Redis counter while Redis is unreachable, so during an outage each
// API instance enforces the limit on its own. Buckets are never evicted;
// subjects are profile ids.
type Local struct {
	mu       sync.Mutex
	limit    int
	interval time.Duration
	buckets  map[string]*rate.Limiter
}

// NewLocal refills one token every window/limit with a burst of limit, so a
// quiet subject gets the same allowance as a fresh Redis window.
func NewLocal(limit int, window time.Duration) *Local {
	return &Local{
		limit:    limit,
		interval: window / time.Duration(limit),
		buckets:  make(map[string]*rate.Limiter),
	}
}

// AllowAt counts one request for subject at now.
func (l *Local) AllowAt(subject string, now time.Time) Decision {
	b := l.bucket(subject)
	d := Decision{Limit: l.limit, Degraded: true}

	r := b.ReserveN(now, 1)
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		d.RetryAfter = wait
		d.ResetAt = now.Add(wait)
		return d
	}

	tokens := b.TokensAt(now)
	d.Allowed = true
	d.Remaining = int(tokens)
	d.ResetAt = now.Add(time.Duration((float64(l.limit) - tokens) * float64(l.interval)))
	return d
}

func (l *Local) bucket(subject string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[subject]
	if !ok {
		b = rate.NewLimiter(rate.Every(l.interval), l.limit)
		l.buckets[subject] = b
	}
	return b
}
