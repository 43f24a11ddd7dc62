// Package outbound throttles and delivers replies to messaging channels.
package outbound

import (
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket is the only shared mutable state in the send path. The clock is
// always passed in so tests can drive it.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket refills perSecond tokens each second up to burst.
func NewTokenBucket(perSecond float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Refill reports the tokens available at now.
func (b *TokenBucket) Refill(now time.Time) float64 {
	return b.limiter.TokensAt(now)
}

// Consume takes one token at now, or reports false when the bucket is empty.
func (b *TokenBucket) Consume(now time.Time) bool {
	return b.limiter.AllowN(now, 1)
}

// Capacity is the burst size.
func (b *TokenBucket) Capacity() int {
	return b.limiter.Burst()
}
