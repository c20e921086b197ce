package google

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket: a sustained rate plus a burst.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int

	// MaxRetries bounds how often Do retries a rate limited call.
	MaxRetries int
}

// DefaultDriveRateLimit stays below Drive's 10 requests/sec/user quota.
var DefaultDriveRateLimit = RateLimitConfig{RequestsPerSecond: 8, BurstSize: 10, MaxRetries: 3}

// Backoff after a rate limited response without Retry-After starts at
// baseBackoff and doubles per consecutive hit, up to maxBackoff.
const (
	baseBackoff = 5 * time.Second
	maxBackoff  = 2 * time.Minute
)

// RateLimiter paces Google API calls and pauses every caller after the
// API reports quota exhaustion.
type RateLimiter struct {
	limiter    *rate.Limiter
	maxRetries int

	mu       sync.Mutex
	pausedTo time.Time
	strikes  int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a limiter. Zero fields fall back to
// DefaultDriveRateLimit.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultDriveRateLimit.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultDriveRateLimit.BurstSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultDriveRateLimit.MaxRetries
	}
	return &RateLimiter{
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		maxRetries: cfg.MaxRetries,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Wait blocks until a pause, if any, is over and a token is available.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	pause := r.pausedTo.Sub(r.now())
	r.mu.Unlock()

	if pause > 0 {
		if err := r.sleep(ctx, pause); err != nil {
			return err
		}
	}
	return r.limiter.Wait(ctx)
}

// Pause holds every caller for d. A zero d picks an exponential backoff
// based on how many rate limited responses arrived in a row.
func (r *RateLimiter) Pause(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.strikes++
	if d <= 0 {
		d = min(baseBackoff<<min(r.strikes-1, 8), maxBackoff)
	}
	if until := r.now().Add(d); until.After(r.pausedTo) {
		r.pausedTo = until
	}
}

func (r *RateLimiter) clearStrikes() {
	r.mu.Lock()
	r.strikes = 0
	r.mu.Unlock()
}

// Do runs fn under the limiter. Rate limited attempts are retried after
// the delay the API asked for; any other error is returned wrapped by
// WrapError.
func (r *RateLimiter) Do(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		if err := r.Wait(ctx); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			r.clearStrikes()
			return nil
		}
		if !IsRateLimited(err) || attempt >= r.maxRetries {
			return WrapError(err)
		}
		r.Pause(RetryAfter(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
