package places

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// rateWindow is the length of the rolling request budget window.
const rateWindow = time.Minute

// RateLimiter throttles outbound places API calls against a rolling
// per-minute budget, then adds a uniformly random jitter delay so bursts of
// requests do not arrive in lockstep.
//
// The limiter is shared between all workers of a run. Window bookkeeping is
// held under the mutex for the whole acquisition, including the saturation
// sleep: once the budget is spent, every caller must wait until the window
// resets, and releasing the lock earlier would let two workers both observe
// an under-budget counter and overshoot the provider limit.
type RateLimiter struct {
	mu           sync.Mutex
	maxPerMinute int
	minDelay     time.Duration
	maxDelay     time.Duration
	windowStart  time.Time
	count        int
	log          *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a limiter with the given per-minute budget and
// jitter bounds. maxDelay must be >= minDelay; config validation guarantees
// that before the limiter is built.
func NewRateLimiter(maxPerMinute int, minDelay, maxDelay time.Duration, log *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		maxPerMinute: maxPerMinute,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		log:          log,
		now:          time.Now,
		sleep:        sleepContext,
	}
	rl.windowStart = rl.now()
	return rl
}

// newRateLimiterWithClock injects the clock and sleeper, for tests.
func newRateLimiterWithClock(
	maxPerMinute int,
	minDelay, maxDelay time.Duration,
	log *slog.Logger,
	now func() time.Time,
	sleep func(ctx context.Context, d time.Duration) error,
) *RateLimiter {
	rl := &RateLimiter{
		maxPerMinute: maxPerMinute,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		log:          log,
		now:          now,
		sleep:        sleep,
	}
	rl.windowStart = rl.now()
	return rl
}

// Acquire blocks until one more outbound call may be issued, then records it.
// The only error is context cancellation during one of the sleeps.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	rl.mu.Lock()

	now := rl.now()
	elapsed := now.Sub(rl.windowStart)

	switch {
	case elapsed >= rateWindow:
		// Window expired, start a fresh one.
		rl.count = 0
		rl.windowStart = now
	case rl.count >= rl.maxPerMinute:
		wait := rateWindow - elapsed
		rl.log.InfoContext(ctx, "Rate limit reached, waiting for window reset", "wait", wait)
		if err := rl.sleep(ctx, wait); err != nil {
			rl.mu.Unlock()
			return err
		}
		rl.count = 0
		rl.windowStart = rl.now()
	}

	rl.count++
	rl.mu.Unlock()

	return rl.sleep(ctx, rl.jitter())
}

// jitter picks a uniformly random delay in [minDelay, maxDelay].
func (rl *RateLimiter) jitter() time.Duration {
	spread := rl.maxDelay - rl.minDelay
	if spread <= 0 {
		return rl.minDelay
	}
	return rl.minDelay + time.Duration(rand.Int64N(int64(spread)+1))
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
