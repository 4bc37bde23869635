package retry

import (
	"context"
	"time"

	"github.com/x402punks/punk-pinner/internal/pinning"
)

const (
	DefaultMaxAttempts = 6
	DefaultBaseBackoff = 3 * time.Second
	DefaultMaxBackoff  = 60 * time.Second
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
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

// Policy retries rate limited and transient failures with exponential backoff.
// Unauthorized and malformed failures are returned after the first attempt.
type Policy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Sleep       Sleeper
}

func NewPolicy(maxAttempts int, baseBackoff, maxBackoff time.Duration) *Policy {
	return &Policy{
		MaxAttempts: maxAttempts,
		BaseBackoff: baseBackoff,
		MaxBackoff:  maxBackoff,
		Sleep:       Sleep,
	}
}

func DefaultPolicy() *Policy {
	return NewPolicy(DefaultMaxAttempts, DefaultBaseBackoff, DefaultMaxBackoff)
}

// Outcome is the final result of a retried call.
type Outcome[T any] struct {
	Value    T
	Err      error
	Attempts int
}

func (o Outcome[T]) Succeeded() bool {
	return o.Err == nil
}

// Backoff returns the wait after the given failed attempt (1-based):
// base * 2^(attempt-1), capped at MaxBackoff when MaxBackoff is positive.
func (p *Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

func (p *Policy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Do calls fn until it succeeds, fails with a terminal error, or the attempts are
// exhausted. onRateLimit, when not nil, is called for every rate limited attempt,
// including the ones that are eventually followed by a success.
func Do[T any](ctx context.Context, p *Policy, fn func(ctx context.Context) (T, error), onRateLimit func()) Outcome[T] {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var (
		zero T
		err  error
	)
	maxAttempts := p.maxAttempts()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var value T
		value, err = fn(ctx)
		if err == nil {
			return Outcome[T]{Value: value, Attempts: attempt}
		}

		kind := pinning.KindOf(err)
		if kind == pinning.KindRateLimited && onRateLimit != nil {
			onRateLimit()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome[T]{Value: zero, Err: ctxErr, Attempts: attempt}
		}
		if !kind.Retryable() || attempt == maxAttempts {
			return Outcome[T]{Value: zero, Err: err, Attempts: attempt}
		}

		if sleepErr := sleep(ctx, p.Backoff(attempt)); sleepErr != nil {
			return Outcome[T]{Value: zero, Err: sleepErr, Attempts: attempt}
		}
	}

	return Outcome[T]{Value: zero, Err: err, Attempts: maxAttempts}
}
