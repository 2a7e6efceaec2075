// Package backoff retries storage operations that fail with transient lock
// contention.
package backoff

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/caskettrack/pkg/config"
	"github.com/sethvargo/go-retry"
)

// Sleeper waits between attempts. Tests substitute a fake clock.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
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

// TimerSleeper sleeps on a real timer and returns early on cancellation.
var TimerSleeper Sleeper = timerSleeper{}

// Policy bounds how often and how quickly an operation is retried.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Jitter      time.Duration
	Sleeper     Sleeper
}

// FromConfig builds the scan retry policy.
func FromConfig(cfg config.ScanConfig) Policy {
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.RetryDelay,
		Jitter:      cfg.RetryJitter,
		Sleeper:     TimerSleeper,
	}
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Hook observes retried failures.
type Hook func(attempt int, err error, wait time.Duration)

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// backoff builds a fresh schedule; go-retry backoffs are stateful.
func (p Policy) backoff() retry.Backoff {
	var b retry.Backoff
	if p.Delay > 0 {
		b = retry.NewConstant(p.Delay)
	} else {
		b = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	if p.Jitter > 0 {
		b = retry.WithJitter(p.Jitter, b)
	}
	return retry.WithMaxRetries(uint64(p.attempts()-1), b)
}

// Do runs fn until it succeeds, fails with an error retryable rejects, or the
// attempt budget is spent. It returns the number of attempts made.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, onRetry Hook, fn func(ctx context.Context, attempt int) error) (int, error) {
	sleeper := p.Sleeper
	if sleeper == nil {
		sleeper = TimerSleeper
	}
	b := p.backoff()

	for attempt := 1; ; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		if retryable == nil || !retryable(err) {
			return attempt, err
		}

		wait, stop := b.Next()
		if stop {
			return attempt, &ExhaustedError{Attempts: attempt, Err: err}
		}
		if onRetry != nil {
			onRetry(attempt, err, wait)
		}
		if serr := sleeper.Sleep(ctx, wait); serr != nil {
			return attempt, fmt.Errorf("waiting to retry: %w", serr)
		}
	}
}
