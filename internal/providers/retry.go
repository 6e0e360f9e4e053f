package providers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type WaitFunc func(ctx context.Context, d time.Duration) error

// Retrier runs an operation up to Attempts times with a fixed Delay between
// failed attempts. Cancellation is checked before each attempt and while
// waiting.
type Retrier struct {
	Attempts int
	Delay    time.Duration
	Wait     WaitFunc
}

func NewRetrier(attempts int, delay time.Duration) Retrier {
	if attempts < 1 {
		attempts = 1
	}

	return Retrier{
		Attempts: attempts,
		Delay:    delay,
		Wait:     sleepContext,
	}
}

// retry returns the value of the first successful attempt, or the last error
// together with the number of attempts made.
func retry[T any](ctx context.Context, r Retrier, op func(attempt int) (T, error)) (T, int, error) {
	var (
		zero    T
		lastErr error
	)

	wait := r.Wait
	if wait == nil {
		wait = sleepContext
	}

	attempts := max(r.Attempts, 1)

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt - 1, err
		}

		result, err := op(attempt)
		if err == nil {
			return result, attempt, nil
		}

		lastErr = err
		if attempt == attempts {
			break
		}

		log.Debug().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("delay", r.Delay).
			Str("state", "RETRYING").
			Msg("request failed, retrying")

		if err := wait(ctx, r.Delay); err != nil {
			return zero, attempt, err
		}
	}

	return zero, attempts, lastErr
}

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
