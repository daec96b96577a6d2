package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	errs "igunfollowers/pkg/errors"
)

// BackoffStrategy decides how long to wait before the next attempt.
// attempt is the number of attempts already made and err is the error the
// last one failed with.
type BackoffStrategy interface {
	NextDelay(attempt int, err error) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	// BaseDelay is the delay after the first failed attempt
	BaseDelay time.Duration
	// MaxDelay caps the computed delay before jitter
	MaxDelay time.Duration
	// Multiplier is the factor by which delay increases
	Multiplier float64
	// JitterFactor spreads the delay by up to this fraction (0.0 to 1.0)
	JitterFactor float64
}

// DefaultExponentialBackoff returns a backoff with sensible defaults
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int, _ error) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// ConstantBackoff waits the same delay between every attempt
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int, _ error) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// ErrorTypeBackoff picks a strategy from the type of the last error.
// Rate limiting gets the slowest schedule.
type ErrorTypeBackoff struct {
	Network   BackoffStrategy
	RateLimit BackoffStrategy
	Server    BackoffStrategy
	Default   BackoffStrategy
}

// NewErrorTypeBackoff creates an error-type based backoff with defaults
// tuned for the Instagram web endpoints.
func NewErrorTypeBackoff() *ErrorTypeBackoff {
	return &ErrorTypeBackoff{
		Network: &ExponentialBackoff{
			BaseDelay:    1 * time.Second,
			MaxDelay:     15 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.2,
		},
		RateLimit: &ExponentialBackoff{
			BaseDelay:    30 * time.Second,
			MaxDelay:     5 * time.Minute,
			Multiplier:   1.5,
			JitterFactor: 0.3,
		},
		Server: &ExponentialBackoff{
			BaseDelay:    5 * time.Second,
			MaxDelay:     60 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Default: DefaultExponentialBackoff(),
	}
}

// NextDelay delegates to the strategy registered for err's type
func (etb *ErrorTypeBackoff) NextDelay(attempt int, err error) time.Duration {
	return etb.strategyFor(err).NextDelay(attempt, err)
}

func (etb *ErrorTypeBackoff) strategyFor(err error) BackoffStrategy {
	var s BackoffStrategy
	switch errs.TypeOf(err) {
	case errs.ErrorTypeNetwork:
		s = etb.Network
	case errs.ErrorTypeRateLimit:
		s = etb.RateLimit
	case errs.ErrorTypeServerError:
		s = etb.Server
	}
	if s == nil {
		s = etb.Default
	}
	if s == nil {
		s = DefaultExponentialBackoff()
	}
	return s
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
