// Package retry schedules the client's redials when the server is not
// accepting yet.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrExhausted is wrapped around the last failure once every allowed
// attempt has been used.
var ErrExhausted = errors.New("retry budget exhausted")

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError marks a failure that another attempt cannot fix, such
// as an unparsable address.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Do returns it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ── Policy ───────────────────────────────────────────────────────────

const (
	defaultInitial = 250 * time.Millisecond
	defaultMax     = 5 * time.Second
	defaultFactor  = 2.0
)

// Policy is an exponential redial schedule.  The zero value waits
// 250ms, doubles up to 5s and never gives up on its own.
type Policy struct {
	Initial  time.Duration // wait after the first failure
	Max      time.Duration // upper bound for any single wait
	Factor   float64       // growth per failed attempt
	Attempts int           // total tries including the first; 0 = until ctx ends
	Jitter   float64       // fraction of each wait that is randomised, 0..1

	// OnRetry, if set, is called before each wait with the attempt
	// that just failed and the delay about to be slept.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Wait returns the un-jittered delay that follows failed attempt n
// (1-based).
func (p Policy) Wait(n int) time.Duration {
	initial, limit, factor := p.Initial, p.Max, p.Factor
	if initial <= 0 {
		initial = defaultInitial
	}
	if limit <= 0 {
		limit = defaultMax
	}
	if factor < 1 {
		factor = defaultFactor
	}
	if n < 1 {
		n = 1
	}
	d := float64(initial) * math.Pow(factor, float64(n-1))
	if d > float64(limit) {
		return limit
	}
	return time.Duration(d)
}

// Do calls fn until it returns nil, returns a Permanent error, the
// attempt budget runs out or ctx ends.  fn receives the 1-based attempt
// number.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
		if p.Attempts > 0 && attempt >= p.Attempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
		}

		wait := jitter(p.Wait(attempt), p.Jitter)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-t.C:
		}
	}
}

// jitter spreads d uniformly over d±frac·d, never below 1ms.
func jitter(d time.Duration, frac float64) time.Duration {
	if frac <= 0 {
		return d
	}
	if frac > 1 {
		frac = 1
	}
	spread := float64(d) * frac
	out := float64(d) + (rand.Float64()*2-1)*spread
	return time.Duration(math.Max(out, float64(time.Millisecond)))
}
