package transport

import (
	"context"
	"net"
	"time"

	ncerr "fsbrowse/internal/errors"
	"fsbrowse/internal/retry"
	"fsbrowse/util"
)

// RetryDialer redials through Policy while the failure is retryable,
// e.g. a server that is still starting and refuses connections.
type RetryDialer struct {
	Dialer Dialer
	Policy retry.Policy
	Logger *util.Logger
}

// Dial tries the inner dialer until it succeeds, fails permanently or
// the policy's attempt budget runs out.
func (d *RetryDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	p := d.Policy
	if d.Logger != nil {
		p.OnRetry = func(attempt int, err error, wait time.Duration) {
			d.Logger.Verbose("dial %s attempt %d: %v (retrying in %s)",
				address, attempt, err, wait.Round(time.Millisecond))
		}
	}

	var conn net.Conn
	err := p.Do(ctx, func(_ int) error {
		c, err := d.Dialer.Dial(ctx, network, address)
		if err != nil {
			if !ncerr.IsRetryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Close closes the inner dialer.
func (d *RetryDialer) Close() error { return d.Dialer.Close() }
