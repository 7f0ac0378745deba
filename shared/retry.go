package shared

import (
	"context"
	"errors"
	"net"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/jpillora/backoff"
	"golang.org/x/xerrors"
)

var log = logging.Logger("shared")

// TransientError marks a failure as retryable: the operation may succeed if
// attempted again without any change on the caller's side. Service adapters
// wrap timeouts, connection resets and 5xx-class responses in it.
type TransientError struct {
	Cause error
}

func (e TransientError) Error() string {
	return "transient: " + e.Cause.Error()
}

func (e TransientError) Unwrap() error {
	return e.Cause
}

// IsTransient is the single classification point for retry decisions. Context
// cancellation is never transient; network timeouts always are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te TransientError
	if errors.As(err, &te) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// RetryPolicy bounds how stage operations and per-server share requests are
// retried: exponential backoff with jitter, transient errors only.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts uint64
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	Factor      float64
	Jitter      bool
}

// DefaultRetryPolicy returns the policy both coordinators start from: three
// attempts within a stage, backing off from 100ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		MinBackoff:  100 * time.Millisecond,
		MaxBackoff:  10 * time.Second,
		Factor:      5,
		Jitter:      true,
	}
}

// Run invokes fn until it succeeds, returns a non-transient error, or the
// attempt budget is exhausted. The last error is returned unwrapped so typed
// failures (ledger rejections, denials) survive intact.
func (p RetryPolicy) Run(ctx context.Context, what string, fn func(ctx context.Context) error) error {
	if p.MaxAttempts == 0 {
		return xerrors.Errorf("retry policy for %s has no attempts", what)
	}
	b := &backoff.Backoff{
		Min:    p.MinBackoff,
		Max:    p.MaxBackoff,
		Factor: p.Factor,
		Jitter: p.Jitter,
	}
	var err error
	for {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		attempt := uint64(b.Attempt()) + 1
		if attempt >= p.MaxAttempts {
			return err
		}
		wait := b.Duration()
		log.Warnf("%s failed (attempt %d of %d), retrying in %s: %s", what, attempt, p.MaxAttempts, wait, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
