package killboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrProofOfWorkRejected is returned when the stats backend refuses the
// submitted proof. Fatal for that request; the caller surfaces it.
var ErrProofOfWorkRejected = errors.New("proof of work rejected")

// StatusError carries an upstream HTTP status without leaking the payload.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}

// IsRetryable reports whether an attempt that failed with err may be retried.
// Server errors, timeouts, and rate limiting are transient; everything else
// propagates immediately.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrProofOfWorkRejected) || errors.Is(err, ErrProofOfWorkExhausted) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.Code
		return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
	}
	// Network-level failures without a status are retryable
	var netLike interface{ Temporary() bool }
	if errors.As(err, &netLike) {
		return true
	}
	return errors.Is(err, ErrNetwork)
}

// ErrNetwork wraps transport failures so the scheduler can classify them.
var ErrNetwork = errors.New("network error")
