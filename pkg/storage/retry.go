package storage

import (
	"context"
	stderrors "errors"
	"net"
	"time"
)

// retryableError marks a failure worth another attempt.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// retryable wraps network errors so [withRetry] tries again. Other errors,
// including nil, pass through unchanged.
func retryable(err error) error {
	var ne net.Error
	if err == nil || !stderrors.As(err, &ne) {
		return err
	}
	return &retryableError{err: err}
}

func isRetryable(err error) bool {
	var re *retryableError
	return stderrors.As(err, &re)
}

// retryAttempts and retryDelay bound [withRetry]; tests shorten the delay.
var (
	retryAttempts = 3
	retryDelay    = 500 * time.Millisecond
)

// withRetry runs fn until it succeeds, fails with a non-retryable error or
// runs out of attempts, doubling the delay between attempts.
func withRetry(ctx context.Context, fn func() error) error {
	delay := retryDelay
	var lastErr error
	for i := 0; i < retryAttempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		if lastErr = err; !isRetryable(err) {
			return err
		}
		if i < retryAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	var re *retryableError
	if stderrors.As(lastErr, &re) {
		return re.err
	}
	return lastErr
}
