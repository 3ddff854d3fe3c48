// retry.go provides automatic retry logic for transient database errors.
//
// Under concurrent CLI invocations, WAL-mode SQLite can produce transient
// errors like SQLITE_BUSY, SQLITE_LOCKED, and IOERR_SHORT_READ (error 522).
// The busy_timeout pragma handles SQLITE_BUSY at the connection level, but
// other transient errors need application-level retries. On Postgres the
// equivalent cases are serialization failures and detected deadlocks.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
)

// retryConfig controls retry behavior for transient database errors.
type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// defaultRetryConfig is used for all store write operations.
var defaultRetryConfig = retryConfig{
	maxRetries: 3,
	baseDelay:  50 * time.Millisecond,
	maxDelay:   500 * time.Millisecond,
}

// isTransientErr returns true if the error can be resolved by retrying:
//   - SQLITE_BUSY (5), SQLITE_LOCKED (6), SQLITE_IOERR_SHORT_READ (522)
//   - "database is locked" text from the busy_timeout fallthrough
//   - Postgres 40001 (serialization_failure) and 40P01 (deadlock_detected)
func isTransientErr(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	msg := err.Error()
	for _, pattern := range []string{
		"SQLITE_BUSY",
		"SQLITE_LOCKED",
		"IOERR_SHORT_READ",
		"database is locked",
		"database table is locked",
		"(5)",
		"(6)",
		"(522)",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// newBackOff builds an exponential schedule: baseDelay doubling up to
// maxDelay with jitter, stopping after maxRetries retries.
func newBackOff(ctx context.Context, cfg retryConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.baseDelay
	b.MaxInterval = cfg.maxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(cfg.maxRetries)), ctx)
}

// retryOp executes fn, retrying transient errors with exponential backoff.
// Success or a non-transient error returns immediately.
func retryOp(ctx context.Context, cfg retryConfig, fn func() error) error {
	return backoff.Retry(func() error {
		err := fn()
		if err != nil && !isTransientErr(err) {
			return backoff.Permanent(err)
		}
		return err
	}, newBackOff(ctx, cfg))
}
