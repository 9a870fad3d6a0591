package llm

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const baseBackoff = 500 * time.Millisecond

// RetryingClient retries transient provider failures with exponential backoff.
type RetryingClient struct {
	next       Client
	attempts   int
	newBackOff func() backoff.BackOff
}

// NewRetryingClient wraps next so that transient failures are retried up to
// attempts times in total. Values below 1 mean a single attempt.
func NewRetryingClient(next Client, attempts int) *RetryingClient {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingClient{next: next, attempts: attempts, newBackOff: defaultBackOff}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseBackoff
	return b
}

// GenerateContent calls the wrapped client, retrying transient failures
func (c *RetryingClient) GenerateContent(ctx context.Context, system, user string, tier ModelTier) (string, error) {
	return c.do(ctx, func() (string, error) {
		return c.next.GenerateContent(ctx, system, user, tier)
	})
}

// GenerateJSON calls the wrapped client, retrying transient failures
func (c *RetryingClient) GenerateJSON(ctx context.Context, system, user string, tier ModelTier) (string, error) {
	return c.do(ctx, func() (string, error) {
		return c.next.GenerateJSON(ctx, system, user, tier)
	})
}

// GetModel returns the wrapped client's model for a tier
func (c *RetryingClient) GetModel(tier ModelTier) string {
	return c.next.GetModel(tier)
}

// Close closes the wrapped client
func (c *RetryingClient) Close() error {
	return c.next.Close()
}

func (c *RetryingClient) do(ctx context.Context, call func() (string, error)) (string, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(c.newBackOff(), uint64(c.attempts-1)),
		ctx,
	)

	return backoff.RetryWithData(func() (string, error) {
		out, err := call()
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil || !IsTransient(err) {
			return "", backoff.Permanent(err)
		}
		return "", err
	}, policy)
}

// IsTransient reports whether err is worth retrying: rate limits, server
// errors and network failures. Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
