package llm

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	errs  []error
	calls int
}

func (c *scriptedClient) next() (string, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	return "ok", nil
}

func (c *scriptedClient) GenerateContent(context.Context, string, string, ModelTier) (string, error) {
	return c.next()
}

func (c *scriptedClient) GenerateJSON(context.Context, string, string, ModelTier) (string, error) {
	return c.next()
}

func (c *scriptedClient) GetModel(ModelTier) string { return "scripted" }
func (c *scriptedClient) Close() error              { return nil }

// instantRetries builds a RetryingClient that retries without waiting.
func instantRetries(next Client, attempts int) *RetryingClient {
	c := NewRetryingClient(next, attempts)
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func TestRetryingClient_RetriesTransient(t *testing.T) {
	inner := &scriptedClient{errs: []error{
		&StatusError{Code: http.StatusServiceUnavailable},
		&StatusError{Code: http.StatusTooManyRequests},
	}}

	out, err := instantRetries(inner, 3).GenerateJSON(t.Context(), "s", "u", TierLite)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingClient_GivesUp(t *testing.T) {
	inner := &scriptedClient{errs: []error{
		&StatusError{Code: http.StatusBadGateway},
		&StatusError{Code: http.StatusBadGateway},
	}}

	_, err := instantRetries(inner, 2).GenerateContent(t.Context(), "s", "u", TierLite)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 2, inner.calls)
}

func TestRetryingClient_PermanentErrorNotRetried(t *testing.T) {
	inner := &scriptedClient{errs: []error{&StatusError{Code: http.StatusUnauthorized}}}

	_, err := instantRetries(inner, 5).GenerateContent(t.Context(), "s", "u", TierLite)
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryingClient_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	inner := &scriptedClient{errs: []error{context.Canceled}}

	_, err := instantRetries(inner, 5).GenerateContent(ctx, "s", "u", TierLite)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

type unavailableClient struct{ scriptedClient }

func (c *unavailableClient) GenerateContent(context.Context, string, string, ModelTier) (string, error) {
	return "", &StatusError{Code: http.StatusServiceUnavailable}
}

func TestRetryingClient_CancelledDuringBackoff(t *testing.T) {
	c := NewRetryingClient(&unavailableClient{}, 5)
	c.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Hour) }

	before := runtime.NumGoroutine()
	for range 50 {
		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		start := time.Now()
		_, err := c.GenerateContent(ctx, "s", "u", TierLite)
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	}

	// waiting between attempts must not leave anything running
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNewRetryingClient_DefaultBackOff(t *testing.T) {
	b, ok := NewRetryingClient(&scriptedClient{}, 3).newBackOff().(*backoff.ExponentialBackOff)
	require.True(t, ok)
	assert.Equal(t, baseBackoff, b.InitialInterval)
}

func TestNewRetryingClient_MinimumOneAttempt(t *testing.T) {
	inner := &scriptedClient{errs: []error{errors.New("boom")}}

	_, err := NewRetryingClient(inner, 0).GenerateContent(t.Context(), "s", "u", TierLite)
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.True(t, IsTransient(&StatusError{Code: 500}))
	assert.False(t, IsTransient(&StatusError{Code: 400}))
}
