package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admitcrm/internal/platform/config"
	"admitcrm/internal/platform/metrics"
	"admitcrm/internal/session"
	"admitcrm/pkg/apierror"
)

func fastRetry(attempts int) RetryOptions {
	return RetryOptions{Attempts: attempts, BaseDelay: time.Millisecond}
}

func TestRetryRateLimitedTwiceThenSucceeds(t *testing.T) {
	calls := 0
	fn := func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", apierror.FromResponse(429, nil, "too many requests")
		}
		return "done", nil
	}

	result, err := Retry(context.Background(), fn, fastRetry(3))
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 3, calls)
}

func TestRetryClientErrorIsFinal(t *testing.T) {
	calls := 0
	fn := func(context.Context) (string, error) {
		calls++
		return "", apierror.FromResponse(404, nil, "lead not found")
	}

	_, err := Retry(context.Background(), fn, fastRetry(3))
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, apierror.HasCode(err, apierror.CodeNotFound))
}

func TestRetryRequestTimeoutIsFinal(t *testing.T) {
	// 408 classifies as a timeout for display but is still a 4xx on the
	// wire; only 429 among client errors earns another attempt.
	calls := 0
	fn := func(context.Context) (string, error) {
		calls++
		return "", apierror.FromResponse(408, nil, "request timeout")
	}

	_, err := Retry(context.Background(), fn, fastRetry(3))
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, apierror.HasCode(err, apierror.CodeTimeout))
}

func TestRetryServerErrorsUntilExhaustion(t *testing.T) {
	calls := 0
	fn := func(context.Context) (int, error) {
		calls++
		return 0, apierror.FromResponse(503, nil, "upstream down")
	}

	_, err := Retry(context.Background(), fn, fastRetry(3))
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	// The last error is the one returned.
	assert.Equal(t, "upstream down", err.Error())
}

func TestRetryNetworkErrorsAreRetryable(t *testing.T) {
	calls := 0
	fn := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, apierror.Network(errors.New("connection reset"))
		}
		return 7, nil
	}

	result, err := Retry(context.Background(), fn, fastRetry(3))
	require.NoError(t, err)
	assert.Equal(t, 7, result)
	assert.Equal(t, 2, calls)
}

func TestRetryObservesEachReinvocation(t *testing.T) {
	var observed []int
	opts := fastRetry(3)
	opts.OnRetry = func(attempt int, err error) { observed = append(observed, attempt) }

	calls := 0
	_, _ = Retry(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, apierror.FromResponse(500, nil, "boom")
	}, opts)

	assert.Equal(t, []int{1, 2}, observed)
}

func TestRetryOptsWiresConfigAndMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := New(config.Client{BaseURL: "http://localhost"}, session.NewMemoryKeyring(), testLogger(), WithMetrics(m))

	// Zero values fall back to the defaults, so config fields pass through
	// unchecked.
	opts := c.RetryOpts(0, 0)
	assert.Equal(t, 3, opts.Attempts)
	assert.Equal(t, time.Second, opts.BaseDelay)

	opts = c.RetryOpts(4, time.Millisecond)
	calls := 0
	_, err := Retry(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, apierror.FromResponse(500, nil, "boom")
	}, opts)
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.RetryAttempts))
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	opts := RetryOptions{Attempts: 5, BaseDelay: time.Minute}
	_, err := Retry(ctx, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, apierror.FromResponse(500, nil, "boom")
	}, opts)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
