package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kagglefetch/pkg/config"
	errs "kagglefetch/pkg/errors"
	"kagglefetch/pkg/logger"
)

func serverErr() error {
	return errs.FromStatus("download", 503, "service unavailable")
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0,
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{0, 0, "No attempt"},
		{1, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, "Second attempt"},
		{3, 400 * time.Millisecond, "Third attempt"},
		{4, 800 * time.Millisecond, "Fourth attempt"},
		{5, 1 * time.Second, "Fifth attempt (capped at max)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			assert.Equal(t, test.expected, backoff.NextDelay(test.attempt))
		})
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 20; i++ {
		delay := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return serverErr()
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		Logger:      logger.NewNopLogger(),
	}

	assert.NoError(t, Do(context.Background(), op, cfg))
	assert.Equal(t, 3, attempts)
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return serverErr()
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		Logger:      logger.NewNopLogger(),
	}

	err := Do(context.Background(), op, cfg)
	assert.Error(t, err)
	assert.True(t, errs.HasType(err, errs.ErrorTypeServerError))
	assert.Equal(t, 3, attempts)
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	authError := errs.FromStatus("list", 401, "unauthorized")

	op := func() error {
		attempts++
		return authError
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
	}

	err := Do(context.Background(), op, cfg)
	assert.Same(t, authError, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryPlainErrorsAreNotRetried(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		return errors.New("zip: not a valid zip file")
	}, &Config{MaxAttempts: 3, Backoff: &ConstantBackoff{Delay: time.Millisecond}})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	op := func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return serverErr()
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 50 * time.Millisecond},
	}

	err := Do(ctx, op, cfg)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestOnRetryCallback(t *testing.T) {
	var seen []int
	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			seen = append(seen, attempt)
		},
	}

	_ = Do(context.Background(), func() error { return serverErr() }, cfg)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestErrorTypeBackoff(t *testing.T) {
	etb := NewErrorTypeBackoff()

	rl := etb.ForError(errs.FromStatus("x", 429, "slow down"))
	if eb, ok := rl.(*ExponentialBackoff); assert.True(t, ok) {
		assert.Equal(t, 30*time.Second, eb.BaseDelay)
	}

	assert.Same(t, etb.ServerErrorBackoff, etb.ForError(serverErr()))
	assert.Same(t, etb.NetworkErrorBackoff, etb.ForError(errs.New(errs.ErrorTypeNetwork, "x", "reset")))
	assert.Same(t, etb.DefaultBackoff, etb.ForError(errors.New("other")))
}

func TestFromConfig(t *testing.T) {
	appCfg := config.DefaultConfig().Retry
	cfg := FromConfig(&appCfg, logger.NewNopLogger())
	assert.Equal(t, 3, cfg.MaxAttempts)

	appCfg.Enabled = false
	cfg = FromConfig(&appCfg, logger.NewNopLogger())
	assert.Equal(t, 1, cfg.MaxAttempts)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", serverErr()
		}
		return "success", nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
	}

	result, err := DoWithResult(context.Background(), op, cfg)
	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 2, attempts)
}
