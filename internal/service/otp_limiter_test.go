package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimiter(t *testing.T, cooldown time.Duration, daily int) (*OTPLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewOTPLimiter(client, cooldown, daily), mr
}

func TestLimiterCooldownIsPerPhone(t *testing.T) {
	l, mr := setupLimiter(t, time.Minute, 10)
	ctx := context.Background()

	res, err := l.Allow(ctx, "+91 98765 43210")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.DailyUsed)

	res, err = l.Allow(ctx, "919876543210")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter)

	res, err = l.Allow(ctx, "918888888888")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	mr.FastForward(time.Minute)
	res, err = l.Allow(ctx, "919876543210")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.DailyUsed)
}

func TestLimiterDailyCap(t *testing.T) {
	l, mr := setupLimiter(t, time.Second, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "919876543210")
		require.NoError(t, err)
		require.True(t, res.Allowed)
		mr.FastForward(time.Second)
	}
	res, err := l.Allow(ctx, "919876543210")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2, res.DailyUsed)
	assert.Positive(t, res.RetryAfter)
}

type stubSender struct {
	sends int
	err   error
}

func (s *stubSender) SendOTP(ctx context.Context, phone, name string) error {
	s.sends++
	return s.err
}

func (s *stubSender) VerifyOTP(ctx context.Context, phone, code string) error { return nil }

func TestLimitedSender(t *testing.T) {
	l, _ := setupLimiter(t, time.Minute, 10)
	inner := &stubSender{}
	s := LimitedSender{Sender: inner, Limiter: l}
	ctx := context.Background()

	require.NoError(t, s.SendOTP(ctx, "919876543210", "A"))
	err := s.SendOTP(ctx, "919876543210", "A")
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.Contains(t, err.Error(), "60s")
	assert.Equal(t, 1, inner.sends)
}

func TestLimitedSenderReleasesOnFailure(t *testing.T) {
	l, _ := setupLimiter(t, time.Minute, 10)
	boom := errors.New("whatsapp down")
	inner := &stubSender{err: boom}
	s := LimitedSender{Sender: inner, Limiter: l}
	ctx := context.Background()

	assert.ErrorIs(t, s.SendOTP(ctx, "919876543210", "A"), boom)
	inner.err = nil
	assert.NoError(t, s.SendOTP(ctx, "919876543210", "A"))
	assert.Equal(t, 2, inner.sends)
}
