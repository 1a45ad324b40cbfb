package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/certportal/certportal/internal/otp"
	"github.com/certportal/certportal/pkg/fingerprint"
)

// DefaultDailyOTPLimit caps the codes sent to one phone per day.
const DefaultDailyOTPLimit = 10

// OTPLimiter throttles OTP sends per phone number across every session,
// mirroring the gate's resend cooldown and adding a daily cap.
type OTPLimiter struct {
	client     *redis.Client
	cooldown   time.Duration
	dailyLimit int
	now        func() time.Time
}

// NewOTPLimiter creates a new limiter
func NewOTPLimiter(client *redis.Client, cooldown time.Duration, dailyLimit int) *OTPLimiter {
	if cooldown <= 0 {
		cooldown = otp.DefaultCooldown
	}
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyOTPLimit
	}
	return &OTPLimiter{
		client:     client,
		cooldown:   cooldown,
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// LimitResult contains the result of a limit check
type LimitResult struct {
	Allowed    bool
	DailyUsed  int
	DailyLimit int
	RetryAfter time.Duration
}

// Allow reserves one send to phone if neither the cooldown nor the daily cap
// forbids it.
func (l *OTPLimiter) Allow(ctx context.Context, phone string) (*LimitResult, error) {
	phone = fingerprint.NormalizePhone(phone)
	now := l.now()
	cooldownKey := fmt.Sprintf("otp:cooldown:%s", phone)
	dailyKey := fmt.Sprintf("otp:daily:%s:%s", phone, now.Format("2006-01-02"))

	result := &LimitResult{DailyLimit: l.dailyLimit}

	ok, err := l.client.SetNX(ctx, cooldownKey, 1, l.cooldown).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		ttl, err := l.client.TTL(ctx, cooldownKey).Result()
		if err != nil {
			return nil, err
		}
		if ttl < 0 {
			ttl = l.cooldown
		}
		result.RetryAfter = ttl
		return result, nil
	}

	// Daily counter with expiry at end of day
	tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, dailyKey)
	pipe.ExpireAt(ctx, dailyKey, tomorrow)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	result.DailyUsed = int(incr.Val())
	if result.DailyUsed > l.dailyLimit {
		result.DailyUsed = l.dailyLimit
		result.RetryAfter = tomorrow.Sub(now)
		return result, nil
	}

	result.Allowed = true
	return result, nil
}

// Release forgets the cooldown of phone so a send that failed downstream can
// be retried immediately.
func (l *OTPLimiter) Release(ctx context.Context, phone string) error {
	return l.client.Del(ctx, fmt.Sprintf("otp:cooldown:%s", fingerprint.NormalizePhone(phone))).Err()
}

// LimitedSender wraps an otp.Sender with an OTPLimiter.
type LimitedSender struct {
	Sender  otp.Sender
	Limiter *OTPLimiter
}

var _ otp.Sender = LimitedSender{}

// SendOTP implements otp.Sender.
func (s LimitedSender) SendOTP(ctx context.Context, phone, name string) error {
	res, err := s.Limiter.Allow(ctx, phone)
	if err != nil {
		return fmt.Errorf("check otp limit: %w", err)
	}
	if !res.Allowed {
		return fmt.Errorf("%w: try again in %ds", ErrRateLimitExceeded, otp.Seconds(res.RetryAfter))
	}
	if err := s.Sender.SendOTP(ctx, phone, name); err != nil {
		_ = s.Limiter.Release(ctx, phone)
		return err
	}
	return nil
}

// VerifyOTP implements otp.Sender.
func (s LimitedSender) VerifyOTP(ctx context.Context, phone, code string) error {
	return s.Sender.VerifyOTP(ctx, phone, code)
}
