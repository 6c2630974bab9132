package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPRepository is the pending-verification store. Records are keyed
// by email with a hard TTL enforced by Redis itself; an expired record
// is indistinguishable from one that never existed.
type OTPRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOTPRepository(client *redis.Client, ttl time.Duration) *OTPRepository {
	return &OTPRepository{client: client, ttl: ttl}
}

// otpKey generates the Redis key for a pending verification record
func otpKey(email string) string {
	return fmt.Sprintf("signup_otp:%s", email)
}

// Store replaces any prior record for the email and writes a fresh one
// with the configured TTL. At most one live record exists per email;
// when two signups race, the last writer's code wins and the earlier
// caller's code will mismatch.
func (r *OTPRepository) Store(ctx context.Context, email, code string) error {
	key := otpKey(email)

	pipe := r.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]interface{}{
		"code":       code,
		"created_at": time.Now().Unix(),
	})
	pipe.Expire(ctx, key, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	return nil
}

// Get returns the live code for the email, or ErrOTPNotFound when no
// record exists (never requested, consumed, or expired via TTL).
func (r *OTPRepository) Get(ctx context.Context, email string) (string, error) {
	code, err := r.client.HGet(ctx, otpKey(email), "code").Result()
	if err == redis.Nil {
		return "", ErrOTPNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get otp: %w", err)
	}

	return code, nil
}

// Delete removes the record once the code has been consumed
func (r *OTPRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}

	return nil
}
