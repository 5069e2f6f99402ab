// Package cache holds the Redis-backed short-lived state of the service.
// Today that is one-time passwords for account verification; codes live
// only in Redis and expire on their own.
package cache

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrOTPNotFound means no code is pending for the subject, either
	// because none was issued or because it expired.
	ErrOTPNotFound = errors.New("otp not found or expired")

	// ErrOTPMismatch means the submitted code is wrong.
	ErrOTPMismatch = errors.New("otp does not match")

	// ErrOTPThrottled means a code was issued too recently.
	ErrOTPThrottled = errors.New("otp requested too soon")

	// ErrOTPTooManyAttempts means the pending code was invalidated after
	// repeated wrong guesses.
	ErrOTPTooManyAttempts = errors.New("too many otp attempts")
)

// OTPStore issues and verifies one-time passwords. Delivery is not its
// concern; the auth service publishes a notification event with the code.
type OTPStore interface {
	Issue(ctx context.Context, subject string) (code string, expiresAt time.Time, err error)
	Verify(ctx context.Context, subject, code string) error
}

type redisOTPStore struct {
	client      *redis.Client
	ttl         time.Duration
	cooldown    time.Duration
	maxAttempts int
}

func NewOTPStore(client *redis.Client, ttl, cooldown time.Duration, maxAttempts int) OTPStore {
	return &redisOTPStore{
		client:      client,
		ttl:         ttl,
		cooldown:    cooldown,
		maxAttempts: maxAttempts,
	}
}

func codeKey(subject string) string     { return "otp:code:" + subject }
func cooldownKey(subject string) string { return "otp:cooldown:" + subject }
func attemptsKey(subject string) string { return "otp:attempts:" + subject }

func (s *redisOTPStore) Issue(ctx context.Context, subject string) (string, time.Time, error) {
	ok, err := s.client.SetNX(ctx, cooldownKey(subject), 1, s.cooldown).Result()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("otp cooldown check: %w", err)
	}
	if !ok {
		return "", time.Time{}, ErrOTPThrottled
	}

	code, err := generateCode()
	if err != nil {
		return "", time.Time{}, err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, codeKey(subject), code, s.ttl)
	pipe.Del(ctx, attemptsKey(subject))
	if _, err := pipe.Exec(ctx); err != nil {
		return "", time.Time{}, fmt.Errorf("otp store: %w", err)
	}
	return code, time.Now().Add(s.ttl), nil
}

func (s *redisOTPStore) Verify(ctx context.Context, subject, code string) error {
	stored, err := s.client.Get(ctx, codeKey(subject)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrOTPNotFound
	}
	if err != nil {
		return fmt.Errorf("otp lookup: %w", err)
	}

	if stored != code {
		attempts, err := s.client.Incr(ctx, attemptsKey(subject)).Result()
		if err != nil {
			return fmt.Errorf("otp attempt count: %w", err)
		}
		s.client.Expire(ctx, attemptsKey(subject), s.ttl)
		if int(attempts) >= s.maxAttempts {
			s.client.Del(ctx, codeKey(subject), attemptsKey(subject))
			return ErrOTPTooManyAttempts
		}
		return ErrOTPMismatch
	}

	s.client.Del(ctx, codeKey(subject), attemptsKey(subject))
	return nil
}

// generateCode returns a 6-digit zero-padded code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("otp generate: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
