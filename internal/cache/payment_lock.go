package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotHeld is returned by Release when the lock expired and was taken
// by another submission, or is gone altogether.
var ErrLockNotHeld = errors.New("payment lock no longer held")

// PaymentLock serializes payment submissions for the same rental. Acquire
// hands out a token; only the holder of that token can release the lock.
type PaymentLock interface {
	Acquire(ctx context.Context, rentalID int64) (token string, acquired bool, err error)
	Release(ctx context.Context, rentalID int64, token string) error
}

// releaseScript deletes the key only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisPaymentLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPaymentLock(client *redis.Client, ttl time.Duration) PaymentLock {
	return &redisPaymentLock{client: client, ttl: ttl}
}

func paymentLockKey(rentalID int64) string {
	return fmt.Sprintf("rental:%d:payment-lock", rentalID)
}

// Acquire takes the lock for ttl. It reports false when someone else holds it.
func (l *redisPaymentLock) Acquire(ctx context.Context, rentalID int64) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, paymentLockKey(rentalID), token, l.ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (l *redisPaymentLock) Release(ctx context.Context, rentalID int64, token string) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{paymentLockKey(rentalID)}, token).Int64()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// NoopPaymentLock always grants the lock. Used when redis is not configured.
type NoopPaymentLock struct{}

func (NoopPaymentLock) Acquire(context.Context, int64) (string, bool, error) { return "", true, nil }
func (NoopPaymentLock) Release(context.Context, int64, string) error         { return nil }
