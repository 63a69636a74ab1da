package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrIdempotencyInProgress = errors.New("a request with this idempotency key is still being processed")
	ErrInvalidIdempotencyKey = errors.New("idempotency key must be 1-255 printable ASCII characters")
)

const (
	idempotencyTTL     = 24 * time.Hour
	idempotencyPending = "pending"
	maxIdempotencyKey  = 255
)

// IdempotencyStore remembers which transaction a client-supplied key produced.
type IdempotencyStore interface {
	// Reserve claims key for owner. If the key already completed it returns the
	// stored transaction id and reserved=false.
	Reserve(ctx context.Context, owner uuid.UUID, key string) (existing uuid.UUID, reserved bool, err error)
	Complete(ctx context.Context, owner uuid.UUID, key string, id uuid.UUID) error
	Release(ctx context.Context, owner uuid.UUID, key string) error
}

// RedisIdempotencyStore keeps keys in Redis with a 24h TTL
type RedisIdempotencyStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client redis.UniversalClient) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: idempotencyTTL}
}

// getIdempotencyKey generates the Redis key for an owner's idempotency key
func getIdempotencyKey(owner uuid.UUID, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", owner.String(), key)
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, owner uuid.UUID, key string) (uuid.UUID, bool, error) {
	redisKey := getIdempotencyKey(owner, key)

	ok, err := s.client.SetNX(ctx, redisKey, idempotencyPending, s.ttl).Result()
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return uuid.Nil, true, nil
	}

	val, err := s.client.Get(ctx, redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET; the caller may retry
			return uuid.Nil, false, ErrIdempotencyInProgress
		}
		return uuid.Nil, false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if val == idempotencyPending {
		return uuid.Nil, false, ErrIdempotencyInProgress
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt idempotency record %q: %w", redisKey, err)
	}
	return id, false, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, owner uuid.UUID, key string, id uuid.UUID) error {
	if err := s.client.Set(ctx, getIdempotencyKey(owner, key), id.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, owner uuid.UUID, key string) error {
	if err := s.client.Del(ctx, getIdempotencyKey(owner, key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

func validIdempotencyKey(key string) bool {
	if key == "" || len(key) > maxIdempotencyKey {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x21 || key[i] > 0x7e {
			return false
		}
	}
	return true
}
