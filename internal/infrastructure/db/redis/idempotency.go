package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/todo-system/internal/core/domain"
)

const (
	idempotencyTTL = 24 * time.Hour
	// A reservation left behind by a crashed request frees the key after this.
	pendingTTL = 30 * time.Second

	pendingMarker = "pending"
)

// IdempotencyStore records which todo a create request's Idempotency-Key
// produced. Key format: idem:todo:<owner_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// Reserve claims key with SETNX before the todo is inserted. It returns ""
// when the caller now holds the key, the stored todo id when an earlier
// create completed, or domain.ErrRequestInProgress while the key is pending.
func (s *IdempotencyStore) Reserve(ctx context.Context, ownerID, key string) (string, error) {
	k := s.key(ownerID, key)

	// Two attempts cover a pending entry expiring between SETNX and GET.
	for range 2 {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
		if err != nil {
			return "", fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return "", nil
		}

		id, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("idempotency reserve: %w", err)
		}
		if id == pendingMarker {
			return "", domain.ErrRequestInProgress
		}
		return id, nil
	}
	return "", domain.ErrRequestInProgress
}

// Complete overwrites the reservation with todoID for the full TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, ownerID, key, todoID string) error {
	if err := s.client.Set(ctx, s.key(ownerID, key), todoID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release deletes the key so a retry can create again.
func (s *IdempotencyStore) Release(ctx context.Context, ownerID, key string) error {
	if err := s.client.Del(ctx, s.key(ownerID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(ownerID, key string) string {
	return fmt.Sprintf("idem:todo:%s:%s", ownerID, key)
}
