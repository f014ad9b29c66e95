package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestIdempotencyStore_KeyIsOwnerScoped(t *testing.T) {
	s := NewIdempotencyStore(nil)

	a := s.key("owner-a", "k1")
	b := s.key("owner-b", "k1")
	if a == b {
		t.Fatalf("keys for different owners must differ: %s", a)
	}
	if a != "idem:todo:owner-a:k1" {
		t.Fatalf("unexpected key format: %s", a)
	}
}

func TestIdempotencyStore_ReserveWrapsConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	s := NewIdempotencyStore(client)

	id, err := s.Reserve(context.Background(), "owner", "k1")
	if err == nil {
		t.Fatal("expected error from unreachable redis")
	}
	if id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}

func TestConnect_EmptyAddrDisablesRedis(t *testing.T) {
	client, err := Connect(context.Background(), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client != nil {
		t.Fatal("expected nil client when Addr is empty")
	}
}
