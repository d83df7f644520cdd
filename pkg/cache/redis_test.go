package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis connects to a local Redis for shared-tier tests and skips
// when none is running. tests/integration exercises the same paths against a
// containerized Redis.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestSharedTierWriteThrough(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	s := testStore(t, Config{Redis: client})
	s.PutResponse(ctx, "012345678905", testResolution("012345678905"))

	ttl, err := client.TTL(ctx, sharedKey("012345678905")).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 {
		t.Errorf("shared entry should carry a TTL, got %v", ttl)
	}
}

func TestSharedTierPromotion(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	writer := testStore(t, Config{Redis: client})
	want := testResolution("036000291452")
	writer.PutResponse(ctx, want.Barcode, want)

	// A fresh store has an empty LRU; the hit must come from Redis and be
	// promoted locally.
	reader := testStore(t, Config{Redis: client})
	got, ok := reader.GetResponse(ctx, want.Barcode)
	if !ok {
		t.Fatal("expected shared tier hit")
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if reader.ResponseLen() != 1 {
		t.Errorf("shared hit should be promoted into the LRU, ResponseLen() = %d", reader.ResponseLen())
	}
}

func TestSharedTierCorruptEntryDegradesToMiss(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	key := sharedKey("012345678905")
	if err := client.Set(ctx, key, "not json", time.Minute).Err(); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	s := testStore(t, Config{Redis: client})
	if _, ok := s.GetResponse(ctx, "012345678905"); ok {
		t.Fatal("corrupt shared entry should degrade to a miss")
	}

	// The unreadable key is dropped so it cannot keep failing.
	exists, err := client.Exists(ctx, key).Result()
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists != 0 {
		t.Error("corrupt shared entry should have been deleted")
	}
}

func TestSharedTierDownDegradesToMiss(t *testing.T) {
	// Point at a closed port; every shared-tier call fails but lookups
	// still answer from memory.
	client := redis.NewClient(&redis.Options{Addr: "localhost:1", DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	cfg := Config{Redis: client, Logger: zerolog.Nop()}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	if _, ok := s.GetResponse(ctx, "012345678905"); ok {
		t.Error("expected miss when shared tier is unreachable")
	}

	s.PutResponse(ctx, "012345678905", testResolution("012345678905"))
	if _, ok := s.GetResponse(ctx, "012345678905"); !ok {
		t.Error("local pool should still serve despite shared tier errors")
	}
}
