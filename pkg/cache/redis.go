package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scanpos/upc-resolver/pkg/product"
)

func sharedKey(code string) string {
	return "pos:resolve:" + code
}

// sharedEntry is the JSON document stored in the shared tier.
type sharedEntry struct {
	Resolution product.Resolution `json:"resolution"`
	CachedAt   time.Time          `json:"cached_at"`
}

func (s *Store) sharedGet(ctx context.Context, code string) (product.Resolution, error) {
	data, err := s.redis.Get(ctx, sharedKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return product.Resolution{}, ErrMiss
	}
	if err != nil {
		return product.Resolution{}, fmt.Errorf("cache: shared get: %w", err)
	}

	var entry sharedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Drop the unreadable entry so it cannot keep failing.
		s.redis.Del(ctx, sharedKey(code))
		return product.Resolution{}, fmt.Errorf("cache: shared entry decode: %w", err)
	}
	return entry.Resolution, nil
}

func (s *Store) sharedPut(ctx context.Context, code string, res product.Resolution) error {
	data, err := json.Marshal(sharedEntry{Resolution: res, CachedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("cache: shared entry encode: %w", err)
	}
	if err := s.redis.Set(ctx, sharedKey(code), data, s.sharedTTL).Err(); err != nil {
		return fmt.Errorf("cache: shared set: %w", err)
	}
	return nil
}
