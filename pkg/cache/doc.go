// Package cache implements the two-tier result cache used by barcode
// resolution.
//
// # Pools
//
// The store keeps two pools with independent eviction policies sharing the
// normalized-barcode key space:
//
//   - Catalog pool: unbounded in count (practically bounded by catalog
//     size), entries expire a fixed TTL after insertion and are dropped
//     lazily on lookup. Holds catalog-sourced products only; the catalog
//     reload signal flushes it.
//
//   - Response pool: bounded LRU of fully-formatted lookup resolutions,
//     local and external alike. No TTL; capacity pressure evicts the least
//     recently used entry.
//
// Resolution consults the response pool first, then the catalog pool.
// External resolutions are written to the response pool only.
//
// # Shared Tier
//
// When a Redis client is configured, response-pool misses fall through to a
// shared Redis tier and hits are promoted back into the local LRU; writes go
// through to both. Redis failures degrade to a miss, are counted and logged,
// never surfaced to callers. Without Redis the store is purely in-memory.
//
// # Basic Usage
//
//	store, err := cache.New(cache.Config{
//		CatalogTTL:   time.Hour,
//		ResponseSize: 1000,
//		Logger:       logging.NewLogger("cache"),
//	})
//	if err != nil {
//		log.Fatal().Err(err).Msg("cache init failed")
//	}
//
//	if res, ok := store.GetResponse(ctx, barcode); ok {
//		return res, nil
//	}
package cache
