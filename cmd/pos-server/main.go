// Command pos-server runs the barcode resolution service: an HTTP API that
// answers point-of-sale scans from a local catalog file and a two-pool result
// cache, falling back to the UPCitemdb provider under strict rate limiting.
//
// Configuration comes from the environment (see internal/config); the only
// required variable is LOOKUP_API_KEY. A .env file in the working directory
// is honored for local development.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scanpos/upc-resolver/internal/config"
	"github.com/scanpos/upc-resolver/internal/server"
	"github.com/scanpos/upc-resolver/pkg/cache"
	"github.com/scanpos/upc-resolver/pkg/cart"
	"github.com/scanpos/upc-resolver/pkg/catalog"
	"github.com/scanpos/upc-resolver/pkg/logging"
	"github.com/scanpos/upc-resolver/pkg/lookup"
	"github.com/scanpos/upc-resolver/pkg/ratelimit"
	"github.com/scanpos/upc-resolver/pkg/resolve"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := catalog.New(cfg.Catalog.Path, logging.NewLogger("catalog"))

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable")
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("shared cache tier enabled")
	}

	store, err := cache.New(cache.Config{
		CatalogTTL:   cfg.Cache.CatalogTTL,
		ResponseSize: cfg.Cache.ResponseSize,
		Redis:        rdb,
		SharedTTL:    cfg.Redis.CacheTTL,
		Logger:       logging.NewLogger("cache"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("cache init failed")
	}

	// Catalog edits invalidate cached catalog answers on the next reload.
	cat.OnReload(store.FlushCatalog)
	go cat.Watch(ctx, cfg.Catalog.WatchInterval)

	window := ratelimit.NewWindow(cfg.RateLimit.Max, cfg.RateLimit.Window)
	guard := ratelimit.NewGuard(ratelimit.GuardConfig{
		Cooldown:   cfg.Guard.Cooldown,
		MaxErrors:  cfg.Guard.MaxErrors,
		ErrorReset: cfg.Guard.ErrorReset,
		Logger:     logging.NewLogger("guard"),
	})

	client, err := lookup.New(lookup.Config{
		BaseURL:     cfg.Lookup.BaseURL,
		APIKey:      cfg.Lookup.APIKey,
		Timeout:     cfg.Lookup.Timeout,
		MaxRetries:  cfg.Lookup.MaxRetries,
		BackoffBase: cfg.Lookup.BackoffBase,
		Logger:      logging.NewLogger("lookup"),
	}, guard)
	if err != nil {
		logger.Fatal().Err(err).Msg("lookup client init failed")
	}

	pipeline, err := resolve.New(resolve.Config{
		Catalog: cat,
		Cache:   store,
		Window:  window,
		Guard:   guard,
		Client:  client,
		Logger:  logging.NewLogger("resolve"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("pipeline init failed")
	}

	srv, err := server.New(server.Config{
		Resolver: pipeline,
		Cart:     cart.New(cat),
		Orders:   cart.NewOrderLog(logging.NewLogger("orders")),
		Catalog:  cat,
		Guard:    guard,
		Logger:   logging.NewLogger("server"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("server init failed")
	}

	if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("redis close failed")
		}
	}
	logger.Info().Msg("server stopped")
}
