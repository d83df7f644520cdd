package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/scanpos/upc-resolver/pkg/product"
)

// ErrMiss signals a shared-tier lookup that found nothing.
var ErrMiss = errors.New("cache: miss")

const (
	// DefaultCatalogTTL bounds how long a catalog-derived entry is served
	// before the live catalog is consulted again.
	DefaultCatalogTTL = time.Hour

	// DefaultResponseSize is the response pool's LRU capacity.
	DefaultResponseSize = 1000

	// DefaultSharedTTL is the expiry for shared-tier entries. The local
	// response pool has no TTL; Redis gets one so abandoned keys age out.
	DefaultSharedTTL = 24 * time.Hour
)

// Config holds cache construction parameters. Zero values fall back to the
// defaults above; Redis is optional.
type Config struct {
	CatalogTTL   time.Duration
	ResponseSize int
	Redis        *redis.Client
	SharedTTL    time.Duration
	Logger       zerolog.Logger
}

// Store is the two-pool result cache. All methods are safe for concurrent
// use.
type Store struct {
	catalogTTL time.Duration
	sharedTTL  time.Duration
	redis      *redis.Client
	logger     zerolog.Logger

	mu      sync.Mutex
	catalog map[string]catalogEntry

	responses *lru.Cache[string, product.Resolution]
}

type catalogEntry struct {
	product    product.Product
	insertedAt time.Time
}

// New creates a Store from cfg.
func New(cfg Config) (*Store, error) {
	if cfg.CatalogTTL <= 0 {
		cfg.CatalogTTL = DefaultCatalogTTL
	}
	if cfg.ResponseSize <= 0 {
		cfg.ResponseSize = DefaultResponseSize
	}
	if cfg.SharedTTL <= 0 {
		cfg.SharedTTL = DefaultSharedTTL
	}

	responses, err := lru.New[string, product.Resolution](cfg.ResponseSize)
	if err != nil {
		return nil, fmt.Errorf("cache: response pool: %w", err)
	}

	return &Store{
		catalogTTL: cfg.CatalogTTL,
		sharedTTL:  cfg.SharedTTL,
		redis:      cfg.Redis,
		logger:     cfg.Logger,
		catalog:    map[string]catalogEntry{},
		responses:  responses,
	}, nil
}

// GetResponse looks up a fully-formatted resolution, consulting the local
// LRU first and the shared tier (when configured) on a local miss. Shared
// hits are promoted into the LRU.
func (s *Store) GetResponse(ctx context.Context, code string) (product.Resolution, bool) {
	if res, ok := s.responses.Get(code); ok {
		poolHits.WithLabelValues(poolResponse).Inc()
		return res, true
	}

	if s.redis != nil {
		res, err := s.sharedGet(ctx, code)
		if err == nil {
			poolHits.WithLabelValues(poolShared).Inc()
			s.responses.Add(code, res)
			return res, true
		}
		if !errors.Is(err, ErrMiss) {
			sharedErrors.WithLabelValues("get").Inc()
			s.logger.Warn().Err(err).Str("barcode", code).Msg("shared tier read failed")
		}
	}

	poolMisses.WithLabelValues(poolResponse).Inc()
	return product.Resolution{}, false
}

// PutResponse stores a resolution in the response pool and, when configured,
// writes it through to the shared tier.
func (s *Store) PutResponse(ctx context.Context, code string, res product.Resolution) {
	if evicted := s.responses.Add(code, res); evicted {
		poolEvictions.Inc()
	}

	if s.redis != nil {
		if err := s.sharedPut(ctx, code, res); err != nil {
			sharedErrors.WithLabelValues("set").Inc()
			s.logger.Warn().Err(err).Str("barcode", code).Msg("shared tier write failed")
		}
	}
}

// GetCatalog looks up a catalog-derived entry, treating entries older than
// the catalog TTL as absent and dropping them.
func (s *Store) GetCatalog(code string) (product.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.catalog[code]
	if !ok {
		poolMisses.WithLabelValues(poolCatalog).Inc()
		return product.Product{}, false
	}
	if time.Since(entry.insertedAt) > s.catalogTTL {
		delete(s.catalog, code)
		poolMisses.WithLabelValues(poolCatalog).Inc()
		return product.Product{}, false
	}

	poolHits.WithLabelValues(poolCatalog).Inc()
	return entry.product, true
}

// PutCatalog stores a catalog-derived entry with the current insertion time.
func (s *Store) PutCatalog(code string, p product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[code] = catalogEntry{product: p, insertedAt: time.Now()}
}

// FlushCatalog empties the catalog pool. Wired to the catalog reload signal
// so stale prices never outlive a reload.
func (s *Store) FlushCatalog() {
	s.mu.Lock()
	flushed := len(s.catalog)
	s.catalog = map[string]catalogEntry{}
	s.mu.Unlock()

	if flushed > 0 {
		s.logger.Debug().Int("entries", flushed).Msg("catalog pool flushed")
	}
}

// ResponseLen returns the number of entries in the response pool.
func (s *Store) ResponseLen() int {
	return s.responses.Len()
}

// CatalogLen returns the number of live entries in the catalog pool,
// counting entries that have expired but not yet been dropped.
func (s *Store) CatalogLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.catalog)
}
