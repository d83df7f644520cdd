// Package resolve runs scanned barcodes through the resolution pipeline:
// validation, the response pool, the local catalog, admission control, and
// finally the external product database.
//
// The order is deliberate. Cached and catalog answers never touch the
// sliding window or the provider guard, so a till rescanning known stock
// cannot burn external quota. Only a barcode that misses every local tier
// has to pass admission before a network call is made, and no lock is held
// across that call.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/scanpos/upc-resolver/pkg/cache"
	"github.com/scanpos/upc-resolver/pkg/lookup"
	"github.com/scanpos/upc-resolver/pkg/product"
	"github.com/scanpos/upc-resolver/pkg/ratelimit"
	"github.com/scanpos/upc-resolver/pkg/upc"
)

// Catalog is the authoritative local product index.
type Catalog interface {
	Lookup(code string) (product.Product, bool)
}

// Fetcher calls the external product database.
type Fetcher interface {
	Fetch(ctx context.Context, barcode string) (*lookup.Result, error)
}

// Config holds pipeline construction parameters.
type Config struct {
	Catalog Catalog
	Cache   *cache.Store
	Window  *ratelimit.Window
	Guard   *ratelimit.Guard
	Client  Fetcher
	Logger  zerolog.Logger
}

// Pipeline resolves barcodes to products. One Pipeline is shared by all
// request goroutines.
type Pipeline struct {
	catalog Catalog
	cache   *cache.Store
	window  *ratelimit.Window
	guard   *ratelimit.Guard
	client  Fetcher
	logger  zerolog.Logger
}

// New validates cfg and creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("resolve: Catalog is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("resolve: Cache is required")
	}
	if cfg.Window == nil {
		return nil, fmt.Errorf("resolve: Window is required")
	}
	if cfg.Guard == nil {
		return nil, fmt.Errorf("resolve: Guard is required")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("resolve: Client is required")
	}
	return &Pipeline{
		catalog: cfg.Catalog,
		cache:   cfg.Cache,
		window:  cfg.Window,
		guard:   cfg.Guard,
		client:  cfg.Client,
		logger:  cfg.Logger,
	}, nil
}

// Resolve turns a scanned barcode into a Resolution. Validation failures
// come back as *upc.Error, admission and provider throttling as
// *ratelimit.Denial, and provider failures as *lookup.FetchError. A clean
// provider answer with no items is not an error: the Resolution simply has
// Found unset, and nothing is cached so a later scan asks again.
func (p *Pipeline) Resolve(ctx context.Context, raw string) (product.Resolution, error) {
	start := time.Now()
	defer func() {
		resolveDuration.Observe(time.Since(start).Seconds())
	}()

	code, err := upc.Validate(raw)
	if err != nil {
		resolutions.WithLabelValues(outcomeInvalid).Inc()
		return product.Resolution{}, err
	}

	if res, ok := p.cache.GetResponse(ctx, code); ok {
		resolutions.WithLabelValues(outcomeCached).Inc()
		return res, nil
	}

	if res, ok := p.fromCatalog(code); ok {
		p.cache.PutResponse(ctx, code, res)
		resolutions.WithLabelValues(outcomeCatalog).Inc()
		return res, nil
	}

	if denial := p.admit(); denial != nil {
		resolutions.WithLabelValues(outcomeThrottled).Inc()
		p.logger.Warn().
			Str("barcode", code).
			Str("reason", string(denial.Reason)).
			Dur("retry_after", denial.RetryAfter).
			Msg("external lookup throttled")
		return product.Resolution{}, denial
	}

	result, err := p.client.Fetch(ctx, code)
	if err != nil {
		var denial *ratelimit.Denial
		if errors.As(err, &denial) {
			resolutions.WithLabelValues(outcomeThrottled).Inc()
		} else {
			resolutions.WithLabelValues(outcomeError).Inc()
		}
		return product.Resolution{}, err
	}

	if len(result.Items) == 0 {
		resolutions.WithLabelValues(outcomeNotFound).Inc()
		p.logger.Debug().Str("barcode", code).Msg("barcode unknown to catalog and provider")
		return product.Resolution{Barcode: code}, nil
	}

	res := externalResolution(code, result.Items[0])
	p.cache.PutResponse(ctx, code, res)
	resolutions.WithLabelValues(outcomeExternal).Inc()

	p.logger.Info().
		Str("barcode", code).
		Str("name", res.Name).
		Dur("duration", time.Since(start)).
		Msg("resolved via external provider")
	return res, nil
}

// fromCatalog consults the catalog pool first, then the authoritative
// index, populating the pool on a fresh hit.
func (p *Pipeline) fromCatalog(code string) (product.Resolution, bool) {
	item, ok := p.cache.GetCatalog(code)
	if !ok {
		item, ok = p.catalog.Lookup(code)
		if !ok {
			return product.Resolution{}, false
		}
		p.cache.PutCatalog(code, item)
	}
	return product.Resolution{
		Found:   true,
		Barcode: item.Barcode,
		Name:    item.Name,
		Price:   item.Price.Format(),
	}, true
}

// admit runs both admission checks, local window first so a busy till is
// reported as local pressure rather than provider state.
func (p *Pipeline) admit() *ratelimit.Denial {
	if denial := p.window.Admit(); denial != nil {
		return denial
	}
	return p.guard.Admit()
}

// externalResolution shapes the first provider item for the till display.
func externalResolution(code string, item lookup.Item) product.Resolution {
	barcode := item.UPC
	if barcode == "" {
		barcode = code
	}
	return product.Resolution{
		Found:       true,
		Barcode:     barcode,
		Name:        lookup.ParseTitle(item.Title).Display(),
		Description: item.Description,
		External:    true,
	}
}
