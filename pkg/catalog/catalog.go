// Package catalog serves barcode lookups from a delimited catalog file held
// in memory.
//
// The file is CSV with a header row; Barcode, Name and Price columns are
// required (a UTF-8 byte order mark is tolerated). Barcode keys are
// normalized the same way inbound barcodes are, so hyphenated codes in the
// file still match scanned input. Reload is driven by the file's
// modification time: Reload is a no-op while the mtime is unchanged, and
// Watch polls it in the background.
package catalog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scanpos/upc-resolver/pkg/money"
	"github.com/scanpos/upc-resolver/pkg/product"
	"github.com/scanpos/upc-resolver/pkg/upc"
)

var requiredColumns = []string{"Barcode", "Name", "Price"}

// Catalog is a read-only barcode index over a catalog file. Lookups are safe
// for concurrent use; Reload swaps the whole index atomically.
type Catalog struct {
	path   string
	logger zerolog.Logger

	mu       sync.RWMutex
	items    map[string]product.Product
	modTime  time.Time
	onReload func()
}

// New builds a catalog over the given file and performs the initial load. A
// missing or unreadable file leaves the catalog empty and is logged, not
// fatal: the service can still resolve barcodes externally, and Watch picks
// the file up once it appears.
func New(path string, logger zerolog.Logger) *Catalog {
	c := &Catalog{
		path:   path,
		logger: logger,
		items:  map[string]product.Product{},
	}
	if err := c.Reload(); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("catalog load failed, starting empty")
	}
	return c
}

// OnReload registers a hook invoked after every load that actually replaced
// the index. The pipeline uses it to flush catalog-derived cache entries.
func (c *Catalog) OnReload(fn func()) {
	c.mu.Lock()
	c.onReload = fn
	c.mu.Unlock()
}

// Lookup returns the product for a normalized barcode.
func (c *Catalog) Lookup(code string) (product.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.items[code]
	return p, ok
}

// Len returns the number of loaded products.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// LastModified returns the catalog file's modification time at the last
// successful load, zero if nothing has been loaded.
func (c *Catalog) LastModified() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modTime
}

// Reload re-reads the catalog file if its modification time changed since
// the last successful load, and returns without touching the index
// otherwise. A parse failure keeps the previous index.
func (c *Catalog) Reload() error {
	info, err := os.Stat(c.path)
	if err != nil {
		return fmt.Errorf("catalog: stat %s: %w", c.path, err)
	}

	c.mu.RLock()
	unchanged := !c.modTime.IsZero() && info.ModTime().Equal(c.modTime)
	c.mu.RUnlock()
	if unchanged {
		return nil
	}

	items, err := c.load()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.items = items
	c.modTime = info.ModTime()
	hook := c.onReload
	c.mu.Unlock()

	c.logger.Info().
		Int("products", len(items)).
		Time("modified", info.ModTime()).
		Msg("catalog loaded")

	if hook != nil {
		hook()
	}
	return nil
}

// Watch polls the catalog file until ctx is done, reloading on modification
// time changes.
func (c *Catalog) Watch(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Reload(); err != nil {
				c.logger.Warn().Err(err).Msg("catalog reload failed")
			}
		}
	}
}

func (c *Catalog) load() (map[string]product.Product, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", c.path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if lead, err := br.Peek(3); err == nil && bytes.Equal(lead, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: read header: %w", err)
	}

	index := map[string]int{}
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("catalog: missing columns %s in %s", strings.Join(missing, ", "), c.path)
	}

	items := map[string]product.Product{}
	var skipped int
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if !rowComplete(rec, index) {
			skipped++
			continue
		}

		code := upc.Normalize(strings.TrimSpace(rec[index["Barcode"]]))
		if code == "" {
			skipped++
			continue
		}

		rawPrice := rec[index["Price"]]
		price, err := money.Parse(rawPrice)
		if err != nil {
			c.logger.Warn().
				Str("barcode", code).
				Str("price", rawPrice).
				Msg("unparseable price, keeping product at $0.00")
		}

		items[code] = product.Product{
			Barcode: code,
			Name:    strings.TrimSpace(rec[index["Name"]]),
			Price:   price,
		}
	}

	if skipped > 0 {
		c.logger.Warn().Int("rows", skipped).Msg("skipped malformed catalog rows")
	}
	return items, nil
}

func rowComplete(rec []string, index map[string]int) bool {
	for _, col := range requiredColumns {
		if index[col] >= len(rec) {
			return false
		}
	}
	return true
}
