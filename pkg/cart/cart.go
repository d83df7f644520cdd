// Package cart tracks the in-memory cart and purchase orders for a till
// session. Both live for the process lifetime only.
//
// Cart lines reference catalog products exclusively. Externally resolved
// barcodes carry no price, so there is nothing exact to total; the source
// lookup rejects them before a line is created.
package cart

import (
	"errors"
	"sort"
	"sync"

	"github.com/scanpos/upc-resolver/pkg/money"
	"github.com/scanpos/upc-resolver/pkg/product"
	"github.com/scanpos/upc-resolver/pkg/upc"
)

var (
	ErrUnknownProduct = errors.New("product not found")
	ErrNotInCart      = errors.New("item not found in cart")
	ErrBadQuantity    = errors.New("quantity must be positive")
	ErrEmptyCart      = errors.New("cart is empty")
)

// ProductSource supplies priced products for barcodes added to the cart.
type ProductSource interface {
	Lookup(code string) (product.Product, bool)
}

// Line is one cart entry with amounts formatted for display.
type Line struct {
	Barcode  string `json:"barcode"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

// Summary is a point-in-time view of the whole cart.
type Summary struct {
	Items []Line `json:"items"`
	Total string `json:"total"`
	Count int    `json:"count"`
}

type line struct {
	name     string
	price    money.Money
	quantity int
}

// Cart accumulates scanned products. All methods are safe for concurrent
// use; every read-modify-write runs under one lock.
type Cart struct {
	source ProductSource

	mu    sync.Mutex
	lines map[string]*line
}

// New creates an empty Cart backed by source.
func New(source ProductSource) *Cart {
	return &Cart{
		source: source,
		lines:  make(map[string]*line),
	}
}

// Add puts quantity units on the cart, accumulating onto an existing line.
// The barcode must resolve in the product source. Returns the number of
// distinct lines after the add.
func (c *Cart) Add(code string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, ErrBadQuantity
	}
	code = upc.Normalize(code)

	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.lines[code]; ok {
		l.quantity += quantity
		return len(c.lines), nil
	}

	p, ok := c.source.Lookup(code)
	if !ok {
		return len(c.lines), ErrUnknownProduct
	}
	c.lines[code] = &line{name: p.Name, price: p.Price, quantity: quantity}
	return len(c.lines), nil
}

// Update sets a line's quantity. A quantity of zero or less removes the
// line. Returns the number of distinct lines after the update.
func (c *Cart) Update(code string, quantity int) (int, error) {
	code = upc.Normalize(code)

	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.lines[code]
	if !ok {
		return len(c.lines), ErrNotInCart
	}
	if quantity <= 0 {
		delete(c.lines, code)
	} else {
		l.quantity = quantity
	}
	return len(c.lines), nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = make(map[string]*line)
	c.mu.Unlock()
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Snapshot returns the current cart with exact per-line subtotals and
// total, lines sorted by name for stable display.
func (c *Cart) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summaryLocked()
}

// drain atomically snapshots and empties the cart. Order creation uses
// this so two concurrent creates cannot bill the same lines twice.
func (c *Cart) drain() (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) == 0 {
		return Summary{}, ErrEmptyCart
	}
	summary := c.summaryLocked()
	c.lines = make(map[string]*line)
	return summary, nil
}

func (c *Cart) summaryLocked() Summary {
	items := make([]Line, 0, len(c.lines))
	subtotals := make([]money.Money, 0, len(c.lines))

	for code, l := range c.lines {
		subtotal := l.price.MulInt(l.quantity)
		subtotals = append(subtotals, subtotal)
		items = append(items, Line{
			Barcode:  code,
			Name:     l.name,
			Price:    l.price.Format(),
			Quantity: l.quantity,
			Subtotal: subtotal.Format(),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Barcode < items[j].Barcode
	})

	return Summary{
		Items: items,
		Total: money.Sum(subtotals...).Format(),
		Count: len(items),
	}
}
