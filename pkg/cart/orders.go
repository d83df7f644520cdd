package cart

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const orderStampLayout = "20060102150405"

// Order is a finalized purchase order.
type Order struct {
	Number string `json:"order_number"`
	Date   string `json:"date"`
	Items  []Line `json:"items"`
	Total  string `json:"total"`
}

// OrderLog stores purchase orders for the process lifetime. Order numbers
// derive from the creation timestamp; a second order within the same clock
// second gets a sequence suffix so numbers stay unique.
type OrderLog struct {
	logger zerolog.Logger

	mu        sync.Mutex
	orders    map[string]Order
	lastStamp string
	seq       int
}

// NewOrderLog creates an empty OrderLog.
func NewOrderLog(logger zerolog.Logger) *OrderLog {
	return &OrderLog{
		logger: logger,
		orders: make(map[string]Order),
	}
}

// Create drains the cart into a new purchase order. An empty cart is
// rejected with ErrEmptyCart and nothing is recorded.
func (l *OrderLog) Create(c *Cart) (Order, error) {
	summary, err := c.drain()
	if err != nil {
		return Order{}, err
	}
	now := time.Now()

	l.mu.Lock()
	order := Order{
		Number: l.nextNumberLocked(now),
		Date:   now.Format(time.RFC3339),
		Items:  summary.Items,
		Total:  summary.Total,
	}
	l.orders[order.Number] = order
	l.mu.Unlock()

	l.logger.Info().
		Str("order_number", order.Number).
		Int("lines", len(order.Items)).
		Str("total", order.Total).
		Msg("purchase order created")
	return order, nil
}

// Get returns the order with the given number.
func (l *OrderLog) Get(number string) (Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	order, ok := l.orders[number]
	return order, ok
}

// Len returns the number of stored orders.
func (l *OrderLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.orders)
}

func (l *OrderLog) nextNumberLocked(now time.Time) string {
	stamp := now.Format(orderStampLayout)
	if stamp == l.lastStamp {
		l.seq++
		return fmt.Sprintf("PO-%s-%d", stamp, l.seq)
	}
	l.lastStamp = stamp
	l.seq = 0
	return "PO-" + stamp
}
