package ratelimit

import (
	"sync"
	"time"
)

// Window defaults.
const (
	DefaultMaxRequests = 100
	DefaultWindowSpan  = time.Minute
)

// Window is a sliding-window admission counter: at most max calls may start
// within any trailing span. Admitted timestamps are pruned on every check,
// so memory stays bounded by max.
type Window struct {
	max  int
	span time.Duration

	mu    sync.Mutex
	times []time.Time
}

// NewWindow creates a window admitting max calls per span. Non-positive
// arguments fall back to the defaults.
func NewWindow(max int, span time.Duration) *Window {
	if max <= 0 {
		max = DefaultMaxRequests
	}
	if span <= 0 {
		span = DefaultWindowSpan
	}
	return &Window{max: max, span: span}
}

// Admit consumes one admission slot. It returns nil when the call may
// proceed; a Denial reports how long until the oldest admission ages out of
// the window. Prune, check and append happen in one critical section so
// concurrent callers cannot overshoot the limit.
func (w *Window) Admit() *Denial {
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-w.span)
	keep := w.times[:0]
	for _, ts := range w.times {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	w.times = keep

	if len(w.times) < w.max {
		w.times = append(w.times, now)
		return nil
	}

	denials.WithLabelValues(string(ReasonLocalWindow)).Inc()
	return &Denial{
		Reason:     ReasonLocalWindow,
		RetryAfter: w.times[0].Add(w.span).Sub(now),
	}
}

// InFlight returns how many admissions currently sit inside the window.
func (w *Window) InFlight() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := time.Now().Add(-w.span)
	n := 0
	for _, ts := range w.times {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}
