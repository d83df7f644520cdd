package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Header names the provider uses for quota bookkeeping.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Guard defaults.
const (
	DefaultCooldown   = 2 * time.Second
	DefaultMaxErrors  = 5
	DefaultErrorReset = 5 * time.Minute
)

// GuardConfig holds guard construction parameters. Zero values fall back to
// the defaults above.
type GuardConfig struct {
	// Cooldown is the minimum time between external calls. Provider
	// Retry-After hints replace it at runtime.
	Cooldown time.Duration

	// MaxErrors is the consecutive-error count that trips the streak
	// circuit.
	MaxErrors int

	// ErrorReset is the rolling window that clears the streak once it
	// elapses since the last attempt.
	ErrorReset time.Duration

	Logger zerolog.Logger
}

// Guard tracks provider-facing call state: last attempt time, the current
// cooldown, the consecutive-error streak, and the provider's published
// quota. One Guard is shared by every resolution goroutine.
type Guard struct {
	logger zerolog.Logger

	mu           sync.Mutex
	cooldown     time.Duration
	maxErrors    int
	errorReset   time.Duration
	lastAttempt  time.Time
	errorCount   int
	remaining    int
	hasRemaining bool
	resetAt      time.Time
}

// NewGuard creates a Guard from cfg.
func NewGuard(cfg GuardConfig) *Guard {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = DefaultMaxErrors
	}
	if cfg.ErrorReset <= 0 {
		cfg.ErrorReset = DefaultErrorReset
	}
	return &Guard{
		logger:     cfg.Logger,
		cooldown:   cfg.Cooldown,
		maxErrors:  cfg.MaxErrors,
		errorReset: cfg.ErrorReset,
	}
}

// Admit reports whether an external call may start now. Checks run in order
// of blast radius: a tripped error streak blocks everything, then the
// inter-call cooldown, then the provider's published quota.
func (g *Guard) Admit() *Denial {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	// A quiet period longer than the reset window clears the streak.
	if g.errorCount > 0 && !g.lastAttempt.IsZero() && now.Sub(g.lastAttempt) > g.errorReset {
		g.errorCount = 0
	}

	if g.errorCount >= g.maxErrors {
		if wait := g.lastAttempt.Add(g.errorReset).Sub(now); wait > 0 {
			denials.WithLabelValues(string(ReasonStreak)).Inc()
			return &Denial{Reason: ReasonStreak, RetryAfter: wait}
		}
		g.errorCount = 0
	}

	if !g.lastAttempt.IsZero() {
		if since := now.Sub(g.lastAttempt); since < g.cooldown {
			denials.WithLabelValues(string(ReasonCooldown)).Inc()
			return &Denial{Reason: ReasonCooldown, RetryAfter: g.cooldown - since}
		}
	}

	if g.hasRemaining && g.remaining <= 0 {
		if wait := g.resetAt.Sub(now); wait > 0 {
			denials.WithLabelValues(string(ReasonQuota)).Inc()
			return &Denial{Reason: ReasonQuota, RetryAfter: wait}
		}
		// Reset time passed; trust the provider to have refreshed.
		g.hasRemaining = false
	}

	return nil
}

// RecordAttempt notes an external call attempt, success or failure. The
// cooldown and the streak reset window both measure from this.
func (g *Guard) RecordAttempt() {
	g.mu.Lock()
	g.lastAttempt = time.Now()
	g.mu.Unlock()
}

// RecordFailure advances the consecutive-error streak. The HTTP recovery
// path calls this for unexpected failures so a broken dependency cannot be
// hammered through the lookup path.
func (g *Guard) RecordFailure() {
	g.mu.Lock()
	g.errorCount++
	count := g.errorCount
	tripped := count == g.maxErrors
	g.mu.Unlock()

	if tripped {
		g.logger.Error().
			Int("errors", count).
			Dur("blocked_for", g.errorReset).
			Msg("error streak tripped, external calls blocked")
	}
}

// SetCooldown replaces the inter-call cooldown, typically with a provider
// Retry-After hint. Non-positive values are ignored.
func (g *Guard) SetCooldown(d time.Duration) {
	if d <= 0 {
		return
	}
	g.mu.Lock()
	g.cooldown = d
	g.mu.Unlock()

	g.logger.Warn().Dur("cooldown", d).Msg("provider retry-after applied as cooldown")
}

// UpdateFromHeaders refreshes provider quota state from response headers.
// Absent or unparseable headers leave the current state untouched. The
// reset header is a Unix timestamp.
func (g *Guard) UpdateFromHeaders(h http.Header) {
	remainStr := h.Get(HeaderRemaining)
	if remainStr == "" {
		return
	}
	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		g.logger.Warn().Str("value", remainStr).Msg("unparseable quota remaining header")
		return
	}

	var resetAt time.Time
	if resetStr := h.Get(HeaderReset); resetStr != "" {
		if unix, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			resetAt = time.Unix(unix, 0)
		}
	}

	g.mu.Lock()
	g.remaining = remaining
	g.hasRemaining = true
	if !resetAt.IsZero() {
		g.resetAt = resetAt
	}
	g.mu.Unlock()

	quotaRemaining.Set(float64(remaining))

	if remaining <= 5 {
		g.logger.Warn().
			Int("remaining", remaining).
			Time("reset", resetAt).
			Msg("provider quota nearly exhausted")
	} else {
		g.logger.Debug().Int("remaining", remaining).Msg("provider quota updated")
	}
}

// State is a point-in-time view of guard bookkeeping, exposed on the health
// surface.
type State struct {
	Cooldown    time.Duration
	LastAttempt time.Time
	ErrorCount  int
	Remaining   int
	HasQuota    bool
	ResetAt     time.Time
}

// Snapshot returns current bookkeeping.
func (g *Guard) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return State{
		Cooldown:    g.cooldown,
		LastAttempt: g.lastAttempt,
		ErrorCount:  g.errorCount,
		Remaining:   g.remaining,
		HasQuota:    g.hasRemaining,
		ResetAt:     g.resetAt,
	}
}
