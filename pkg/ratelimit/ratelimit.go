// Package ratelimit implements admission control for external product
// lookups.
//
// Two mechanisms cooperate:
//
//   - Window: a sliding-window counter bounding how many external calls may
//     start within a trailing interval.
//   - Guard: provider-facing bookkeeping enforcing a minimum inter-call
//     cooldown, a consecutive-error circuit, and the provider's published
//     quota (remaining/reset headers).
//
// Admission checks return nil when the call may proceed, or a *Denial
// carrying the reason and how long the caller should wait. The network call
// itself is never made under either component's lock.
package ratelimit

import (
	"fmt"
	"time"
)

// Reason classifies why admission was denied.
type Reason string

const (
	ReasonLocalWindow Reason = "local_window"
	ReasonCooldown    Reason = "cooldown"
	ReasonStreak      Reason = "error_streak"
	ReasonQuota       Reason = "provider_quota"
)

// Denial is the error returned when admission control rejects an external
// call.
type Denial struct {
	Reason     Reason
	RetryAfter time.Duration
}

func (d *Denial) Error() string {
	return fmt.Sprintf("rate limited (%s), retry after %ds", d.Reason, d.RetryAfterSeconds())
}

// RetryAfterSeconds returns the wait floored to whole seconds, the form the
// HTTP layer reports in retry_after fields.
func (d *Denial) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int(d.RetryAfter.Seconds())
}
