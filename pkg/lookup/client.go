package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scanpos/upc-resolver/pkg/ratelimit"
)

// Client defaults.
const (
	DefaultTimeout     = 5 * time.Second
	DefaultMaxRetries  = 3
	DefaultBackoffBase = time.Second

	// DefaultRetryAfter is assumed when a 429 carries no usable
	// Retry-After header.
	DefaultRetryAfter = 5 * time.Second
)

// Config holds client construction parameters.
type Config struct {
	// BaseURL is the provider endpoint root, e.g.
	// "https://api.upcitemdb.com/prod/trial".
	BaseURL string

	// APIKey is sent as a bearer credential on every request.
	APIKey string

	// Timeout bounds each individual attempt.
	Timeout time.Duration

	// MaxRetries bounds attempts per Fetch.
	MaxRetries int

	// BackoffBase scales the exponential backoff: attempt n sleeps
	// BackoffBase * 2^n before the next try.
	BackoffBase time.Duration

	Logger zerolog.Logger
}

// Item is one product record in a provider response. Unknown provider
// fields are ignored.
type Item struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
	UPC         string `json:"upc"`
}

// Result is a decoded provider payload.
type Result struct {
	Items []Item `json:"items"`
}

// Client calls the external product database. Admission (window, cooldown,
// streak, quota) is checked by the pipeline before Fetch; the client still
// records every attempt on the shared guard and feeds provider rate-limit
// signals back into it.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	guard   *ratelimit.Guard
	retries int
	backoff time.Duration
	logger  zerolog.Logger
}

// New validates cfg and creates a Client sharing the given guard.
func New(cfg Config, guard *ratelimit.Guard) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("lookup: BaseURL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("lookup: APIKey is required")
	}
	if guard == nil {
		return nil, fmt.Errorf("lookup: guard is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		guard:   guard,
		retries: cfg.MaxRetries,
		backoff: cfg.BackoffBase,
		logger:  cfg.Logger,
	}, nil
}

// Fetch looks the barcode up at the provider. Timeouts and transport
// failures retry with exponential backoff up to MaxRetries; a 400 or 429
// returns immediately. A 429 comes back as *ratelimit.Denial so callers map
// it exactly like a local admission denial.
func (c *Client) Fetch(ctx context.Context, barcode string) (*Result, error) {
	endpoint := c.baseURL + "/lookup?upc=" + url.QueryEscape(barcode)

	var lastKind ErrorKind
	var lastErr error

	for attempt := 1; attempt <= c.retries; attempt++ {
		start := time.Now()
		resp, err := c.doAttempt(ctx, endpoint)
		c.guard.RecordAttempt()
		providerDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			if isTimeout(err) {
				lastKind = KindTimeout
				providerRequests.WithLabelValues("timeout").Inc()
			} else {
				lastKind = KindTransport
				providerRequests.WithLabelValues("network_error").Inc()
			}
			lastErr = err

			c.logger.Warn().
				Err(err).
				Str("barcode", barcode).
				Int("attempt", attempt).
				Msg("provider call failed")

			if serr := c.backoffSleep(ctx, attempt); serr != nil {
				return nil, &FetchError{Kind: lastKind, Attempts: attempt, Err: serr}
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			hint := parseRetryAfter(resp.Header)
			resp.Body.Close()
			c.guard.SetCooldown(hint)
			providerRequests.WithLabelValues("rate_limited").Inc()

			c.logger.Warn().
				Str("barcode", barcode).
				Dur("retry_after", hint).
				Msg("provider rate limited")

			return nil, &ratelimit.Denial{Reason: ratelimit.ReasonQuota, RetryAfter: hint}

		case resp.StatusCode == http.StatusBadRequest:
			resp.Body.Close()
			providerRequests.WithLabelValues("invalid_query").Inc()
			return nil, &FetchError{Kind: KindInvalidQuery, Attempts: attempt}

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			c.guard.UpdateFromHeaders(resp.Header)

			var result Result
			err := json.NewDecoder(resp.Body).Decode(&result)
			resp.Body.Close()
			if err != nil {
				providerRequests.WithLabelValues("malformed").Inc()
				return nil, &FetchError{Kind: KindMalformed, Attempts: attempt, Err: err}
			}

			providerRequests.WithLabelValues("success").Inc()
			c.logger.Debug().
				Str("barcode", barcode).
				Int("items", len(result.Items)).
				Dur("duration", time.Since(start)).
				Msg("provider lookup complete")
			return &result, nil

		default:
			resp.Body.Close()
			lastKind = KindTransport
			lastErr = &statusError{status: resp.StatusCode}
			providerRequests.WithLabelValues("server_error").Inc()

			c.logger.Warn().
				Str("barcode", barcode).
				Int("status", resp.StatusCode).
				Int("attempt", attempt).
				Msg("provider returned error status")

			if serr := c.backoffSleep(ctx, attempt); serr != nil {
				return nil, &FetchError{Kind: lastKind, Attempts: attempt, Err: serr}
			}
		}
	}

	retriesExhausted.Inc()
	return nil, &FetchError{
		Kind:     lastKind,
		Attempts: c.retries,
		Err:      fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr),
	}
}

func (c *Client) doAttempt(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

// backoffSleep waits out the exponential backoff for the given attempt,
// honoring cancellation. No retry budget is left after the final attempt,
// so it returns without sleeping then.
func (c *Client) backoffSleep(ctx context.Context, attempt int) error {
	if attempt >= c.retries {
		return nil
	}
	providerRetries.Inc()

	wait := c.backoff << attempt
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// parseRetryAfter reads the Retry-After header as whole seconds, falling
// back to the provider default when absent or unparseable.
func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return DefaultRetryAfter
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return DefaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
