package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/scanpos/upc-resolver/pkg/ratelimit"
)

func testClient(t *testing.T, baseURL string, cfg Config) (*Client, *ratelimit.Guard) {
	t.Helper()

	guard := ratelimit.NewGuard(ratelimit.GuardConfig{Logger: zerolog.Nop()})

	cfg.BaseURL = baseURL
	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Millisecond
	}
	cfg.Logger = zerolog.Nop()

	client, err := New(cfg, guard)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client, guard
}

func TestNewValidation(t *testing.T) {
	guard := ratelimit.NewGuard(ratelimit.GuardConfig{Logger: zerolog.Nop()})

	tests := []struct {
		name  string
		cfg   Config
		guard *ratelimit.Guard
	}{
		{name: "missing_base_url", cfg: Config{APIKey: "k"}, guard: guard},
		{name: "missing_api_key", cfg: Config{BaseURL: "http://example.test"}, guard: guard},
		{name: "nil_guard", cfg: Config{BaseURL: "http://example.test", APIKey: "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, tt.guard); err == nil {
				t.Error("expected constructor error")
			}
		})
	}
}

func TestFetchSuccess(t *testing.T) {
	var gotAuth string
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("upc")
		w.Header().Set(ratelimit.HeaderRemaining, "55")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"title":"Grey Goose Vodka 750ml","description":"Imported vodka","upc":"012345678905"}]}`))
	}))
	defer server.Close()

	client, guard := testClient(t, server.URL, Config{})

	result, err := client.Fetch(context.Background(), "012345678905")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(result.Items))
	}
	if result.Items[0].Title != "Grey Goose Vodka 750ml" {
		t.Errorf("Title = %q", result.Items[0].Title)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want bearer credential", gotAuth)
	}
	if gotQuery != "012345678905" {
		t.Errorf("upc query = %q", gotQuery)
	}

	state := guard.Snapshot()
	if state.LastAttempt.IsZero() {
		t.Error("successful attempt should be recorded on the guard")
	}
	if !state.HasQuota || state.Remaining != 55 {
		t.Errorf("quota state = %+v, want remaining 55", state)
	}
}

func TestFetchRateLimited(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, guard := testClient(t, server.URL, Config{})

	_, err := client.Fetch(context.Background(), "012345678905")
	var denial *ratelimit.Denial
	if !errors.As(err, &denial) {
		t.Fatalf("got %T (%v), want *ratelimit.Denial", err, err)
	}
	if denial.Reason != ratelimit.ReasonQuota {
		t.Errorf("Reason = %s, want %s", denial.Reason, ratelimit.ReasonQuota)
	}
	if denial.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", denial.RetryAfter)
	}

	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("429 must not be retried, got %d requests", got)
	}
	if got := guard.Snapshot().Cooldown; got != 7*time.Second {
		t.Errorf("guard cooldown = %v, want the Retry-After hint", got)
	}
}

func TestFetchRateLimitedDefaultHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := testClient(t, server.URL, Config{})

	_, err := client.Fetch(context.Background(), "012345678905")
	var denial *ratelimit.Denial
	if !errors.As(err, &denial) {
		t.Fatalf("got %T, want *ratelimit.Denial", err)
	}
	if denial.RetryAfter != DefaultRetryAfter {
		t.Errorf("RetryAfter = %v, want default %v", denial.RetryAfter, DefaultRetryAfter)
	}
}

func TestFetchInvalidQuery(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client, _ := testClient(t, server.URL, Config{})

	_, err := client.Fetch(context.Background(), "012345678905")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("got %T, want *FetchError", err)
	}
	if fe.Kind != KindInvalidQuery {
		t.Errorf("Kind = %s, want %s", fe.Kind, KindInvalidQuery)
	}
	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("400 must not be retried, got %d requests", got)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	client, _ := testClient(t, server.URL, Config{MaxRetries: 3})

	result, err := client.Fetch(context.Background(), "012345678905")
	if err != nil {
		t.Fatalf("Fetch failed after recoverable errors: %v", err)
	}
	if len(result.Items) != 0 {
		t.Errorf("got %d items, want empty list", len(result.Items))
	}
	if got := atomic.LoadInt32(&requests); got != 3 {
		t.Errorf("got %d requests, want 3", got)
	}
}

func TestFetchRetriesExhausted(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, _ := testClient(t, server.URL, Config{MaxRetries: 2})

	_, err := client.Fetch(context.Background(), "012345678905")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("got %T, want *FetchError", err)
	}
	if fe.Kind != KindTransport {
		t.Errorf("Kind = %s, want %s", fe.Kind, KindTransport)
	}
	if fe.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", fe.Attempts)
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Error("exhausted fetch should wrap ErrRetryExhausted")
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Errorf("got %d requests, want 2", got)
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client, _ := testClient(t, server.URL, Config{Timeout: 50 * time.Millisecond, MaxRetries: 2})

	_, err := client.Fetch(context.Background(), "012345678905")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("got %T, want *FetchError", err)
	}
	if fe.Kind != KindTimeout {
		t.Errorf("Kind = %s, want %s", fe.Kind, KindTimeout)
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Error("timed-out fetch should wrap ErrRetryExhausted")
	}
}

func TestFetchMalformedPayload(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client, _ := testClient(t, server.URL, Config{})

	_, err := client.Fetch(context.Background(), "012345678905")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("got %T, want *FetchError", err)
	}
	if fe.Kind != KindMalformed {
		t.Errorf("Kind = %s, want %s", fe.Kind, KindMalformed)
	}
	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("malformed payload must not be retried, got %d requests", got)
	}
}

func TestFetchContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := testClient(t, server.URL, Config{MaxRetries: 3, BackoffBase: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.Fetch(ctx, "012345678905")
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation should cut the backoff short, took %v", elapsed)
	}
}
