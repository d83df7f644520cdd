// Package testutil provides testing utilities for the barcode resolver.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines one canned provider response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockProvider is a configurable stand-in for the external product
// database. The default handler answers /lookup?upc=<code> from registered
// items; SetHandler or SetResponse override it wholesale.
type MockProvider struct {
	server *httptest.Server

	mu       sync.RWMutex
	items    map[string]string
	override http.HandlerFunc

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
}

// NewMockProvider starts a mock provider server. Callers must Close it.
func NewMockProvider() *MockProvider {
	mock := &MockProvider{
		items: make(map[string]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		override := mock.override
		mock.mu.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockProvider) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockProvider) Close() {
	m.server.Close()
}

// Reset clears tracking counters, registered items and any override.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.items = make(map[string]string)
	m.override = nil
}

// SetHandler replaces the default handler entirely.
func (m *MockProvider) SetHandler(handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override = handler
}

// SetResponse makes every request answer with the given canned response.
func (m *MockProvider) SetResponse(resp MockResponse) {
	m.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// AddItem registers a product the default handler returns for barcode.
func (m *MockProvider) AddItem(barcode, title, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[barcode] = itemPayload(title, description, barcode)
}

// Requests returns how many requests the server has seen.
func (m *MockProvider) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// defaultHandler answers from registered items, with healthy quota headers.
func (m *MockProvider) defaultHandler(w http.ResponseWriter, r *http.Request) {
	for key, value := range quotaHeaders("95") {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json")

	code := r.URL.Query().Get("upc")
	m.mu.RLock()
	body, ok := m.items[code]
	m.mu.RUnlock()

	if !ok {
		w.Write([]byte(`{"code":"OK","total":0,"items":[]}`))
		return
	}
	w.Write([]byte(body))
}

// NewItemResponse creates a 200 response carrying a single provider item.
func NewItemResponse(title, description, upc string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       itemPayload(title, description, upc),
		Headers:    withContentType(quotaHeaders("95")),
	}
}

// NewNotFoundResponse creates a 200 response with an empty item list.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"code":"OK","total":0,"items":[]}`,
		Headers:    withContentType(quotaHeaders("95")),
	}
}

// NewRateLimitResponse creates a 429 with a Retry-After hint in seconds.
func NewRateLimitResponse(retryAfter int) MockResponse {
	headers := quotaHeaders("0")
	headers["Retry-After"] = strconv.Itoa(retryAfter)
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error":"rate_limit"}`,
		Headers:    withContentType(headers),
	}
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":"internal"}`,
		Headers:    withContentType(quotaHeaders("90")),
	}
}

func itemPayload(title, description, upc string) string {
	payload, _ := json.Marshal(map[string]any{
		"code":  "OK",
		"total": 1,
		"items": []map[string]string{{
			"title":       title,
			"description": description,
			"upc":         upc,
		}},
	})
	return string(payload)
}

func quotaHeaders(remaining string) map[string]string {
	return map[string]string{
		"X-RateLimit-Remaining": remaining,
		"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10),
	}
}

func withContentType(headers map[string]string) map[string]string {
	headers["Content-Type"] = "application/json"
	return headers
}
