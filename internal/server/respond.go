package server

import (
	"encoding/json"
	"net/http"
)

// lookupFailure is the body for resolution failures that carry a found
// flag (validation errors and not-found answers).
type lookupFailure struct {
	Found   bool   `json:"found"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// rateLimitResponse is the 429 body for local and provider throttling.
type rateLimitResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// errorResponse is the generic error body.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// messageResponse acknowledges a state change.
type messageResponse struct {
	Message string `json:"message"`
}

// cartMutationResponse acknowledges a cart change with the new line count.
type cartMutationResponse struct {
	Message   string `json:"message"`
	CartCount int    `json:"cart_count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
