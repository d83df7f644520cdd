package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scanpos/upc-resolver/pkg/cart"
	"github.com/scanpos/upc-resolver/pkg/lookup"
	"github.com/scanpos/upc-resolver/pkg/ratelimit"
	"github.com/scanpos/upc-resolver/pkg/upc"
)

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")

	res, err := s.resolver.Resolve(r.Context(), barcode)
	if err != nil {
		s.writeLookupError(w, barcode, err)
		return
	}
	if !res.Found {
		writeJSON(w, http.StatusNotFound, lookupFailure{Message: "Product not found"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeLookupError maps pipeline failures onto the response taxonomy.
// Validation problems are the caller's fault. Throttling carries a
// retry_after. Provider timeouts and transport failures surface as gateway
// errors so the till can tell a sick provider from a sick server. A
// malformed provider payload counts against the error streak like any
// other unexpected failure.
func (s *Server) writeLookupError(w http.ResponseWriter, barcode string, err error) {
	var vErr *upc.Error
	var denial *ratelimit.Denial
	var fetchErr *lookup.FetchError

	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, lookupFailure{
			Error:   "invalid_upc",
			Message: vErr.Message,
		})

	case errors.As(err, &denial):
		secs := denial.RetryAfterSeconds()
		writeJSON(w, http.StatusTooManyRequests, rateLimitResponse{
			Error:      "rate_limit",
			Message:    fmt.Sprintf("Please wait %d seconds", secs),
			RetryAfter: secs,
		})

	case errors.As(err, &fetchErr):
		switch fetchErr.Kind {
		case lookup.KindInvalidQuery:
			writeJSON(w, http.StatusBadRequest, lookupFailure{
				Error:   "invalid_query",
				Message: "Provider rejected the barcode",
			})
		case lookup.KindTimeout:
			writeJSON(w, http.StatusGatewayTimeout, errorResponse{
				Error:   "timeout",
				Message: "Product lookup timed out",
			})
		case lookup.KindMalformed:
			s.guard.RecordFailure()
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   "server_error",
				Message: "Unexpected provider response",
			})
		default:
			writeJSON(w, http.StatusBadGateway, errorResponse{
				Error:   "api_error",
				Message: "Product lookup failed",
			})
		}

	default:
		s.logger.Error().Err(err).Str("barcode", barcode).Msg("unexpected resolution failure")
		s.guard.RecordFailure()
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "server_error",
			Message: "Internal server error",
		})
	}
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cart.Snapshot())
}

type cartMutation struct {
	Barcode  string `json:"barcode"`
	Quantity *int   `json:"quantity"`
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	var req cartMutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	count, err := s.cart.Add(req.Barcode, quantity)
	switch {
	case errors.Is(err, cart.ErrBadQuantity):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid quantity"})
	case errors.Is(err, cart.ErrUnknownProduct):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Product not found"})
	case err != nil:
		s.logger.Error().Err(err).Msg("cart add failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to add item to cart"})
	default:
		writeJSON(w, http.StatusOK, cartMutationResponse{
			Message:   "Item added to cart",
			CartCount: count,
		})
	}
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	var req cartMutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	quantity := 0
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	count, err := s.cart.Update(req.Barcode, quantity)
	switch {
	case errors.Is(err, cart.ErrNotInCart):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Item not found in cart"})
	case err != nil:
		s.logger.Error().Err(err).Msg("cart update failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to update cart"})
	default:
		writeJSON(w, http.StatusOK, cartMutationResponse{
			Message:   "Cart updated",
			CartCount: count,
		})
	}
}

func (s *Server) handleCartClear(w http.ResponseWriter, r *http.Request) {
	s.cart.Clear()
	writeJSON(w, http.StatusOK, messageResponse{Message: "Cart cleared"})
}

type orderCreated struct {
	Message string     `json:"message"`
	Order   cart.Order `json:"order"`
}

func (s *Server) handleOrderCreate(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.Create(s.cart)
	if errors.Is(err, cart.ErrEmptyCart) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Cart is empty"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("order creation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to create order"})
		return
	}
	writeJSON(w, http.StatusOK, orderCreated{
		Message: "Order created successfully",
		Order:   order,
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "order_number")
	order, ok := s.orders.Get(number)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Order not found"})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type catalogHealth struct {
	Products   int    `json:"products"`
	LastLoaded string `json:"last_loaded,omitempty"`
}

type providerHealth struct {
	CooldownSeconds float64 `json:"cooldown_seconds"`
	ErrorCount      int     `json:"error_count"`
	QuotaRemaining  *int    `json:"quota_remaining,omitempty"`
}

type healthResponse struct {
	Status   string         `json:"status"`
	Catalog  catalogHealth  `json:"catalog"`
	Provider providerHealth `json:"provider"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.guard.Snapshot()

	health := healthResponse{
		Status: "ok",
		Catalog: catalogHealth{
			Products: s.catalog.Len(),
		},
		Provider: providerHealth{
			CooldownSeconds: state.Cooldown.Seconds(),
			ErrorCount:      state.ErrorCount,
		},
	}
	if last := s.catalog.LastModified(); !last.IsZero() {
		health.Catalog.LastLoaded = last.Format(time.RFC3339)
	}
	if state.HasQuota {
		remaining := state.Remaining
		health.Provider.QuotaRemaining = &remaining
	}

	writeJSON(w, http.StatusOK, health)
}
