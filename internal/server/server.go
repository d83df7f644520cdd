// Package server exposes the resolver, cart and order APIs over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/scanpos/upc-resolver/pkg/cart"
	"github.com/scanpos/upc-resolver/pkg/product"
	"github.com/scanpos/upc-resolver/pkg/ratelimit"
)

// Resolver turns a scanned barcode into a Resolution.
type Resolver interface {
	Resolve(ctx context.Context, barcode string) (product.Resolution, error)
}

// CatalogInfo reports catalog state for the health surface.
type CatalogInfo interface {
	Len() int
	LastModified() time.Time
}

// Config holds server construction parameters.
type Config struct {
	Resolver Resolver
	Cart     *cart.Cart
	Orders   *cart.OrderLog
	Catalog  CatalogInfo
	Guard    *ratelimit.Guard
	Logger   zerolog.Logger
}

// Server is the HTTP front of the resolver service.
type Server struct {
	resolver Resolver
	cart     *cart.Cart
	orders   *cart.OrderLog
	catalog  CatalogInfo
	guard    *ratelimit.Guard
	logger   zerolog.Logger
	router   chi.Router
}

// New validates cfg and creates a Server with its routes mounted.
func New(cfg Config) (*Server, error) {
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("server: Resolver is required")
	}
	if cfg.Cart == nil {
		return nil, fmt.Errorf("server: Cart is required")
	}
	if cfg.Orders == nil {
		return nil, fmt.Errorf("server: Orders is required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("server: Catalog is required")
	}
	if cfg.Guard == nil {
		return nil, fmt.Errorf("server: Guard is required")
	}

	s := &Server{
		resolver: cfg.Resolver,
		cart:     cfg.Cart,
		orders:   cfg.Orders,
		catalog:  cfg.Catalog,
		guard:    cfg.Guard,
		logger:   cfg.Logger,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)

	r.Get("/lookup/{barcode}", s.handleLookup)

	r.Get("/cart", s.handleGetCart)
	r.Post("/cart/add", s.handleCartAdd)
	r.Put("/cart/update", s.handleCartUpdate)
	r.Post("/cart/clear", s.handleCartClear)

	r.Post("/order/create", s.handleOrderCreate)
	r.Get("/order/{order_number}", s.handleGetOrder)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
}

// Handler returns the mounted router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully with a 10s drain deadline.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info().Str("addr", addr).Msg("http server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info().Msg("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}
