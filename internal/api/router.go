// Package api serves the persisted catalog read-only over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cellar-app/cellar/internal/model"
	"github.com/cellar-app/cellar/internal/store"
)

// Catalog is the read side of the store the API needs.
type Catalog interface {
	ListWines(ctx context.Context, filter store.WineFilter) ([]model.Wine, error)
	ListWineries(ctx context.Context, filter store.WineryFilter) ([]model.Winery, error)
	Stats(ctx context.Context) (*model.CatalogStats, error)
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	// Gatherer backs GET /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

type handler struct {
	catalog Catalog
	log     *zap.Logger
}

// NewRouter builds the HTTP handler for the catalog API.
func NewRouter(catalog Catalog, opts Options) http.Handler {
	h := &handler{
		catalog: catalog,
		log:     zap.L().With(zap.String("component", "api")),
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/wines", h.listWines)
		r.Get("/wineries", h.listWineries)
		r.Get("/stats", h.stats)
	})

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
