// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/puehres/product-import/cmd/import-api/handlers"
	"github.com/puehres/product-import/cmd/import-api/middleware"
	"github.com/puehres/product-import/internal/config"
	"github.com/puehres/product-import/internal/ingest"
	"github.com/puehres/product-import/internal/observability"
	"github.com/puehres/product-import/internal/storage"
	"github.com/puehres/product-import/internal/supplier"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(
	cfg *config.Config,
	logger *observability.Logger,
	pipeline *ingest.Pipeline,
	registry *supplier.Registry,
	products *storage.ProductRepository,
	batches *storage.BatchRepository,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Ingestion.Timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"product-import"}`))
	})

	ingestionHandler := handlers.NewIngestionHandler(logger, pipeline, cfg.Server.MaxUploadBytes)
	productsHandler := handlers.NewProductsHandler(logger, products)
	batchesHandler := handlers.NewBatchesHandler(logger, batches)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/invoices", ingestionHandler.Ingest)

		r.Route("/products", func(r chi.Router) {
			r.Get("/review", productsHandler.ListReview)
			r.Post("/{productId}/review", productsHandler.ResolveReview)
		})

		r.Get("/batches", batchesHandler.List)

		r.Get("/suppliers", func(w http.ResponseWriter, _ *http.Request) {
			type supplierDTO struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			}
			dtos := make([]supplierDTO, 0)
			for _, def := range registry.Definitions() {
				dtos = append(dtos, supplierDTO{ID: def.ID, Name: def.Name})
			}
			handlers.WriteJSON(w, http.StatusOK, map[string]any{"suppliers": dtos})
		})
	})

	return r
}
