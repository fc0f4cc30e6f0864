package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/puehres/product-import/internal/observability"
	"github.com/puehres/product-import/internal/storage"
)

// ProductsHandler serves product records, primarily the review queue.
type ProductsHandler struct {
	logger   *observability.Logger
	products *storage.ProductRepository
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(logger *observability.Logger, products *storage.ProductRepository) *ProductsHandler {
	return &ProductsHandler{logger: logger, products: products}
}

// ProductDTO is the API representation of a product record.
type ProductDTO struct {
	ID                    string `json:"id"`
	ManufacturerArticleNo string `json:"manufacturerArticleNo"`
	Manufacturer          string `json:"manufacturer,omitempty"`
	SupplierID            string `json:"supplierId"`
	SupplierArticleNo     string `json:"supplierArticleNo,omitempty"`
	Category              string `json:"category,omitempty"`
	DisplayName           string `json:"displayName"`
	UnitPrice             string `json:"unitPrice"`
	Currency              string `json:"currency"`
	RequiresReview        bool   `json:"requiresReview"`
	ReviewNotes           string `json:"reviewNotes,omitempty"`
	CreatedAt             string `json:"createdAt"`
	UpdatedAt             string `json:"updatedAt"`
}

// ListReview handles GET /api/v1/products/review.
func (h *ProductsHandler) ListReview(w http.ResponseWriter, r *http.Request) {
	records, err := h.products.ListRequiringReview(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list review queue")
		writeError(w, http.StatusInternalServerError, "list review queue", err.Error())
		return
	}

	dtos := make([]ProductDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, productDTO(record))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"products": dtos})
}

// ResolveReviewRequestDTO clears or keeps the review flag on a record.
type ResolveReviewRequestDTO struct {
	RequiresReview bool   `json:"requiresReview"`
	Notes          string `json:"notes"`
}

// ResolveReview handles POST /api/v1/products/{productId}/review. A human
// reviewer uses it to clear the flag once a conflict is settled.
func (h *ProductsHandler) ResolveReview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(pathParam(r, "productId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid productId", err.Error())
		return
	}

	var req ResolveReviewRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	err = h.products.UpdateReviewStatus(r.Context(), id, req.RequiresReview, req.Notes)
	switch {
	case err == nil:
	case err == storage.ErrNotFound:
		writeError(w, http.StatusNotFound, "product not found", "")
		return
	default:
		h.logger.Error().Err(err).Str("product_id", id.String()).Msg("Failed to update review status")
		writeError(w, http.StatusInternalServerError, "update review status", err.Error())
		return
	}

	h.logger.Info().
		Str("product_id", id.String()).
		Bool("requires_review", req.RequiresReview).
		Msg("Review status updated")
	WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func productDTO(record *storage.ProductRecord) ProductDTO {
	return ProductDTO{
		ID:                    record.ID.String(),
		ManufacturerArticleNo: record.ManufacturerArticleNo,
		Manufacturer:          record.Manufacturer,
		SupplierID:            record.SupplierID,
		SupplierArticleNo:     record.SupplierArticleNo,
		Category:              record.Category,
		DisplayName:           record.DisplayName,
		UnitPrice:             record.UnitPrice.String(),
		Currency:              record.Currency,
		RequiresReview:        record.RequiresReview,
		ReviewNotes:           record.ReviewNotes,
		CreatedAt:             formatTime(record.CreatedAt),
		UpdatedAt:             formatTime(record.UpdatedAt),
	}
}
