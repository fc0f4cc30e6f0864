package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/puehres/product-import/internal/observability"
	"github.com/puehres/product-import/internal/storage"
)

// BatchesHandler serves ingestion batch history.
type BatchesHandler struct {
	logger  *observability.Logger
	batches *storage.BatchRepository
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(logger *observability.Logger, batches *storage.BatchRepository) *BatchesHandler {
	return &BatchesHandler{logger: logger, batches: batches}
}

// BatchDTO is the API representation of an ingestion batch.
type BatchDTO struct {
	ID               string  `json:"id"`
	Filename         string  `json:"filename"`
	SHA256           string  `json:"sha256"`
	SupplierID       string  `json:"supplierId,omitempty"`
	Status           string  `json:"status"`
	TotalItems       int     `json:"totalItems"`
	Created          int     `json:"created"`
	SkippedDuplicate int     `json:"skippedDuplicate"`
	FlaggedConflict  int     `json:"flaggedConflict"`
	SkippedNoKey     int     `json:"skippedNoKey"`
	ParseFailures    int     `json:"parseFailures"`
	SuccessRate      float64 `json:"successRate"`
	StartedAt        string  `json:"startedAt"`
	CompletedAt      *string `json:"completedAt,omitempty"`
}

const defaultBatchLimit = 50

// List handles GET /api/v1/batches.
func (h *BatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultBatchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit", v)
			return
		}
		limit = parsed
	}

	batches, err := h.batches.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list batches")
		writeError(w, http.StatusInternalServerError, "list batches", err.Error())
		return
	}

	dtos := make([]BatchDTO, 0, len(batches))
	for _, batch := range batches {
		dtos = append(dtos, batchDTO(batch))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"batches": dtos})
}

func batchDTO(batch *storage.IngestionBatch) BatchDTO {
	dto := BatchDTO{
		ID:               batch.ID.String(),
		Filename:         batch.Filename,
		SHA256:           batch.SHA256,
		SupplierID:       batch.SupplierID,
		Status:           string(batch.Status),
		TotalItems:       batch.TotalItems,
		Created:          batch.Created,
		SkippedDuplicate: batch.SkippedDuplicate,
		FlaggedConflict:  batch.FlaggedConflict,
		SkippedNoKey:     batch.SkippedNoKey,
		ParseFailures:    batch.ParseFailures,
		SuccessRate:      batch.SuccessRate,
		StartedAt:        formatTime(batch.StartedAt),
	}
	if batch.CompletedAt != nil {
		completed := formatTime(*batch.CompletedAt)
		dto.CompletedAt = &completed
	}
	return dto
}

// pathParam reads a chi URL parameter.
func pathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// decodeJSON decodes a JSON request body.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
