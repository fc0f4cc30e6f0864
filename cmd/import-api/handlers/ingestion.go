// Package handlers provides HTTP handlers for the import API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/puehres/product-import/internal/extract"
	"github.com/puehres/product-import/internal/ingest"
	"github.com/puehres/product-import/internal/observability"
	"github.com/puehres/product-import/internal/supplier"
)

// IngestionHandler handles invoice upload requests.
type IngestionHandler struct {
	logger         *observability.Logger
	pipeline       *ingest.Pipeline
	maxUploadBytes int64
}

// NewIngestionHandler creates a new ingestion handler.
func NewIngestionHandler(logger *observability.Logger, pipeline *ingest.Pipeline, maxUploadBytes int64) *IngestionHandler {
	return &IngestionHandler{
		logger:         logger,
		pipeline:       pipeline,
		maxUploadBytes: maxUploadBytes,
	}
}

// BatchResultDTO is the API response for a completed ingestion.
type BatchResultDTO struct {
	BatchID          string           `json:"batchId"`
	Filename         string           `json:"filename"`
	SHA256           string           `json:"sha256"`
	SupplierID       string           `json:"supplierId"`
	Confidence       float64          `json:"confidence"`
	TotalItems       int              `json:"totalItems"`
	Created          int              `json:"created"`
	SkippedDuplicate int              `json:"skippedDuplicate"`
	FlaggedConflict  int              `json:"flaggedConflict"`
	SkippedNoKey     int              `json:"skippedNoKey"`
	ParseFailures    int              `json:"parseFailures"`
	SuccessRate      float64          `json:"successRate"`
	Failures         []RowFailureDTO  `json:"failures,omitempty"`
	DurationMillis   int64            `json:"durationMillis"`
}

// RowFailureDTO is one row that failed to parse.
type RowFailureDTO struct {
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

// Ingest handles POST /api/v1/invoices. The invoice PDF arrives as a
// multipart upload under the "document" field.
func (h *IngestionHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, header, err := h.readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload", err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload", err.Error())
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "document too large", "")
		return
	}

	h.logger.Info().
		Str("filename", header.Filename).
		Int("bytes", len(data)).
		Msg("Received invoice upload")

	result, err := h.pipeline.Ingest(ctx, header.Filename, data)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, batchResultDTO(result))
}

func (h *IngestionHandler) readUpload(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, nil, err
	}
	return r.FormFile("document")
}

// writeIngestError maps pipeline failures to HTTP statuses. Corrupt
// documents and unknown suppliers are client errors; everything else is
// internal.
func (h *IngestionHandler) writeIngestError(w http.ResponseWriter, err error) {
	var corrupt *extract.CorruptError
	if errors.As(err, &corrupt) {
		writeError(w, http.StatusUnprocessableEntity, "document is not a readable PDF", corrupt.Error())
		return
	}

	var unknown *supplier.UnknownSupplierError
	if errors.As(err, &unknown) {
		WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":              "unknown supplier",
			"detail":             unknown.Error(),
			"supportedSuppliers": unknown.Supported,
		})
		return
	}

	h.logger.Error().Err(err).Msg("Ingestion failed")
	writeError(w, http.StatusInternalServerError, "ingestion failed", err.Error())
}

func batchResultDTO(result *ingest.BatchResult) BatchResultDTO {
	dto := BatchResultDTO{
		BatchID:          result.BatchID.String(),
		Filename:         result.Filename,
		SHA256:           result.SHA256,
		SupplierID:       result.SupplierID,
		Confidence:       result.Confidence,
		TotalItems:       result.TotalItems,
		Created:          result.Created,
		SkippedDuplicate: result.SkippedDuplicate,
		FlaggedConflict:  result.FlaggedConflict,
		SkippedNoKey:     result.SkippedNoKey,
		ParseFailures:    result.ParseFailures,
		SuccessRate:      result.SuccessRate(),
		DurationMillis:   result.Duration.Milliseconds(),
	}
	for _, f := range result.Failures {
		dto.Failures = append(dto.Failures, RowFailureDTO{Position: f.Position, Reason: f.Reason})
	}
	return dto
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	WriteJSON(w, status, resp)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
