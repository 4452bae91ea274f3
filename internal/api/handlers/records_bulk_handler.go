// Package handlers implements the HTTP handlers of the hub API. Handlers
// decode and validate request shapes, delegate to services, and map
// service errors to RFC 7807 responses.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/api/response"
	"github.com/labelstack/hub/internal/api/validation"
	"github.com/labelstack/hub/internal/models"
)

// RecordsBulkService defines the interface for bulk record ingestion.
type RecordsBulkService interface {
	CreateRecordsBulk(ctx context.Context, datasetID uuid.UUID, bulk *models.RecordsBulkCreate) (*models.RecordsBulk, error)
	UpsertRecordsBulk(ctx context.Context, datasetID uuid.UUID, bulk *models.RecordsBulkUpsert) (*models.RecordsBulkWithUpdateInfo, error)
	UpdateRecords(ctx context.Context, datasetID uuid.UUID, update *models.RecordsUpdate) (*models.RecordsBulk, error)
}

// RecordsBulkHandler handles the bulk record endpoints.
type RecordsBulkHandler struct {
	service RecordsBulkService
}

// NewRecordsBulkHandler creates a new bulk records handler.
func NewRecordsBulkHandler(service RecordsBulkService) *RecordsBulkHandler {
	return &RecordsBulkHandler{service: service}
}

// Create handles POST /v1/datasets/{dataset_id}/records/bulk.
func (h *RecordsBulkHandler) Create(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDParam(w, r)
	if !ok {
		return
	}

	var bulk models.RecordsBulkCreate
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&bulk); err != nil {
		slog.Warn("Invalid request body", "method", r.Method, "path", r.URL.Path, "error", err)
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&bulk); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	result, err := h.service.CreateRecordsBulk(r.Context(), datasetID, &bulk)
	if err != nil {
		response.RespondDomainError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}

// Upsert handles PUT /v1/datasets/{dataset_id}/records/bulk.
func (h *RecordsBulkHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDParam(w, r)
	if !ok {
		return
	}

	var bulk models.RecordsBulkUpsert
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&bulk); err != nil {
		slog.Warn("Invalid request body", "method", r.Method, "path", r.URL.Path, "error", err)
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&bulk); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	result, err := h.service.UpsertRecordsBulk(r.Context(), datasetID, &bulk)
	if err != nil {
		response.RespondDomainError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Update handles PATCH /v1/datasets/{dataset_id}/records.
func (h *RecordsBulkHandler) Update(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDParam(w, r)
	if !ok {
		return
	}

	var update models.RecordsUpdate
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&update); err != nil {
		slog.Warn("Invalid request body", "method", r.Method, "path", r.URL.Path, "error", err)
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&update); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	result, err := h.service.UpdateRecords(r.Context(), datasetID, &update)
	if err != nil {
		response.RespondDomainError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// datasetIDParam parses the dataset_id route param, writing a 400 on failure.
func datasetIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return uuidParam(w, r, "dataset_id", "Dataset ID")
}

func uuidParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		response.RespondBadRequest(w, label+" is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return uuid.Nil, false
	}

	return id, true
}
