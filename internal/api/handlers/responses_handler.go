package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labelstack/hub/internal/api/response"
	"github.com/labelstack/hub/internal/api/validation"
	"github.com/labelstack/hub/internal/models"
)

// ResponsesHandler handles annotator response creation for a record.
type ResponsesHandler struct {
	service RecordsService
}

// NewResponsesHandler creates a new responses handler.
func NewResponsesHandler(service RecordsService) *ResponsesHandler {
	return &ResponsesHandler{service: service}
}

// Create handles POST /v1/datasets/{dataset_id}/records/{record_id}/responses.
func (h *ResponsesHandler) Create(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDParam(w, r)
	if !ok {
		return
	}

	recordID, ok := uuidParam(w, r, "record_id", "Record ID")
	if !ok {
		return
	}

	var rc models.ResponseCreate
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&rc); err != nil {
		slog.Warn("Invalid request body", "method", r.Method, "path", r.URL.Path, "error", err)
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&rc); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	result, err := h.service.CreateRecordResponse(r.Context(), datasetID, recordID, &rc)
	if err != nil {
		response.RespondDomainError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}
