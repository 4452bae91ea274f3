package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labelstack/hub/internal/api/response"
	"github.com/labelstack/hub/internal/api/validation"
	"github.com/labelstack/hub/internal/models"
)

// SuggestionsHandler handles suggestion upserts for a record.
type SuggestionsHandler struct {
	service RecordsService
}

// NewSuggestionsHandler creates a new suggestions handler.
func NewSuggestionsHandler(service RecordsService) *SuggestionsHandler {
	return &SuggestionsHandler{service: service}
}

// Upsert handles PUT /v1/datasets/{dataset_id}/records/{record_id}/suggestions.
func (h *SuggestionsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDParam(w, r)
	if !ok {
		return
	}

	recordID, ok := uuidParam(w, r, "record_id", "Record ID")
	if !ok {
		return
	}

	var sc models.SuggestionCreate
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&sc); err != nil {
		slog.Warn("Invalid request body", "method", r.Method, "path", r.URL.Path, "error", err)
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&sc); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	result, err := h.service.UpsertRecordSuggestion(r.Context(), datasetID, recordID, &sc)
	if err != nil {
		response.RespondDomainError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
