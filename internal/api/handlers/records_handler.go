package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/api/response"
	"github.com/labelstack/hub/internal/api/validation"
	"github.com/labelstack/hub/internal/models"
)

// RecordsService defines the interface for single-record operations.
type RecordsService interface {
	ListRecords(ctx context.Context, datasetID uuid.UUID, limit, offset int) ([]models.Record, error)
	CreateRecordResponse(ctx context.Context, datasetID, recordID uuid.UUID, rc *models.ResponseCreate) (*models.Response, error)
	UpsertRecordSuggestion(ctx context.Context, datasetID, recordID uuid.UUID, sc *models.SuggestionCreate) (*models.Suggestion, error)
}

// RecordsHandler handles record listing.
type RecordsHandler struct {
	service RecordsService
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(service RecordsService) *RecordsHandler {
	return &RecordsHandler{service: service}
}

// listRecordsParams are the query parameters of the record list endpoint.
type listRecordsParams struct {
	Limit  int `form:"limit"  validate:"omitempty,gte=1,lte=500"`
	Offset int `form:"offset" validate:"omitempty,gte=0"`
}

// listRecordsResponse is the record list payload.
type listRecordsResponse struct {
	Items []models.Record `json:"items"`
}

// List handles GET /v1/datasets/{dataset_id}/records.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDParam(w, r)
	if !ok {
		return
	}

	var params listRecordsParams
	if err := validation.ValidateAndDecodeQueryParams(r, &params); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	records, err := h.service.ListRecords(r.Context(), datasetID, params.Limit, params.Offset)
	if err != nil {
		response.RespondDomainError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, listRecordsResponse{Items: records})
}
