package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/api/response"
	"github.com/labelstack/hub/internal/api/validation"
	"github.com/labelstack/hub/internal/models"
)

// DatasetsService defines the interface for dataset schema operations.
type DatasetsService interface {
	GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	CreateQuestion(ctx context.Context, datasetID uuid.UUID, qc *models.QuestionCreate) (*models.Question, error)
	DeleteQuestion(ctx context.Context, datasetID, questionID uuid.UUID) error
}

// QuestionsHandler handles question mutations on draft datasets.
type QuestionsHandler struct {
	service DatasetsService
}

// NewQuestionsHandler creates a new questions handler.
func NewQuestionsHandler(service DatasetsService) *QuestionsHandler {
	return &QuestionsHandler{service: service}
}

// Create handles POST /v1/datasets/{dataset_id}/questions.
func (h *QuestionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDParam(w, r)
	if !ok {
		return
	}

	var qc models.QuestionCreate
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&qc); err != nil {
		slog.Warn("Invalid request body", "method", r.Method, "path", r.URL.Path, "error", err)
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&qc); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	question, err := h.service.CreateQuestion(r.Context(), datasetID, &qc)
	if err != nil {
		response.RespondDomainError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, question)
}

// Delete handles DELETE /v1/datasets/{dataset_id}/questions/{question_id}.
func (h *QuestionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDParam(w, r)
	if !ok {
		return
	}

	questionID, ok := uuidParam(w, r, "question_id", "Question ID")
	if !ok {
		return
	}

	if err := h.service.DeleteQuestion(r.Context(), datasetID, questionID); err != nil {
		response.RespondDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /v1/datasets/{dataset_id}.
func (h *QuestionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := datasetIDParam(w, r)
	if !ok {
		return
	}

	dataset, err := h.service.GetDataset(r.Context(), datasetID)
	if err != nil {
		response.RespondDomainError(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, dataset)
}
