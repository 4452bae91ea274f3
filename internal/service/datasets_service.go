package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/internal/validators"
)

// DatasetsService handles dataset schema reads and the question mutations
// allowed on draft datasets.
type DatasetsService struct {
	datasets DatasetsRepository
	logger   *slog.Logger
}

// NewDatasetsService creates a new datasets service.
func NewDatasetsService(datasets DatasetsRepository, logger *slog.Logger) *DatasetsService {
	return &DatasetsService{datasets: datasets, logger: logger}
}

// GetDataset retrieves a dataset with its schema.
func (s *DatasetsService) GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	return s.datasets.GetByID(ctx, id)
}

// CreateQuestion adds a question to a dataset. The dataset must still be a
// draft; a ready dataset's schema is frozen.
func (s *DatasetsService) CreateQuestion(
	ctx context.Context, datasetID uuid.UUID, qc *models.QuestionCreate,
) (*models.Question, error) {
	dataset, err := s.datasets.GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	if err := validators.ValidateQuestionCreate(dataset, qc); err != nil {
		return nil, err
	}

	question, err := s.datasets.CreateQuestion(ctx, datasetID, qc)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "question created",
		"dataset_id", datasetID, "question_id", question.ID, "name", question.Name)

	return question, nil
}

// DeleteQuestion removes a question from a draft dataset.
func (s *DatasetsService) DeleteQuestion(ctx context.Context, datasetID, questionID uuid.UUID) error {
	dataset, err := s.datasets.GetByID(ctx, datasetID)
	if err != nil {
		return err
	}

	if err := validators.ValidateQuestionDelete(dataset); err != nil {
		return err
	}

	if dataset.QuestionByID(questionID) == nil {
		return huberrors.NewNotFoundError("question",
			fmt.Sprintf("question with id %s not found", questionID))
	}

	if err := s.datasets.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "question deleted",
		"dataset_id", datasetID, "question_id", questionID)

	return nil
}
