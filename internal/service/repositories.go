// Package service implements the orchestration layer of the ingestion
// pipeline: identity resolution, bulk create/upsert/update of records, and
// the single-record response and suggestion operations. Services depend on
// repository interfaces so tests can run against hand-rolled fakes.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/internal/repository"
)

// DatasetsRepository defines the interface for dataset data access.
type DatasetsRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	CreateQuestion(ctx context.Context, datasetID uuid.UUID, qc *models.QuestionCreate) (*models.Question, error)
	DeleteQuestion(ctx context.Context, questionID uuid.UUID) error
}

// RecordsRepository defines the interface for record data access.
type RecordsRepository interface {
	GetByID(ctx context.Context, datasetID, recordID uuid.UUID) (*models.Record, error)
	ListByIDs(ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID) ([]models.Record, error)
	ListByExternalIDs(ctx context.Context, datasetID uuid.UUID, externalIDs []string) ([]models.Record, error)
	ListByDatasetID(ctx context.Context, datasetID uuid.UUID, limit, offset int) ([]models.Record, error)
	InsertMany(ctx context.Context, datasetID uuid.UUID, creates []repository.RecordInsert) ([]models.Record, error)
	UpdateMetadata(ctx context.Context, updates map[uuid.UUID]map[string]any) error
	Touch(ctx context.Context, ids []uuid.UUID) error
	ListWithRelationships(ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID) ([]models.Record, error)
}

// SuggestionsRepository defines the interface for suggestion data access.
type SuggestionsRepository interface {
	UpsertMany(ctx context.Context, upserts []models.SuggestionUpsert) error
	Upsert(ctx context.Context, upsert models.SuggestionUpsert) (*models.Suggestion, error)
	DeleteByRecordIDs(ctx context.Context, recordIDs []uuid.UUID) error
}

// ResponsesRepository defines the interface for response data access.
type ResponsesRepository interface {
	UpsertMany(ctx context.Context, upserts []models.ResponseUpsert) error
	Create(ctx context.Context, upsert models.ResponseUpsert) (*models.Response, error)
}

// VectorsRepository defines the interface for vector data access.
type VectorsRepository interface {
	UpsertMany(ctx context.Context, upserts []models.VectorUpsert) error
}

// UsersRepository defines the interface for annotator account lookups.
type UsersRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}
