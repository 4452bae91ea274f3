package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/internal/search"
	"github.com/labelstack/hub/internal/validators"
	"github.com/labelstack/hub/pkg/database"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// RecordsService handles single-record operations: listing, annotator
// response creation and suggestion upserts. Writes re-index the touched
// record inside the same transaction, like the bulk pipeline does.
type RecordsService struct {
	uow         database.UnitOfWork
	datasets    DatasetsRepository
	records     RecordsRepository
	suggestions SuggestionsRepository
	responses   ResponsesRepository
	users       UsersRepository
	engine      search.Engine
	logger      *slog.Logger
}

// NewRecordsService creates a new records service.
func NewRecordsService(
	uow database.UnitOfWork,
	datasets DatasetsRepository,
	records RecordsRepository,
	suggestions SuggestionsRepository,
	responses ResponsesRepository,
	users UsersRepository,
	engine search.Engine,
	logger *slog.Logger,
) *RecordsService {
	return &RecordsService{
		uow:         uow,
		datasets:    datasets,
		records:     records,
		suggestions: suggestions,
		responses:   responses,
		users:       users,
		engine:      engine,
		logger:      logger,
	}
}

// ListRecords returns a page of a dataset's records with relationships.
func (s *RecordsService) ListRecords(
	ctx context.Context, datasetID uuid.UUID, limit, offset int,
) ([]models.Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offset < 0 {
		offset = 0
	}

	if _, err := s.datasets.GetByID(ctx, datasetID); err != nil {
		return nil, err
	}

	page, err := s.records.ListByDatasetID(ctx, datasetID, limit, offset)
	if err != nil {
		return nil, err
	}

	if len(page) == 0 {
		return []models.Record{}, nil
	}

	return s.records.ListWithRelationships(ctx, datasetID, recordIDs(page))
}

// CreateRecordResponse stores one annotator's response for a record. A second
// response from the same user for the same record is a conflict.
func (s *RecordsService) CreateRecordResponse(
	ctx context.Context, datasetID, recordID uuid.UUID, rc *models.ResponseCreate,
) (*models.Response, error) {
	dataset, err := s.datasets.GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	record, err := s.records.GetByID(ctx, datasetID, recordID)
	if err != nil {
		return nil, err
	}

	record.Dataset = dataset

	if _, err := s.users.GetByID(ctx, rc.UserID); err != nil {
		return nil, err
	}

	if err := validators.ValidateResponseCreate(record, rc); err != nil {
		return nil, err
	}

	var response *models.Response

	err = s.uow.Within(ctx, func(ctx context.Context) error {
		response, err = s.responses.Create(ctx, models.ResponseUpsert{
			RecordID: record.ID,
			UserID:   rc.UserID,
			Values:   rc.Values,
			Status:   rc.Status,
		})
		if err != nil {
			return err
		}

		return s.reindexRecord(ctx, dataset, record.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "response created",
		"dataset_id", datasetID, "record_id", recordID, "user_id", rc.UserID, "status", rc.Status)

	return response, nil
}

// UpsertRecordSuggestion stores or replaces the suggestion for one question
// on one record.
func (s *RecordsService) UpsertRecordSuggestion(
	ctx context.Context, datasetID, recordID uuid.UUID, sc *models.SuggestionCreate,
) (*models.Suggestion, error) {
	dataset, err := s.datasets.GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	record, err := s.records.GetByID(ctx, datasetID, recordID)
	if err != nil {
		return nil, err
	}

	record.Dataset = dataset

	question := dataset.QuestionByID(sc.QuestionID)
	if question == nil {
		return nil, huberrors.NewNotFoundError("question",
			fmt.Sprintf("question with id %s not found", sc.QuestionID))
	}

	settings, err := question.ParsedSettings()
	if err != nil {
		return nil, err
	}

	if err := validators.ValidateSuggestionCreate(settings, record, sc); err != nil {
		return nil, err
	}

	var suggestion *models.Suggestion

	err = s.uow.Within(ctx, func(ctx context.Context) error {
		suggestion, err = s.suggestions.Upsert(ctx, models.SuggestionUpsert{
			RecordID:   record.ID,
			QuestionID: sc.QuestionID,
			Value:      sc.Value,
			Score:      sc.Score,
			Agent:      sc.Agent,
			Type:       sc.Type,
		})
		if err != nil {
			return err
		}

		return s.reindexRecord(ctx, dataset, record.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "suggestion upserted",
		"dataset_id", datasetID, "record_id", recordID, "question_id", sc.QuestionID)

	return suggestion, nil
}

func (s *RecordsService) reindexRecord(ctx context.Context, dataset *models.Dataset, recordID uuid.UUID) error {
	if err := s.records.Touch(ctx, []uuid.UUID{recordID}); err != nil {
		return err
	}

	hydrated, err := s.records.ListWithRelationships(ctx, dataset.ID, []uuid.UUID{recordID})
	if err != nil {
		return err
	}

	return s.engine.IndexRecords(ctx, dataset, hydrated)
}
