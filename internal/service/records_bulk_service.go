package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/internal/observability"
	"github.com/labelstack/hub/internal/repository"
	"github.com/labelstack/hub/internal/search"
	"github.com/labelstack/hub/internal/validators"
	"github.com/labelstack/hub/pkg/database"
)

// RecordsBulkService orchestrates the bulk ingestion pipeline. Every bulk
// operation is all-or-nothing: validation runs first, all writes share one
// transaction, and the search index write happens inside the transaction
// scope so an index failure rolls the relational writes back.
type RecordsBulkService struct {
	uow         database.UnitOfWork
	datasets    DatasetsRepository
	records     RecordsRepository
	suggestions SuggestionsRepository
	responses   ResponsesRepository
	vectors     VectorsRepository
	users       UsersRepository
	engine      search.Engine
	metrics     observability.IngestMetrics
	logger      *slog.Logger
}

// NewRecordsBulkService creates a new bulk records service. metrics may be
// nil (no ingest metrics recorded).
func NewRecordsBulkService(
	uow database.UnitOfWork,
	datasets DatasetsRepository,
	records RecordsRepository,
	suggestions SuggestionsRepository,
	responses ResponsesRepository,
	vectors VectorsRepository,
	users UsersRepository,
	engine search.Engine,
	metrics observability.IngestMetrics,
	logger *slog.Logger,
) *RecordsBulkService {
	return &RecordsBulkService{
		uow:         uow,
		datasets:    datasets,
		records:     records,
		suggestions: suggestions,
		responses:   responses,
		vectors:     vectors,
		users:       users,
		engine:      engine,
		metrics:     metrics,
		logger:      logger,
	}
}

// CreateRecordsBulk creates a batch of records with their suggestions,
// responses and vectors. The whole batch succeeds or nothing is written.
func (s *RecordsBulkService) CreateRecordsBulk(
	ctx context.Context, datasetID uuid.UUID, bulk *models.RecordsBulkCreate,
) (*models.RecordsBulk, error) {
	dataset, err := s.datasets.GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	var result *models.RecordsBulk

	err = s.uow.Within(ctx, func(ctx context.Context) error {
		validator := validators.NewRecordsBulkCreateValidator(s.records)
		if err := validator.Validate(ctx, dataset, bulk); err != nil {
			return err
		}

		inserts := make([]repository.RecordInsert, 0, len(bulk.Items))
		for i := range bulk.Items {
			item := &bulk.Items[i]
			inserts = append(inserts,
				repository.NewRecordInsert(item.Fields, item.Metadata.ValueOrZero(), item.ExternalID))
		}

		records, err := s.records.InsertMany(ctx, datasetID, inserts)
		if err != nil {
			return err
		}

		changes := make([]recordChange, len(bulk.Items))
		for i := range bulk.Items {
			records[i].Dataset = dataset
			changes[i] = recordChange{
				position:    i,
				record:      &records[i],
				suggestions: bulk.Items[i].Suggestions,
				responses:   bulk.Items[i].Responses,
				vectors:     bulk.Items[i].Vectors,
			}
		}

		plans, err := s.buildRelationshipPlans(ctx, dataset, changes)
		if err != nil {
			return err
		}

		if err := s.applyPlans(ctx, plans); err != nil {
			return err
		}

		hydrated, err := s.records.ListWithRelationships(ctx, datasetID, recordIDs(records))
		if err != nil {
			return err
		}

		if err := s.indexRecords(ctx, dataset, hydrated); err != nil {
			return err
		}

		result = &models.RecordsBulk{Items: hydrated}

		return nil
	})
	if err != nil {
		s.countBulkError(ctx, "create")

		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordRecordsCreated(ctx, len(result.Items))
	}

	s.logger.InfoContext(ctx, "records bulk created",
		"dataset_id", datasetID, "count", len(result.Items))

	return result, nil
}

// UpsertRecordsBulk creates or updates a batch of records. Identity is
// resolved external id first, then server id. The result keeps the input
// order and reports which items matched existing records.
func (s *RecordsBulkService) UpsertRecordsBulk(
	ctx context.Context, datasetID uuid.UUID, bulk *models.RecordsBulkUpsert,
) (*models.RecordsBulkWithUpdateInfo, error) {
	dataset, err := s.datasets.GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	var result *models.RecordsBulkWithUpdateInfo

	err = s.uow.Within(ctx, func(ctx context.Context) error {
		resolved, err := resolveExisting(ctx, s.records, datasetID, bulk.Items)
		if err != nil {
			return err
		}

		if err := validators.ValidateRecordsBulkUpsert(dataset, bulk, resolved); err != nil {
			return err
		}

		inserts := make([]repository.RecordInsert, 0, len(bulk.Items))
		for i := range bulk.Items {
			if resolved[i] != nil {
				continue
			}

			item := &bulk.Items[i]
			inserts = append(inserts,
				repository.NewRecordInsert(item.Fields, item.Metadata.ValueOrZero(), item.ExternalID))
		}

		created, err := s.records.InsertMany(ctx, datasetID, inserts)
		if err != nil {
			return err
		}

		all := make([]*models.Record, len(bulk.Items))
		updatedIDs := make([]uuid.UUID, 0, len(bulk.Items))
		metadataUpdates := make(map[uuid.UUID]map[string]any)
		nextCreated := 0

		for i := range bulk.Items {
			item := &bulk.Items[i]

			if resolved[i] == nil {
				all[i] = &created[nextCreated]
				nextCreated++
			} else {
				rec := resolved[i]
				updatedIDs = append(updatedIDs, rec.ID)

				// updated_at moves only when metadata is explicitly supplied;
				// a matched item without metadata leaves the record row alone.
				if item.Metadata.IsSet() {
					rec.Metadata = item.Metadata.ValueOrZero()
					metadataUpdates[rec.ID] = rec.Metadata
				}

				all[i] = rec
			}

			all[i].Dataset = dataset
		}

		if err := s.records.UpdateMetadata(ctx, metadataUpdates); err != nil {
			return err
		}

		changes := make([]recordChange, len(bulk.Items))
		for i := range bulk.Items {
			item := &bulk.Items[i]
			changes[i] = recordChange{
				position: i,
				record:   all[i],
				// A non-nil suggestion list on an existing record replaces
				// everything; nil leaves the stored suggestions untouched.
				replaceSuggestions: resolved[i] != nil && item.Suggestions != nil,
				suggestions:        item.Suggestions,
				responses:          item.Responses,
				vectors:            item.Vectors,
			}
		}

		plans, err := s.buildRelationshipPlans(ctx, dataset, changes)
		if err != nil {
			return err
		}

		if err := s.applyPlans(ctx, plans); err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(all))
		for i := range all {
			ids[i] = all[i].ID
		}

		hydrated, err := s.records.ListWithRelationships(ctx, datasetID, ids)
		if err != nil {
			return err
		}

		if err := s.indexRecords(ctx, dataset, hydrated); err != nil {
			return err
		}

		result = &models.RecordsBulkWithUpdateInfo{Items: hydrated, UpdatedItemIDs: updatedIDs}

		return nil
	})
	if err != nil {
		s.countBulkError(ctx, "upsert")

		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordRecordsCreated(ctx, len(result.Items)-len(result.UpdatedItemIDs))
		s.metrics.RecordRecordsUpdated(ctx, len(result.UpdatedItemIDs))
	}

	s.logger.InfoContext(ctx, "records bulk upserted",
		"dataset_id", datasetID,
		"created", len(result.Items)-len(result.UpdatedItemIDs),
		"updated", len(result.UpdatedItemIDs))

	return result, nil
}

// UpdateRecords updates a batch of existing records addressed by server id.
// Only metadata, suggestions and vectors can change; fields are immutable.
// Every id must exist and appear once, otherwise nothing is written.
func (s *RecordsBulkService) UpdateRecords(
	ctx context.Context, datasetID uuid.UUID, update *models.RecordsUpdate,
) (*models.RecordsBulk, error) {
	dataset, err := s.datasets.GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	var result *models.RecordsBulk

	err = s.uow.Within(ctx, func(ctx context.Context) error {
		ids := make([]uuid.UUID, 0, len(update.Items))
		seen := make(map[uuid.UUID]struct{}, len(update.Items))

		for i := range update.Items {
			id := update.Items[i].ID
			if _, dup := seen[id]; dup {
				return huberrors.NewConflictError("found duplicate records IDs")
			}

			seen[id] = struct{}{}
			ids = append(ids, id)
		}

		existing, err := s.records.ListByIDs(ctx, datasetID, ids)
		if err != nil {
			return err
		}

		byID := make(map[uuid.UUID]*models.Record, len(existing))
		for i := range existing {
			byID[existing[i].ID] = &existing[i]
		}

		var missing []string

		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id.String())
			}
		}

		if len(missing) > 0 {
			return huberrors.NewNotFoundError("record",
				"found records that do not exist: "+strings.Join(missing, ", "))
		}

		for i := range update.Items {
			if err := validators.ValidateRecordUpdate(dataset, &update.Items[i]); err != nil {
				return validators.WrapRecordPositionError(i, err)
			}
		}

		metadataUpdates := make(map[uuid.UUID]map[string]any)
		changes := make([]recordChange, len(update.Items))

		for i := range update.Items {
			item := &update.Items[i]
			rec := byID[item.ID]
			rec.Dataset = dataset

			// Same contract as upsert: updated_at moves only for items that
			// explicitly supply metadata.
			if item.Metadata.IsSet() {
				rec.Metadata = item.Metadata.ValueOrZero()
				metadataUpdates[rec.ID] = rec.Metadata
			}

			changes[i] = recordChange{
				position:           i,
				record:             rec,
				replaceSuggestions: item.Suggestions != nil,
				suggestions:        item.Suggestions,
				vectors:            item.Vectors,
			}
		}

		if err := s.records.UpdateMetadata(ctx, metadataUpdates); err != nil {
			return err
		}

		plans, err := s.buildRelationshipPlans(ctx, dataset, changes)
		if err != nil {
			return err
		}

		if err := s.applyPlans(ctx, plans); err != nil {
			return err
		}

		hydrated, err := s.records.ListWithRelationships(ctx, datasetID, ids)
		if err != nil {
			return err
		}

		if err := s.indexRecords(ctx, dataset, hydrated); err != nil {
			return err
		}

		result = &models.RecordsBulk{Items: hydrated}

		return nil
	})
	if err != nil {
		s.countBulkError(ctx, "update")

		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordRecordsUpdated(ctx, len(result.Items))
	}

	s.logger.InfoContext(ctx, "records bulk updated",
		"dataset_id", datasetID, "count", len(result.Items))

	return result, nil
}

// recordChange is one batch item after identity resolution: the persisted
// record plus the relationship payloads to apply to it.
type recordChange struct {
	position           int
	record             *models.Record
	suggestions        []models.SuggestionCreate
	replaceSuggestions bool
	responses          []models.ResponseCreate
	vectors            map[string][]float32
}

// relationshipPlans holds the validated relationship rows of a whole batch,
// ready to apply on the transaction.
type relationshipPlans struct {
	clearSuggestionsFor []uuid.UUID
	suggestions         []models.SuggestionUpsert
	responses           []models.ResponseUpsert
	vectors             []models.VectorUpsert
}

// buildRelationshipPlans validates and assembles the suggestion, response and
// vector rows of a batch. The three plans are built concurrently and joined
// before any write; a pgx transaction is not safe for concurrent use, so the
// SQL itself is applied sequentially afterwards.
func (s *RecordsBulkService) buildRelationshipPlans(
	ctx context.Context, dataset *models.Dataset, changes []recordChange,
) (*relationshipPlans, error) {
	plans := &relationshipPlans{}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var err error
		plans.clearSuggestionsFor, plans.suggestions, err = buildSuggestionsPlan(dataset, changes)

		return err
	})

	group.Go(func() error {
		var err error
		plans.responses, err = s.buildResponsesPlan(groupCtx, changes)

		return err
	})

	group.Go(func() error {
		var err error
		plans.vectors, err = buildVectorsPlan(dataset, changes)

		return err
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return plans, nil
}

func buildSuggestionsPlan(
	dataset *models.Dataset, changes []recordChange,
) (clear []uuid.UUID, rows []models.SuggestionUpsert, err error) {
	for i := range changes {
		change := &changes[i]

		if change.replaceSuggestions {
			clear = append(clear, change.record.ID)
		}

		for j := range change.suggestions {
			sc := &change.suggestions[j]

			question := dataset.QuestionByID(sc.QuestionID)
			if question == nil {
				return nil, nil, validators.WrapRecordPositionError(change.position,
					suggestionError(sc.QuestionID, fmt.Errorf("question with id %s not found", sc.QuestionID)))
			}

			settings, err := question.ParsedSettings()
			if err != nil {
				return nil, nil, validators.WrapRecordPositionError(change.position,
					suggestionError(sc.QuestionID, err))
			}

			if err := validators.ValidateSuggestionCreate(settings, change.record, sc); err != nil {
				return nil, nil, validators.WrapRecordPositionError(change.position,
					suggestionError(sc.QuestionID, err))
			}

			rows = append(rows, models.SuggestionUpsert{
				RecordID:   change.record.ID,
				QuestionID: sc.QuestionID,
				Value:      sc.Value,
				Score:      sc.Score,
				Agent:      sc.Agent,
				Type:       sc.Type,
			})
		}
	}

	return clear, rows, nil
}

func suggestionError(questionID uuid.UUID, err error) error {
	return huberrors.NewValidationErrorf("suggestion for question_id=%s is not valid: %v", questionID, err)
}

func (s *RecordsBulkService) buildResponsesPlan(
	ctx context.Context, changes []recordChange,
) ([]models.ResponseUpsert, error) {
	userIDs := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]struct{})

	for i := range changes {
		for j := range changes[i].responses {
			id := changes[i].responses[j].UserID
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				userIDs = append(userIDs, id)
			}
		}
	}

	known := make(map[uuid.UUID]struct{}, len(userIDs))

	if len(userIDs) > 0 {
		users, err := s.users.ListByIDs(ctx, userIDs)
		if err != nil {
			return nil, fmt.Errorf("list response users: %w", err)
		}

		for i := range users {
			known[users[i].ID] = struct{}{}
		}
	}

	var rows []models.ResponseUpsert

	for i := range changes {
		change := &changes[i]

		for j := range change.responses {
			rc := &change.responses[j]

			if _, ok := known[rc.UserID]; !ok {
				return nil, validators.WrapRecordPositionError(change.position,
					huberrors.NewNotFoundError("user", fmt.Sprintf("user with id %s not found", rc.UserID)))
			}

			if err := validators.ValidateResponseCreate(change.record, rc); err != nil {
				return nil, validators.WrapRecordPositionError(change.position, err)
			}

			rows = append(rows, models.ResponseUpsert{
				RecordID: change.record.ID,
				UserID:   rc.UserID,
				Values:   rc.Values,
				Status:   rc.Status,
			})
		}
	}

	return rows, nil
}

func buildVectorsPlan(dataset *models.Dataset, changes []recordChange) ([]models.VectorUpsert, error) {
	var rows []models.VectorUpsert

	for i := range changes {
		change := &changes[i]

		for _, name := range sortedVectorNames(change.vectors) {
			value := change.vectors[name]

			settings := dataset.VectorSettingsByName(name)
			if settings == nil {
				return nil, validators.WrapRecordPositionError(change.position,
					vectorError(name, fmt.Errorf("vector settings with name=%s not found for dataset %s", name, dataset.ID)))
			}

			if err := validators.ValidateVector(settings, value); err != nil {
				return nil, validators.WrapRecordPositionError(change.position, vectorError(name, err))
			}

			rows = append(rows, models.VectorUpsert{
				RecordID:         change.record.ID,
				VectorSettingsID: settings.ID,
				Value:            value,
			})
		}
	}

	return rows, nil
}

func vectorError(name string, err error) error {
	return huberrors.NewValidationErrorf("vector with name=%s is not valid: %v", name, err)
}

func sortedVectorNames(vectors map[string][]float32) []string {
	names := make([]string, 0, len(vectors))
	for name := range vectors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (s *RecordsBulkService) applyPlans(ctx context.Context, plans *relationshipPlans) error {
	if err := s.suggestions.DeleteByRecordIDs(ctx, plans.clearSuggestionsFor); err != nil {
		return err
	}

	if err := s.suggestions.UpsertMany(ctx, plans.suggestions); err != nil {
		return err
	}

	if err := s.responses.UpsertMany(ctx, plans.responses); err != nil {
		return err
	}

	return s.vectors.UpsertMany(ctx, plans.vectors)
}

func (s *RecordsBulkService) indexRecords(ctx context.Context, dataset *models.Dataset, records []models.Record) error {
	if err := s.engine.IndexRecords(ctx, dataset, records); err != nil {
		if s.metrics != nil {
			s.metrics.RecordIndexFailure(ctx)
		}

		return err
	}

	return nil
}

func (s *RecordsBulkService) countBulkError(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordBulkError(ctx, operation)
	}
}

func recordIDs(records []models.Record) []uuid.UUID {
	ids := make([]uuid.UUID, len(records))
	for i := range records {
		ids[i] = records[i].ID
	}

	return ids
}
