package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/internal/repository"
)

// fakeUnitOfWork runs the callback directly; beginCalls counts transactions.
type fakeUnitOfWork struct {
	beginCalls int
}

func (u *fakeUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	u.beginCalls++

	return fn(ctx)
}

type fakeDatasetsRepo struct {
	dataset *models.Dataset

	createdQuestions []models.QuestionCreate
	deletedQuestions []uuid.UUID
}

func (r *fakeDatasetsRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Dataset, error) {
	if r.dataset == nil || r.dataset.ID != id {
		return nil, huberrors.NewNotFoundError("dataset", fmt.Sprintf("dataset with id %s not found", id))
	}

	return r.dataset, nil
}

func (r *fakeDatasetsRepo) CreateQuestion(
	_ context.Context, datasetID uuid.UUID, qc *models.QuestionCreate,
) (*models.Question, error) {
	r.createdQuestions = append(r.createdQuestions, *qc)
	now := time.Now().UTC()

	return &models.Question{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        qc.Name,
		Title:       qc.Title,
		Description: qc.Description,
		Required:    qc.Required,
		Settings:    qc.Settings,
		DatasetID:   datasetID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (r *fakeDatasetsRepo) DeleteQuestion(_ context.Context, questionID uuid.UUID) error {
	r.deletedQuestions = append(r.deletedQuestions, questionID)

	return nil
}

// fakeRecordsRepo keeps records in a map and mimics the dataset-scoped reads
// of the real repository.
type fakeRecordsRepo struct {
	records map[uuid.UUID]*models.Record

	insertErr   error
	touched     [][]uuid.UUID
	metadataSet []map[uuid.UUID]map[string]any
}

func newFakeRecordsRepo(records ...*models.Record) *fakeRecordsRepo {
	repo := &fakeRecordsRepo{records: make(map[uuid.UUID]*models.Record)}
	for _, rec := range records {
		repo.records[rec.ID] = rec
	}

	return repo
}

func (r *fakeRecordsRepo) GetByID(_ context.Context, datasetID, recordID uuid.UUID) (*models.Record, error) {
	rec, ok := r.records[recordID]
	if !ok || rec.DatasetID != datasetID {
		return nil, huberrors.NewNotFoundError("record", fmt.Sprintf("record with id %s not found", recordID))
	}

	clone := *rec

	return &clone, nil
}

func (r *fakeRecordsRepo) ListByIDs(_ context.Context, datasetID uuid.UUID, ids []uuid.UUID) ([]models.Record, error) {
	var out []models.Record

	for _, id := range ids {
		if rec, ok := r.records[id]; ok && rec.DatasetID == datasetID {
			out = append(out, *rec)
		}
	}

	return out, nil
}

func (r *fakeRecordsRepo) ListByExternalIDs(
	_ context.Context, datasetID uuid.UUID, externalIDs []string,
) ([]models.Record, error) {
	wanted := make(map[string]struct{}, len(externalIDs))
	for _, id := range externalIDs {
		wanted[id] = struct{}{}
	}

	var out []models.Record

	for _, rec := range r.records {
		if rec.DatasetID != datasetID || rec.ExternalID == nil {
			continue
		}

		if _, ok := wanted[*rec.ExternalID]; ok {
			out = append(out, *rec)
		}
	}

	return out, nil
}

func (r *fakeRecordsRepo) ListByDatasetID(
	_ context.Context, datasetID uuid.UUID, limit, offset int,
) ([]models.Record, error) {
	var all []models.Record

	for _, rec := range r.records {
		if rec.DatasetID == datasetID {
			all = append(all, *rec)
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}

	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}

	return all, nil
}

func (r *fakeRecordsRepo) InsertMany(
	_ context.Context, datasetID uuid.UUID, creates []repository.RecordInsert,
) ([]models.Record, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}

	now := time.Now().UTC()
	out := make([]models.Record, 0, len(creates))

	for _, c := range creates {
		rec := models.Record{
			ID:         uuid.Must(uuid.NewV7()),
			Fields:     c.Fields,
			Metadata:   c.Metadata,
			ExternalID: c.ExternalID,
			DatasetID:  datasetID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		r.records[rec.ID] = &rec
		out = append(out, rec)
	}

	return out, nil
}

func (r *fakeRecordsRepo) UpdateMetadata(_ context.Context, updates map[uuid.UUID]map[string]any) error {
	r.metadataSet = append(r.metadataSet, updates)

	for id, metadata := range updates {
		if rec, ok := r.records[id]; ok {
			rec.Metadata = metadata
		}
	}

	return nil
}

func (r *fakeRecordsRepo) Touch(_ context.Context, ids []uuid.UUID) error {
	r.touched = append(r.touched, ids)

	return nil
}

func (r *fakeRecordsRepo) ListWithRelationships(
	ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID,
) ([]models.Record, error) {
	return r.ListByIDs(ctx, datasetID, ids)
}

type fakeSuggestionsRepo struct {
	upserted []models.SuggestionUpsert
	cleared  [][]uuid.UUID
}

func (r *fakeSuggestionsRepo) UpsertMany(_ context.Context, upserts []models.SuggestionUpsert) error {
	r.upserted = append(r.upserted, upserts...)

	return nil
}

func (r *fakeSuggestionsRepo) Upsert(_ context.Context, upsert models.SuggestionUpsert) (*models.Suggestion, error) {
	r.upserted = append(r.upserted, upsert)
	now := time.Now().UTC()

	return &models.Suggestion{
		ID:         uuid.Must(uuid.NewV7()),
		Value:      upsert.Value,
		Score:      upsert.Score,
		Agent:      upsert.Agent,
		Type:       upsert.Type,
		QuestionID: upsert.QuestionID,
		RecordID:   upsert.RecordID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (r *fakeSuggestionsRepo) DeleteByRecordIDs(_ context.Context, recordIDs []uuid.UUID) error {
	if len(recordIDs) > 0 {
		r.cleared = append(r.cleared, recordIDs)
	}

	return nil
}

type fakeResponsesRepo struct {
	upserted  []models.ResponseUpsert
	createErr error
}

func (r *fakeResponsesRepo) UpsertMany(_ context.Context, upserts []models.ResponseUpsert) error {
	r.upserted = append(r.upserted, upserts...)

	return nil
}

func (r *fakeResponsesRepo) Create(_ context.Context, upsert models.ResponseUpsert) (*models.Response, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}

	r.upserted = append(r.upserted, upsert)
	now := time.Now().UTC()

	return &models.Response{
		ID:        uuid.Must(uuid.NewV7()),
		Values:    upsert.Values,
		Status:    upsert.Status,
		RecordID:  upsert.RecordID,
		UserID:    upsert.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type fakeVectorsRepo struct {
	upserted []models.VectorUpsert
}

func (r *fakeVectorsRepo) UpsertMany(_ context.Context, upserts []models.VectorUpsert) error {
	r.upserted = append(r.upserted, upserts...)

	return nil
}

type fakeUsersRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo {
	repo := &fakeUsersRepo{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}

	return repo
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, huberrors.NewNotFoundError("user", fmt.Sprintf("user with id %s not found", id))
	}

	return user, nil
}

func (r *fakeUsersRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	var out []models.User

	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			out = append(out, *user)
		}
	}

	return out, nil
}

// fakeEngine records index calls and optionally fails them.
type fakeEngine struct {
	indexErr error

	indexed [][]models.Record
}

func (e *fakeEngine) IndexRecords(_ context.Context, _ *models.Dataset, records []models.Record) error {
	if e.indexErr != nil {
		return e.indexErr
	}

	e.indexed = append(e.indexed, records)

	return nil
}

func (e *fakeEngine) DeleteRecords(_ context.Context, _ *models.Dataset, _ []uuid.UUID) error {
	return nil
}
