package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/pkg/database"
)

// RecordsRepository handles data access for records.
type RecordsRepository struct {
	db database.Querier
}

// NewRecordsRepository creates a new records repository.
func NewRecordsRepository(db database.Querier) *RecordsRepository {
	return &RecordsRepository{db: db}
}

const recordColumns = `id, fields, metadata, external_id, dataset_id, created_at, updated_at`

func scanRecord(row pgx.CollectableRow) (models.Record, error) {
	var rec models.Record
	err := row.Scan(&rec.ID, &rec.Fields, &rec.Metadata, &rec.ExternalID,
		&rec.DatasetID, &rec.CreatedAt, &rec.UpdatedAt)

	return rec, err
}

// GetByID retrieves a single record scoped to a dataset.
func (r *RecordsRepository) GetByID(ctx context.Context, datasetID, recordID uuid.UUID) (*models.Record, error) {
	q := database.QuerierFrom(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+recordColumns+`
		FROM records
		WHERE dataset_id = $1 AND id = $2
	`, datasetID, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	rec, err := pgx.CollectExactlyOneRow(rows, scanRecord)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, huberrors.NewNotFoundError("record", fmt.Sprintf("record with id %s not found", recordID))
		}

		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	return &rec, nil
}

// ListByIDs returns the records of a dataset matching the given ids, in no
// particular order. Missing ids are simply absent from the result.
func (r *RecordsRepository) ListByIDs(ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID) ([]models.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := database.QuerierFrom(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+recordColumns+`
		FROM records
		WHERE dataset_id = $1 AND id = ANY($2)
	`, datasetID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list records by ids: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}

	return records, nil
}

// ListByExternalIDs returns the records of a dataset matching the given
// external ids, in no particular order.
func (r *RecordsRepository) ListByExternalIDs(
	ctx context.Context, datasetID uuid.UUID, externalIDs []string,
) ([]models.Record, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}

	q := database.QuerierFrom(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+recordColumns+`
		FROM records
		WHERE dataset_id = $1 AND external_id = ANY($2)
	`, datasetID, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list records by external ids: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}

	return records, nil
}

// ListByDatasetID returns a page of a dataset's records ordered by insertion.
func (r *RecordsRepository) ListByDatasetID(
	ctx context.Context, datasetID uuid.UUID, limit, offset int,
) ([]models.Record, error) {
	q := database.QuerierFrom(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+recordColumns+`
		FROM records
		WHERE dataset_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, datasetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}

	return records, nil
}

// InsertMany inserts records in a single batch, assigning ids and timestamps
// client-side so the returned slice is complete without a round trip per row.
func (r *RecordsRepository) InsertMany(
	ctx context.Context, datasetID uuid.UUID, creates []RecordInsert,
) ([]models.Record, error) {
	q := database.QuerierFrom(ctx, r.db)
	now := time.Now().UTC()

	records := make([]models.Record, 0, len(creates))
	batch := &pgx.Batch{}

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
		records = append(records, rec)

		batch.Queue(`
			INSERT INTO records (id, fields, metadata, external_id, dataset_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, rec.ID, rec.Fields, rec.Metadata, rec.ExternalID, rec.DatasetID, rec.CreatedAt, rec.UpdatedAt)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	for range creates {
		if _, err := br.Exec(); err != nil {
			if isUniqueViolation(err) {
				return nil, huberrors.NewConflictError("found records with the same external id in the dataset")
			}

			return nil, fmt.Errorf("failed to insert records: %w", err)
		}
	}

	return records, nil
}

// RecordInsert is the minimal shape InsertMany needs; the service layer maps
// request types into it after validation.
type RecordInsert struct {
	Fields     map[string]*string
	Metadata   map[string]any
	ExternalID *string
}

// NewRecordInsert builds an insert row.
func NewRecordInsert(fields map[string]*string, metadata map[string]any, externalID *string) RecordInsert {
	return RecordInsert{Fields: fields, Metadata: metadata, ExternalID: externalID}
}

// UpdateMetadata replaces the metadata of existing records and bumps their
// updated_at. Fields are immutable after creation so nothing else changes.
func (r *RecordsRepository) UpdateMetadata(ctx context.Context, updates map[uuid.UUID]map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	q := database.QuerierFrom(ctx, r.db)
	now := time.Now().UTC()

	batch := &pgx.Batch{}
	for id, metadata := range updates {
		batch.Queue(`
			UPDATE records
			SET metadata = $2, updated_at = $3
			WHERE id = $1
		`, id, metadata, now)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	for range updates {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to update record metadata: %w", err)
		}
	}

	return nil
}

// Touch bumps updated_at on records whose relationships changed without any
// change to the record row itself.
func (r *RecordsRepository) Touch(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	q := database.QuerierFrom(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE records
		SET updated_at = $2
		WHERE id = ANY($1)
	`, ids, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to touch records: %w", err)
	}

	return nil
}

// ListWithRelationships loads records by id with their suggestions, responses
// and vectors hydrated, preserving the order of the given ids.
func (r *RecordsRepository) ListWithRelationships(
	ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID,
) ([]models.Record, error) {
	records, err := r.ListByIDs(ctx, datasetID, ids)
	if err != nil {
		return nil, err
	}

	q := database.QuerierFrom(ctx, r.db)

	byID := make(map[uuid.UUID]*models.Record, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}

	rows, err := q.Query(ctx, `
		SELECT id, value, score, agent, type, question_id, record_id, created_at, updated_at
		FROM suggestions
		WHERE record_id = ANY($1)
		ORDER BY created_at ASC
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}

	suggestions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Suggestion, error) {
		var s models.Suggestion
		err := row.Scan(&s.ID, &s.Value, &s.Score, &s.Agent, &s.Type, &s.QuestionID, &s.RecordID, &s.CreatedAt, &s.UpdatedAt)

		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan suggestions: %w", err)
	}

	for _, s := range suggestions {
		if rec := byID[s.RecordID]; rec != nil {
			rec.Suggestions = append(rec.Suggestions, s)
		}
	}

	rows, err = q.Query(ctx, `
		SELECT id, values, status, record_id, user_id, created_at, updated_at
		FROM responses
		WHERE record_id = ANY($1)
		ORDER BY created_at ASC
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	responses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Response, error) {
		var resp models.Response
		err := row.Scan(&resp.ID, &resp.Values, &resp.Status, &resp.RecordID, &resp.UserID, &resp.CreatedAt, &resp.UpdatedAt)

		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan responses: %w", err)
	}

	for _, resp := range responses {
		if rec := byID[resp.RecordID]; rec != nil {
			rec.Responses = append(rec.Responses, resp)
		}
	}

	rows, err = q.Query(ctx, `
		SELECT id, value, record_id, vector_settings_id, created_at, updated_at
		FROM vectors
		WHERE record_id = ANY($1)
		ORDER BY created_at ASC
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list vectors: %w", err)
	}

	vectors, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Vector, error) {
		var v models.Vector
		var value pgvector.Vector
		err := row.Scan(&v.ID, &value, &v.RecordID, &v.VectorSettingsID, &v.CreatedAt, &v.UpdatedAt)
		v.Value = value.Slice()

		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan vectors: %w", err)
	}

	for _, v := range vectors {
		if rec := byID[v.RecordID]; rec != nil {
			rec.Vectors = append(rec.Vectors, v)
		}
	}

	ordered := make([]models.Record, 0, len(records))
	for _, id := range ids {
		if rec := byID[id]; rec != nil {
			ordered = append(ordered, *rec)
		}
	}

	return ordered, nil
}
