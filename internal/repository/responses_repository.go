package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/pkg/database"
)

// ResponsesRepository handles data access for annotator responses.
type ResponsesRepository struct {
	db database.Querier
}

// NewResponsesRepository creates a new responses repository.
func NewResponsesRepository(db database.Querier) *ResponsesRepository {
	return &ResponsesRepository{db: db}
}

// UpsertMany writes responses in a single batch keyed on (record_id, user_id).
func (r *ResponsesRepository) UpsertMany(ctx context.Context, upserts []models.ResponseUpsert) error {
	if len(upserts) == 0 {
		return nil
	}

	q := database.QuerierFrom(ctx, r.db)
	now := time.Now().UTC()

	batch := &pgx.Batch{}
	for _, u := range upserts {
		batch.Queue(`
			INSERT INTO responses (id, values, status, record_id, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (record_id, user_id) DO UPDATE
			SET values = EXCLUDED.values,
			    status = EXCLUDED.status,
			    updated_at = EXCLUDED.updated_at
		`, uuid.Must(uuid.NewV7()), u.Values, u.Status, u.RecordID, u.UserID, now, now)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	for range upserts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert responses: %w", err)
		}
	}

	return nil
}

// Create inserts a single response for a record and user. A second response
// from the same user for the same record is a conflict.
func (r *ResponsesRepository) Create(ctx context.Context, upsert models.ResponseUpsert) (*models.Response, error) {
	q := database.QuerierFrom(ctx, r.db)
	now := time.Now().UTC()

	resp := models.Response{
		ID:        uuid.Must(uuid.NewV7()),
		Values:    upsert.Values,
		Status:    upsert.Status,
		RecordID:  upsert.RecordID,
		UserID:    upsert.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := q.Exec(ctx, `
		INSERT INTO responses (id, values, status, record_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, resp.ID, resp.Values, resp.Status, resp.RecordID, resp.UserID, resp.CreatedAt, resp.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, huberrors.NewConflictError(
				fmt.Sprintf("response already exists for record %s and user %s", upsert.RecordID, upsert.UserID))
		}

		return nil, fmt.Errorf("failed to create response: %w", err)
	}

	return &resp, nil
}
