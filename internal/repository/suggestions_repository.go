package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/pkg/database"
)

// SuggestionsRepository handles data access for record suggestions.
type SuggestionsRepository struct {
	db database.Querier
}

// NewSuggestionsRepository creates a new suggestions repository.
func NewSuggestionsRepository(db database.Querier) *SuggestionsRepository {
	return &SuggestionsRepository{db: db}
}

// UpsertMany writes suggestions in a single batch. An existing suggestion for
// the same (record, question) pair is replaced entirely, including the agent
// and score even when the new row leaves them null.
func (r *SuggestionsRepository) UpsertMany(ctx context.Context, upserts []models.SuggestionUpsert) error {
	if len(upserts) == 0 {
		return nil
	}

	q := database.QuerierFrom(ctx, r.db)
	now := time.Now().UTC()

	batch := &pgx.Batch{}
	for _, u := range upserts {
		batch.Queue(`
			INSERT INTO suggestions (id, value, score, agent, type, question_id, record_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (record_id, question_id) DO UPDATE
			SET value = EXCLUDED.value,
			    score = EXCLUDED.score,
			    agent = EXCLUDED.agent,
			    type = EXCLUDED.type,
			    updated_at = EXCLUDED.updated_at
		`, uuid.Must(uuid.NewV7()), u.Value, u.Score, u.Agent, u.Type, u.QuestionID, u.RecordID, now, now)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	for range upserts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert suggestions: %w", err)
		}
	}

	return nil
}

// Upsert writes a single suggestion and returns the stored row.
func (r *SuggestionsRepository) Upsert(ctx context.Context, upsert models.SuggestionUpsert) (*models.Suggestion, error) {
	q := database.QuerierFrom(ctx, r.db)
	now := time.Now().UTC()

	var s models.Suggestion

	err := q.QueryRow(ctx, `
		INSERT INTO suggestions (id, value, score, agent, type, question_id, record_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (record_id, question_id) DO UPDATE
		SET value = EXCLUDED.value,
		    score = EXCLUDED.score,
		    agent = EXCLUDED.agent,
		    type = EXCLUDED.type,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, value, score, agent, type, question_id, record_id, created_at, updated_at
	`, uuid.Must(uuid.NewV7()), upsert.Value, upsert.Score, upsert.Agent, upsert.Type,
		upsert.QuestionID, upsert.RecordID, now, now).Scan(
		&s.ID, &s.Value, &s.Score, &s.Agent, &s.Type, &s.QuestionID, &s.RecordID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert suggestion: %w", err)
	}

	return &s, nil
}

// DeleteByRecordIDs removes all suggestions of the given records. Used when an
// update carries an explicit empty suggestion list.
func (r *SuggestionsRepository) DeleteByRecordIDs(ctx context.Context, recordIDs []uuid.UUID) error {
	if len(recordIDs) == 0 {
		return nil
	}

	q := database.QuerierFrom(ctx, r.db)

	_, err := q.Exec(ctx, `DELETE FROM suggestions WHERE record_id = ANY($1)`, recordIDs)
	if err != nil {
		return fmt.Errorf("failed to delete suggestions: %w", err)
	}

	return nil
}
