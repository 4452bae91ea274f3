package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/pkg/database"
)

// VectorsRepository handles data access for record vectors.
type VectorsRepository struct {
	db database.Querier
}

// NewVectorsRepository creates a new vectors repository.
func NewVectorsRepository(db database.Querier) *VectorsRepository {
	return &VectorsRepository{db: db}
}

// UpsertMany writes vectors in a single batch keyed on
// (record_id, vector_settings_id). Values go over the wire as pgvector
// columns so similarity search can run on them directly.
func (r *VectorsRepository) UpsertMany(ctx context.Context, upserts []models.VectorUpsert) error {
	if len(upserts) == 0 {
		return nil
	}

	q := database.QuerierFrom(ctx, r.db)
	now := time.Now().UTC()

	batch := &pgx.Batch{}
	for _, u := range upserts {
		batch.Queue(`
			INSERT INTO vectors (id, value, record_id, vector_settings_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (record_id, vector_settings_id) DO UPDATE
			SET value = EXCLUDED.value,
			    updated_at = EXCLUDED.updated_at
		`, uuid.Must(uuid.NewV7()), pgvector.NewVector(u.Value), u.RecordID, u.VectorSettingsID, now, now)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	for range upserts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert vectors: %w", err)
		}
	}

	return nil
}
