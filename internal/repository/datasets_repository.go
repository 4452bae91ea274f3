// Package repository provides pgx-backed data access for datasets, records
// and their relationships. Every method resolves its querier from the
// context, so calls made inside database.WithinTx join the active
// transaction and calls outside run directly on the pool.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/pkg/database"
)

// DatasetsRepository handles data access for datasets and their schema.
type DatasetsRepository struct {
	db database.Querier
}

// NewDatasetsRepository creates a new datasets repository.
func NewDatasetsRepository(db database.Querier) *DatasetsRepository {
	return &DatasetsRepository{db: db}
}

// GetByID retrieves a dataset with its full schema loaded: fields, questions,
// metadata properties and vector settings. The schema is what record
// validation runs against, so it is always loaded in one round of queries.
func (r *DatasetsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	q := database.QuerierFrom(ctx, r.db)

	var dataset models.Dataset

	err := q.QueryRow(ctx, `
		SELECT id, name, guidelines, status, allow_extra_metadata, created_at, updated_at
		FROM datasets
		WHERE id = $1
	`, id).Scan(
		&dataset.ID, &dataset.Name, &dataset.Guidelines, &dataset.Status,
		&dataset.AllowExtraMetadata, &dataset.CreatedAt, &dataset.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, huberrors.NewNotFoundError("dataset", fmt.Sprintf("dataset with id %s not found", id))
		}

		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	if err := r.loadSchema(ctx, q, &dataset); err != nil {
		return nil, err
	}

	return &dataset, nil
}

func (r *DatasetsRepository) loadSchema(ctx context.Context, q database.Querier, dataset *models.Dataset) error {
	rows, err := q.Query(ctx, `
		SELECT id, name, title, required, settings, dataset_id, created_at, updated_at
		FROM fields
		WHERE dataset_id = $1
		ORDER BY created_at ASC
	`, dataset.ID)
	if err != nil {
		return fmt.Errorf("failed to list fields: %w", err)
	}

	dataset.Fields, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Field, error) {
		var f models.Field
		err := row.Scan(&f.ID, &f.Name, &f.Title, &f.Required, &f.Settings, &f.DatasetID, &f.CreatedAt, &f.UpdatedAt)

		return f, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan fields: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT id, name, title, description, required, settings, dataset_id, created_at, updated_at
		FROM questions
		WHERE dataset_id = $1
		ORDER BY created_at ASC
	`, dataset.ID)
	if err != nil {
		return fmt.Errorf("failed to list questions: %w", err)
	}

	dataset.Questions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Question, error) {
		var qst models.Question
		err := row.Scan(&qst.ID, &qst.Name, &qst.Title, &qst.Description, &qst.Required,
			&qst.Settings, &qst.DatasetID, &qst.CreatedAt, &qst.UpdatedAt)

		return qst, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan questions: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT id, name, title, type, settings, dataset_id, created_at, updated_at
		FROM metadata_properties
		WHERE dataset_id = $1
		ORDER BY created_at ASC
	`, dataset.ID)
	if err != nil {
		return fmt.Errorf("failed to list metadata properties: %w", err)
	}

	dataset.MetadataProperties, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.MetadataProperty, error) {
		var mp models.MetadataProperty
		err := row.Scan(&mp.ID, &mp.Name, &mp.Title, &mp.Type, &mp.Settings, &mp.DatasetID, &mp.CreatedAt, &mp.UpdatedAt)

		return mp, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan metadata properties: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT id, name, title, dimensions, dataset_id, created_at, updated_at
		FROM vectors_settings
		WHERE dataset_id = $1
		ORDER BY created_at ASC
	`, dataset.ID)
	if err != nil {
		return fmt.Errorf("failed to list vector settings: %w", err)
	}

	dataset.VectorsSettings, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.VectorSettings, error) {
		var vs models.VectorSettings
		err := row.Scan(&vs.ID, &vs.Name, &vs.Title, &vs.Dimensions, &vs.DatasetID, &vs.CreatedAt, &vs.UpdatedAt)

		return vs, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan vector settings: %w", err)
	}

	return nil
}

// CreateQuestion adds a question to a dataset. Callers gate on dataset status
// before reaching this point.
func (r *DatasetsRepository) CreateQuestion(
	ctx context.Context, datasetID uuid.UUID, qc *models.QuestionCreate,
) (*models.Question, error) {
	q := database.QuerierFrom(ctx, r.db)
	now := time.Now().UTC()

	question := models.Question{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        qc.Name,
		Title:       qc.Title,
		Description: qc.Description,
		Required:    qc.Required,
		Settings:    qc.Settings,
		DatasetID:   datasetID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := q.Exec(ctx, `
		INSERT INTO questions (id, name, title, description, required, settings, dataset_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, question.ID, question.Name, question.Title, question.Description, question.Required,
		question.Settings, question.DatasetID, question.CreatedAt, question.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, huberrors.NewConflictError(
				fmt.Sprintf("question with name '%s' already exists for dataset '%s'", qc.Name, datasetID))
		}

		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	return &question, nil
}

// DeleteQuestion removes a question and its suggestions (cascade).
func (r *DatasetsRepository) DeleteQuestion(ctx context.Context, questionID uuid.UUID) error {
	q := database.QuerierFrom(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM questions WHERE id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return huberrors.NewNotFoundError("question", fmt.Sprintf("question with id %s not found", questionID))
	}

	return nil
}
