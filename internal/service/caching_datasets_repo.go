package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/internal/observability"
	"github.com/labelstack/hub/pkg/cache"
)

const cacheNameDatasetGetByID = "dataset_get_by_id"

// cachingDatasetsRepo wraps a DatasetsRepository with a read-through cache
// for GetByID. Ready datasets have frozen schemas, so cached entries stay
// correct for the operations that read them; question mutations only happen
// on draft datasets and invalidate their entry.
type cachingDatasetsRepo struct {
	inner   DatasetsRepository
	byID    *cache.LoaderCache[uuid.UUID, *models.Dataset]
	metrics observability.CacheMetrics
}

// NewCachingDatasetsRepository returns a DatasetsRepository that caches
// GetByID. metrics may be nil (no cache metrics recorded).
func NewCachingDatasetsRepository(
	inner DatasetsRepository,
	byID *cache.LoaderCache[uuid.UUID, *models.Dataset],
	metrics observability.CacheMetrics,
) DatasetsRepository {
	return &cachingDatasetsRepo{inner: inner, byID: byID, metrics: metrics}
}

func (r *cachingDatasetsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	if r.metrics != nil {
		dataset, hit, err := r.byID.GetWithStats(ctx, id, r.inner.GetByID)
		if err != nil {
			return nil, fmt.Errorf("get dataset by id: %w", err)
		}

		if hit {
			r.metrics.RecordHit(ctx, cacheNameDatasetGetByID)
		} else {
			r.metrics.RecordMiss(ctx, cacheNameDatasetGetByID)
		}

		return dataset, nil
	}

	dataset, err := r.byID.Get(ctx, id, r.inner.GetByID)
	if err != nil {
		return nil, fmt.Errorf("get dataset by id: %w", err)
	}

	return dataset, nil
}

func (r *cachingDatasetsRepo) CreateQuestion(
	ctx context.Context, datasetID uuid.UUID, qc *models.QuestionCreate,
) (*models.Question, error) {
	question, err := r.inner.CreateQuestion(ctx, datasetID, qc)
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	r.byID.Invalidate(datasetID)

	return question, nil
}

func (r *cachingDatasetsRepo) DeleteQuestion(ctx context.Context, questionID uuid.UUID) error {
	if err := r.inner.DeleteQuestion(ctx, questionID); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}

	// The question id alone does not identify the dataset entry.
	r.byID.InvalidateAll()

	return nil
}
