package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/pkg/cache"
)

type countingDatasetsRepo struct {
	mu    sync.Mutex
	inner *fakeDatasetsRepo

	getCalls int
}

func (r *countingDatasetsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	r.mu.Lock()
	r.getCalls++
	r.mu.Unlock()

	return r.inner.GetByID(ctx, id)
}

func (r *countingDatasetsRepo) CreateQuestion(
	ctx context.Context, datasetID uuid.UUID, qc *models.QuestionCreate,
) (*models.Question, error) {
	return r.inner.CreateQuestion(ctx, datasetID, qc)
}

func (r *countingDatasetsRepo) DeleteQuestion(ctx context.Context, questionID uuid.UUID) error {
	return r.inner.DeleteQuestion(ctx, questionID)
}

func newDatasetCache(t *testing.T) *cache.LoaderCache[uuid.UUID, *models.Dataset] {
	t.Helper()

	c, err := cache.NewLoaderCache[uuid.UUID, *models.Dataset](16, uuid.UUID.String)
	if err != nil {
		t.Fatalf("NewLoaderCache: %v", err)
	}

	return c
}

func TestCachingDatasetsRepo_GetByID(t *testing.T) {
	ctx := context.Background()
	inner := &countingDatasetsRepo{inner: &fakeDatasetsRepo{dataset: readyDataset()}}
	repo := NewCachingDatasetsRepository(inner, newDatasetCache(t), nil)

	for i := 0; i < 3; i++ {
		dataset, err := repo.GetByID(ctx, testDatasetID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}

		if dataset.ID != testDatasetID {
			t.Fatalf("dataset id = %s", dataset.ID)
		}
	}

	if inner.getCalls != 1 {
		t.Errorf("inner loads = %d, want 1", inner.getCalls)
	}
}

func TestCachingDatasetsRepo_GetByID_errorNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingDatasetsRepo{inner: &fakeDatasetsRepo{dataset: readyDataset()}}
	repo := NewCachingDatasetsRepository(inner, newDatasetCache(t), nil)

	unknown := uuid.Must(uuid.NewV7())

	for i := 0; i < 2; i++ {
		if _, err := repo.GetByID(ctx, unknown); err == nil {
			t.Fatal("expected an error for unknown dataset")
		}
	}

	if inner.getCalls != 2 {
		t.Errorf("inner loads = %d, want 2 (errors must not be cached)", inner.getCalls)
	}
}

func TestCachingDatasetsRepo_CreateQuestion_invalidates(t *testing.T) {
	ctx := context.Background()

	draft := readyDataset()
	draft.Status = models.DatasetStatusDraft
	inner := &countingDatasetsRepo{inner: &fakeDatasetsRepo{dataset: draft}}
	repo := NewCachingDatasetsRepository(inner, newDatasetCache(t), nil)

	if _, err := repo.GetByID(ctx, testDatasetID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	qc := &models.QuestionCreate{Name: "q", Title: "Q", Settings: []byte(`{"type":"text"}`)}
	if _, err := repo.CreateQuestion(ctx, testDatasetID, qc); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}

	if _, err := repo.GetByID(ctx, testDatasetID); err != nil {
		t.Fatalf("GetByID after invalidation: %v", err)
	}

	if inner.getCalls != 2 {
		t.Errorf("inner loads = %d, want a reload after CreateQuestion", inner.getCalls)
	}
}

func TestCachingDatasetsRepo_DeleteQuestion_invalidates(t *testing.T) {
	ctx := context.Background()

	draft := readyDataset()
	draft.Status = models.DatasetStatusDraft
	inner := &countingDatasetsRepo{inner: &fakeDatasetsRepo{dataset: draft}}
	repo := NewCachingDatasetsRepository(inner, newDatasetCache(t), nil)

	if _, err := repo.GetByID(ctx, testDatasetID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if err := repo.DeleteQuestion(ctx, testQuestionID); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}

	if _, err := repo.GetByID(ctx, testDatasetID); err != nil {
		t.Fatalf("GetByID after invalidation: %v", err)
	}

	if inner.getCalls != 2 {
		t.Errorf("inner loads = %d, want a reload after DeleteQuestion", inner.getCalls)
	}
}
