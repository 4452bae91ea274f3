package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
)

func TestDatasetsService_GetDataset(t *testing.T) {
	ctx := context.Background()
	svc := NewDatasetsService(&fakeDatasetsRepo{dataset: readyDataset()}, testLogger())

	dataset, err := svc.GetDataset(ctx, testDatasetID)
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}

	if dataset.ID != testDatasetID {
		t.Errorf("dataset id = %s, want %s", dataset.ID, testDatasetID)
	}

	if _, err := svc.GetDataset(ctx, uuid.Must(uuid.NewV7())); !errors.Is(err, huberrors.ErrNotFound) {
		t.Errorf("unknown dataset error = %v, want not found", err)
	}
}

func TestDatasetsService_CreateQuestion(t *testing.T) {
	ctx := context.Background()

	qc := &models.QuestionCreate{
		Name:     "fluency",
		Title:    "Fluency",
		Settings: []byte(`{"type":"rating","options":[{"value":1},{"value":2},{"value":3}]}`),
	}

	t.Run("creates on draft dataset", func(t *testing.T) {
		draft := readyDataset()
		draft.Status = models.DatasetStatusDraft
		repo := &fakeDatasetsRepo{dataset: draft}
		svc := NewDatasetsService(repo, testLogger())

		question, err := svc.CreateQuestion(ctx, testDatasetID, qc)
		if err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}

		if question.Name != "fluency" || question.DatasetID != testDatasetID {
			t.Errorf("question = %+v", question)
		}

		if len(repo.createdQuestions) != 1 {
			t.Errorf("created = %v, want one question persisted", repo.createdQuestions)
		}
	})

	t.Run("rejected on ready dataset", func(t *testing.T) {
		repo := &fakeDatasetsRepo{dataset: readyDataset()}
		svc := NewDatasetsService(repo, testLogger())

		_, err := svc.CreateQuestion(ctx, testDatasetID, qc)
		if !errors.Is(err, huberrors.ErrNotReady) {
			t.Fatalf("error = %v, want not ready", err)
		}

		if len(repo.createdQuestions) != 0 {
			t.Errorf("created = %v, want nothing persisted", repo.createdQuestions)
		}
	})
}

func TestDatasetsService_DeleteQuestion(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes on draft dataset", func(t *testing.T) {
		draft := readyDataset()
		draft.Status = models.DatasetStatusDraft
		repo := &fakeDatasetsRepo{dataset: draft}
		svc := NewDatasetsService(repo, testLogger())

		if err := svc.DeleteQuestion(ctx, testDatasetID, testQuestionID); err != nil {
			t.Fatalf("DeleteQuestion: %v", err)
		}

		if len(repo.deletedQuestions) != 1 || repo.deletedQuestions[0] != testQuestionID {
			t.Errorf("deleted = %v, want [%s]", repo.deletedQuestions, testQuestionID)
		}
	})

	t.Run("rejected on ready dataset", func(t *testing.T) {
		repo := &fakeDatasetsRepo{dataset: readyDataset()}
		svc := NewDatasetsService(repo, testLogger())

		err := svc.DeleteQuestion(ctx, testDatasetID, testQuestionID)
		if !errors.Is(err, huberrors.ErrNotReady) {
			t.Fatalf("error = %v, want not ready", err)
		}
	})

	t.Run("unknown question", func(t *testing.T) {
		draft := readyDataset()
		draft.Status = models.DatasetStatusDraft
		svc := NewDatasetsService(&fakeDatasetsRepo{dataset: draft}, testLogger())

		unknown := uuid.Must(uuid.NewV7())

		err := svc.DeleteQuestion(ctx, testDatasetID, unknown)
		if err == nil || err.Error() != "question with id "+unknown.String()+" not found" {
			t.Fatalf("error = %v", err)
		}
	})
}
