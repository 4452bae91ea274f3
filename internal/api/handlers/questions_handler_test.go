package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
)

// mockDatasetsService mocks DatasetsService for handler tests.
type mockDatasetsService struct {
	getFunc    func(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	createFunc func(ctx context.Context, datasetID uuid.UUID, qc *models.QuestionCreate) (*models.Question, error)
	deleteFunc func(ctx context.Context, datasetID, questionID uuid.UUID) error
}

func (m *mockDatasetsService) GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}

	return &models.Dataset{ID: id}, nil
}

func (m *mockDatasetsService) CreateQuestion(
	ctx context.Context, datasetID uuid.UUID, qc *models.QuestionCreate,
) (*models.Question, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, datasetID, qc)
	}

	return &models.Question{ID: uuid.Must(uuid.NewV7()), DatasetID: datasetID, Name: qc.Name}, nil
}

func (m *mockDatasetsService) DeleteQuestion(ctx context.Context, datasetID, questionID uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, datasetID, questionID)
	}

	return nil
}

func questionsRouter(h *QuestionsHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/datasets/{dataset_id}", h.Get)
	r.Post("/v1/datasets/{dataset_id}/questions", h.Create)
	r.Delete("/v1/datasets/{dataset_id}/questions/{question_id}", h.Delete)

	return r
}

func TestQuestionsHandler_Create(t *testing.T) {
	datasetID := uuid.MustParse("0198f6a2-0000-7000-8000-000000000001")
	questionsURL := "/v1/datasets/" + datasetID.String() + "/questions"

	t.Run("success returns 201", func(t *testing.T) {
		mock := &mockDatasetsService{
			createFunc: func(_ context.Context, gotID uuid.UUID, qc *models.QuestionCreate) (*models.Question, error) {
				assert.Equal(t, datasetID, gotID)
				assert.Equal(t, "sentiment", qc.Name)

				return &models.Question{ID: uuid.Must(uuid.NewV7()), Name: qc.Name, DatasetID: gotID}, nil
			},
		}
		router := questionsRouter(NewQuestionsHandler(mock))

		body := `{"name":"sentiment","title":"Sentiment","settings":{"type":"text"}}`
		req := httptest.NewRequest(http.MethodPost, questionsURL, strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var question models.Question
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &question))
		assert.Equal(t, "sentiment", question.Name)
	})

	t.Run("missing name returns 400", func(t *testing.T) {
		router := questionsRouter(NewQuestionsHandler(&mockDatasetsService{}))

		body := `{"title":"Sentiment","settings":{"type":"text"}}`
		req := httptest.NewRequest(http.MethodPost, questionsURL, strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ready dataset returns 422", func(t *testing.T) {
		mock := &mockDatasetsService{
			createFunc: func(context.Context, uuid.UUID, *models.QuestionCreate) (*models.Question, error) {
				return nil, huberrors.NewNotReadyError("questions cannot be created for a published dataset")
			},
		}
		router := questionsRouter(NewQuestionsHandler(mock))

		body := `{"name":"q","title":"Q","settings":{"type":"text"}}`
		req := httptest.NewRequest(http.MethodPost, questionsURL, strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "questions cannot be created for a published dataset", decodeProblem(t, rec).Detail)
	})

	t.Run("duplicate name returns 409", func(t *testing.T) {
		mock := &mockDatasetsService{
			createFunc: func(context.Context, uuid.UUID, *models.QuestionCreate) (*models.Question, error) {
				return nil, huberrors.NewConflictError("question with name 'q' already exists for dataset '" + datasetID.String() + "'")
			},
		}
		router := questionsRouter(NewQuestionsHandler(mock))

		body := `{"name":"q","title":"Q","settings":{"type":"text"}}`
		req := httptest.NewRequest(http.MethodPost, questionsURL, strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestQuestionsHandler_Delete(t *testing.T) {
	datasetID := uuid.MustParse("0198f6a2-0000-7000-8000-000000000001")
	questionID := uuid.MustParse("0198f6a2-0000-7000-8000-000000000010")
	deleteURL := "/v1/datasets/" + datasetID.String() + "/questions/" + questionID.String()

	t.Run("success returns 204", func(t *testing.T) {
		var gotQuestionID uuid.UUID

		mock := &mockDatasetsService{
			deleteFunc: func(_ context.Context, _, questionID uuid.UUID) error {
				gotQuestionID = questionID

				return nil
			},
		}
		router := questionsRouter(NewQuestionsHandler(mock))

		req := httptest.NewRequest(http.MethodDelete, deleteURL, http.NoBody)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, questionID, gotQuestionID)
	})

	t.Run("invalid question id returns 400", func(t *testing.T) {
		router := questionsRouter(NewQuestionsHandler(&mockDatasetsService{}))

		req := httptest.NewRequest(http.MethodDelete,
			"/v1/datasets/"+datasetID.String()+"/questions/nope", http.NoBody)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown question returns 404", func(t *testing.T) {
		mock := &mockDatasetsService{
			deleteFunc: func(context.Context, uuid.UUID, uuid.UUID) error {
				return huberrors.NewNotFoundError("question", "question with id "+questionID.String()+" not found")
			},
		}
		router := questionsRouter(NewQuestionsHandler(mock))

		req := httptest.NewRequest(http.MethodDelete, deleteURL, http.NoBody)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestQuestionsHandler_Get(t *testing.T) {
	datasetID := uuid.MustParse("0198f6a2-0000-7000-8000-000000000001")

	t.Run("success returns the dataset schema", func(t *testing.T) {
		mock := &mockDatasetsService{
			getFunc: func(_ context.Context, id uuid.UUID) (*models.Dataset, error) {
				return &models.Dataset{
					ID:     id,
					Name:   "sentiment",
					Status: models.DatasetStatusReady,
					Fields: []models.Field{{Name: "text", Required: true}},
				}, nil
			},
		}
		router := questionsRouter(NewQuestionsHandler(mock))

		req := httptest.NewRequest(http.MethodGet, "/v1/datasets/"+datasetID.String(), http.NoBody)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var dataset models.Dataset
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dataset))
		assert.Equal(t, "sentiment", dataset.Name)
		assert.Len(t, dataset.Fields, 1)
	})

	t.Run("unknown dataset returns 404", func(t *testing.T) {
		mock := &mockDatasetsService{
			getFunc: func(_ context.Context, id uuid.UUID) (*models.Dataset, error) {
				return nil, huberrors.NewNotFoundError("dataset", "dataset with id "+id.String()+" not found")
			},
		}
		router := questionsRouter(NewQuestionsHandler(mock))

		req := httptest.NewRequest(http.MethodGet, "/v1/datasets/"+datasetID.String(), http.NoBody)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
