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

	"github.com/labelstack/hub/internal/api/response"
	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/internal/search"
)

// mockRecordsBulkService mocks RecordsBulkService for handler tests.
type mockRecordsBulkService struct {
	createFunc func(ctx context.Context, datasetID uuid.UUID, bulk *models.RecordsBulkCreate) (*models.RecordsBulk, error)
	upsertFunc func(ctx context.Context, datasetID uuid.UUID, bulk *models.RecordsBulkUpsert) (*models.RecordsBulkWithUpdateInfo, error)
	updateFunc func(ctx context.Context, datasetID uuid.UUID, update *models.RecordsUpdate) (*models.RecordsBulk, error)
}

func (m *mockRecordsBulkService) CreateRecordsBulk(
	ctx context.Context, datasetID uuid.UUID, bulk *models.RecordsBulkCreate,
) (*models.RecordsBulk, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, datasetID, bulk)
	}

	return &models.RecordsBulk{Items: []models.Record{}}, nil
}

func (m *mockRecordsBulkService) UpsertRecordsBulk(
	ctx context.Context, datasetID uuid.UUID, bulk *models.RecordsBulkUpsert,
) (*models.RecordsBulkWithUpdateInfo, error) {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, datasetID, bulk)
	}

	return &models.RecordsBulkWithUpdateInfo{Items: []models.Record{}}, nil
}

func (m *mockRecordsBulkService) UpdateRecords(
	ctx context.Context, datasetID uuid.UUID, update *models.RecordsUpdate,
) (*models.RecordsBulk, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, datasetID, update)
	}

	return &models.RecordsBulk{Items: []models.Record{}}, nil
}

// bulkRouter mounts the handler behind the same route patterns the app uses,
// so chi URL params resolve in tests.
func bulkRouter(h *RecordsBulkHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/datasets/{dataset_id}/records/bulk", h.Create)
	r.Put("/v1/datasets/{dataset_id}/records/bulk", h.Upsert)
	r.Patch("/v1/datasets/{dataset_id}/records", h.Update)

	return r
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) response.ProblemDetails {
	t.Helper()

	var problem response.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))

	return problem
}

func TestRecordsBulkHandler_Create(t *testing.T) {
	datasetID := uuid.MustParse("0198f6a2-0000-7000-8000-000000000001")
	bulkURL := "/v1/datasets/" + datasetID.String() + "/records/bulk"

	t.Run("success returns 201 with items", func(t *testing.T) {
		mock := &mockRecordsBulkService{
			createFunc: func(_ context.Context, gotID uuid.UUID, bulk *models.RecordsBulkCreate) (*models.RecordsBulk, error) {
				assert.Equal(t, datasetID, gotID)
				require.Len(t, bulk.Items, 1)

				return &models.RecordsBulk{Items: []models.Record{
					{ID: uuid.Must(uuid.NewV7()), DatasetID: gotID},
				}}, nil
			},
		}
		router := bulkRouter(NewRecordsBulkHandler(mock))

		body := `{"items":[{"fields":{"text":"hello"}}]}`
		req := httptest.NewRequest(http.MethodPost, bulkURL, strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp models.RecordsBulk
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Items, 1)
	})

	t.Run("invalid dataset id returns 400", func(t *testing.T) {
		router := bulkRouter(NewRecordsBulkHandler(&mockRecordsBulkService{}))

		req := httptest.NewRequest(http.MethodPost, "/v1/datasets/not-a-uuid/records/bulk",
			strings.NewReader(`{"items":[{"fields":{"text":"x"}}]}`))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid UUID format", decodeProblem(t, rec).Detail)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		router := bulkRouter(NewRecordsBulkHandler(&mockRecordsBulkService{}))

		req := httptest.NewRequest(http.MethodPost, bulkURL, strings.NewReader(`{"items":`))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown body field returns 400", func(t *testing.T) {
		router := bulkRouter(NewRecordsBulkHandler(&mockRecordsBulkService{}))

		req := httptest.NewRequest(http.MethodPost, bulkURL,
			strings.NewReader(`{"items":[{"fields":{"text":"x"}}],"surprise":true}`))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty items returns 400", func(t *testing.T) {
		router := bulkRouter(NewRecordsBulkHandler(&mockRecordsBulkService{}))

		req := httptest.NewRequest(http.MethodPost, bulkURL, strings.NewReader(`{"items":[]}`))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("domain errors map to problem responses", func(t *testing.T) {
		tests := []struct {
			name       string
			err        error
			wantStatus int
			wantDetail string
		}{
			{
				name:       "validation error",
				err:        huberrors.NewValidationError("record at position 0 is not valid because missing required value for field: 'text'"),
				wantStatus: http.StatusUnprocessableEntity,
				wantDetail: "record at position 0 is not valid because missing required value for field: 'text'",
			},
			{
				name:       "not ready",
				err:        huberrors.NewNotReadyError("records cannot be created for a non published dataset"),
				wantStatus: http.StatusUnprocessableEntity,
				wantDetail: "records cannot be created for a non published dataset",
			},
			{
				name:       "conflict",
				err:        huberrors.NewConflictError("external IDs must be unique"),
				wantStatus: http.StatusConflict,
				wantDetail: "external IDs must be unique",
			},
			{
				name:       "not found",
				err:        huberrors.NewNotFoundError("dataset", "dataset with id x not found"),
				wantStatus: http.StatusNotFound,
				wantDetail: "dataset with id x not found",
			},
			{
				name:       "index failure",
				err:        &search.IndexError{DatasetID: datasetID, Op: "index"},
				wantStatus: http.StatusBadGateway,
				wantDetail: "search index is unavailable",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mock := &mockRecordsBulkService{
					createFunc: func(context.Context, uuid.UUID, *models.RecordsBulkCreate) (*models.RecordsBulk, error) {
						return nil, tt.err
					},
				}
				router := bulkRouter(NewRecordsBulkHandler(mock))

				req := httptest.NewRequest(http.MethodPost, bulkURL,
					strings.NewReader(`{"items":[{"fields":{"text":"x"}}]}`))
				rec := httptest.NewRecorder()

				router.ServeHTTP(rec, req)

				assert.Equal(t, tt.wantStatus, rec.Code)
				assert.Equal(t, tt.wantDetail, decodeProblem(t, rec).Detail)
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			})
		}
	})
}

func TestRecordsBulkHandler_Upsert(t *testing.T) {
	datasetID := uuid.MustParse("0198f6a2-0000-7000-8000-000000000001")
	bulkURL := "/v1/datasets/" + datasetID.String() + "/records/bulk"

	t.Run("success returns 200 with update info", func(t *testing.T) {
		updatedID := uuid.Must(uuid.NewV7())
		mock := &mockRecordsBulkService{
			upsertFunc: func(_ context.Context, _ uuid.UUID, bulk *models.RecordsBulkUpsert) (*models.RecordsBulkWithUpdateInfo, error) {
				require.Len(t, bulk.Items, 2)

				return &models.RecordsBulkWithUpdateInfo{
					Items:          []models.Record{{ID: updatedID}, {ID: uuid.Must(uuid.NewV7())}},
					UpdatedItemIDs: []uuid.UUID{updatedID},
				}, nil
			},
		}
		router := bulkRouter(NewRecordsBulkHandler(mock))

		body := `{"items":[{"external_id":"rec-1"},{"fields":{"text":"new"},"external_id":"rec-2"}]}`
		req := httptest.NewRequest(http.MethodPut, bulkURL, strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp models.RecordsBulkWithUpdateInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Items, 2)
		require.Len(t, resp.UpdatedItemIDs, 1)
		assert.Equal(t, updatedID, resp.UpdatedItemIDs[0])
	})

	t.Run("upsert conflict returns 409", func(t *testing.T) {
		mock := &mockRecordsBulkService{
			upsertFunc: func(context.Context, uuid.UUID, *models.RecordsBulkUpsert) (*models.RecordsBulkWithUpdateInfo, error) {
				return nil, huberrors.NewConflictError("external IDs must be unique")
			},
		}
		router := bulkRouter(NewRecordsBulkHandler(mock))

		req := httptest.NewRequest(http.MethodPut, bulkURL,
			strings.NewReader(`{"items":[{"external_id":"a"},{"external_id":"a"}]}`))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestRecordsBulkHandler_Update(t *testing.T) {
	datasetID := uuid.MustParse("0198f6a2-0000-7000-8000-000000000001")
	updateURL := "/v1/datasets/" + datasetID.String() + "/records"
	recordID := uuid.Must(uuid.NewV7())

	t.Run("success returns 200", func(t *testing.T) {
		mock := &mockRecordsBulkService{
			updateFunc: func(_ context.Context, _ uuid.UUID, update *models.RecordsUpdate) (*models.RecordsBulk, error) {
				require.Len(t, update.Items, 1)
				assert.Equal(t, recordID, update.Items[0].ID)

				return &models.RecordsBulk{Items: []models.Record{{ID: recordID}}}, nil
			},
		}
		router := bulkRouter(NewRecordsBulkHandler(mock))

		body := `{"items":[{"id":"` + recordID.String() + `","metadata":{"split":"test"}}]}`
		req := httptest.NewRequest(http.MethodPatch, updateURL, strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing item id returns 400", func(t *testing.T) {
		router := bulkRouter(NewRecordsBulkHandler(&mockRecordsBulkService{}))

		req := httptest.NewRequest(http.MethodPatch, updateURL,
			strings.NewReader(`{"items":[{"metadata":{"a":1}}]}`))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown record ids return 404", func(t *testing.T) {
		mock := &mockRecordsBulkService{
			updateFunc: func(context.Context, uuid.UUID, *models.RecordsUpdate) (*models.RecordsBulk, error) {
				return nil, huberrors.NewNotFoundError("record", "found records that do not exist: "+recordID.String())
			},
		}
		router := bulkRouter(NewRecordsBulkHandler(mock))

		body := `{"items":[{"id":"` + recordID.String() + `"}]}`
		req := httptest.NewRequest(http.MethodPatch, updateURL, strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, decodeProblem(t, rec).Detail, recordID.String())
	})
}
