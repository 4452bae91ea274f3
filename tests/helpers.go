// Package tests provides integration tests that run the full stack against a
// real PostgreSQL instance with the pgvector extension.
package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/labelstack/hub/internal/api/handlers"
	"github.com/labelstack/hub/internal/api/middleware"
	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/internal/repository"
	"github.com/labelstack/hub/internal/search"
	"github.com/labelstack/hub/internal/service"
	"github.com/labelstack/hub/pkg/database"
)

const testAPIKey = "test-api-key-12345"

// schema mirrors the tables the repositories read and write. Migrations are
// managed outside this service, so the tests provision the schema directly.
const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS datasets (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	guidelines TEXT,
	status TEXT NOT NULL DEFAULT 'draft',
	allow_extra_metadata BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS fields (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	title TEXT NOT NULL,
	required BOOLEAN NOT NULL DEFAULT FALSE,
	settings JSONB,
	dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (dataset_id, name)
);

CREATE TABLE IF NOT EXISTS questions (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	required BOOLEAN NOT NULL DEFAULT FALSE,
	settings JSONB NOT NULL,
	dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (dataset_id, name)
);

CREATE TABLE IF NOT EXISTS metadata_properties (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	title TEXT NOT NULL,
	type TEXT NOT NULL,
	settings JSONB,
	dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (dataset_id, name)
);

CREATE TABLE IF NOT EXISTS vectors_settings (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	title TEXT NOT NULL,
	dimensions INTEGER NOT NULL,
	dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (dataset_id, name)
);

CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	id UUID PRIMARY KEY,
	fields JSONB NOT NULL,
	metadata JSONB,
	external_id TEXT,
	dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (dataset_id, external_id)
);

CREATE TABLE IF NOT EXISTS suggestions (
	id UUID PRIMARY KEY,
	value JSONB NOT NULL,
	score DOUBLE PRECISION,
	agent TEXT,
	type TEXT,
	question_id UUID NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
	record_id UUID NOT NULL REFERENCES records(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (record_id, question_id)
);

CREATE TABLE IF NOT EXISTS responses (
	id UUID PRIMARY KEY,
	values JSONB,
	status TEXT NOT NULL,
	record_id UUID NOT NULL REFERENCES records(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (record_id, user_id)
);

CREATE TABLE IF NOT EXISTS vectors (
	id UUID PRIMARY KEY,
	value VECTOR NOT NULL,
	record_id UUID NOT NULL REFERENCES records(id) ON DELETE CASCADE,
	vector_settings_id UUID NOT NULL REFERENCES vectors_settings(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (record_id, vector_settings_id)
);
`

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// setupTestDB starts a shared pgvector-enabled PostgreSQL container once for
// the whole test run, applies the schema, and returns a fresh pool. The pool
// is closed via t.Cleanup; the container lives until the process exits.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	once.Do(func() {
		sharedDSN, initErr = startContainerAndProvision()
	})
	if initErr != nil {
		t.Skipf("container runtime unavailable: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, sharedDSN, nil)
	require.NoError(t, err)

	t.Cleanup(pool.Close)

	return pool
}

func startContainerAndProvision() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg17",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		return "", fmt.Errorf("apply schema: %w", err)
	}

	return dsn, nil
}

// setupTestServer wires the full stack against the shared database and
// returns the server plus the pool for fixture setup.
func setupTestServer(t *testing.T) (*httptest.Server, *pgxpool.Pool) {
	t.Helper()

	db := setupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	datasetsRepo := repository.NewDatasetsRepository(db)
	recordsRepo := repository.NewRecordsRepository(db)
	suggestionsRepo := repository.NewSuggestionsRepository(db)
	responsesRepo := repository.NewResponsesRepository(db)
	vectorsRepo := repository.NewVectorsRepository(db)
	usersRepo := repository.NewUsersRepository(db)

	uow := database.NewPoolUnitOfWork(db)
	engine := search.NoopEngine{}

	bulkService := service.NewRecordsBulkService(
		uow, datasetsRepo, recordsRepo, suggestionsRepo, responsesRepo, vectorsRepo, usersRepo,
		engine, nil, logger)
	recordsService := service.NewRecordsService(
		uow, datasetsRepo, recordsRepo, suggestionsRepo, responsesRepo, usersRepo, engine, logger)
	datasetsService := service.NewDatasetsService(datasetsRepo, logger)

	bulkHandler := handlers.NewRecordsBulkHandler(bulkService)
	recordsHandler := handlers.NewRecordsHandler(recordsService)
	responsesHandler := handlers.NewResponsesHandler(recordsService)
	suggestionsHandler := handlers.NewSuggestionsHandler(recordsService)
	questionsHandler := handlers.NewQuestionsHandler(datasetsService)
	healthHandler := handlers.NewHealthHandler(db)

	router := chi.NewRouter()
	router.Get("/healthz", healthHandler.Live)
	router.Get("/readyz", healthHandler.Ready)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(testAPIKey))

		r.Get("/v1/datasets/{dataset_id}", questionsHandler.Get)
		r.Post("/v1/datasets/{dataset_id}/questions", questionsHandler.Create)
		r.Delete("/v1/datasets/{dataset_id}/questions/{question_id}", questionsHandler.Delete)

		r.Get("/v1/datasets/{dataset_id}/records", recordsHandler.List)
		r.Post("/v1/datasets/{dataset_id}/records/bulk", bulkHandler.Create)
		r.Put("/v1/datasets/{dataset_id}/records/bulk", bulkHandler.Upsert)
		r.Patch("/v1/datasets/{dataset_id}/records", bulkHandler.Update)

		r.Post("/v1/datasets/{dataset_id}/records/{record_id}/responses", responsesHandler.Create)
		r.Put("/v1/datasets/{dataset_id}/records/{record_id}/suggestions", suggestionsHandler.Upsert)
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, db
}

// testFixture is the seeded dataset schema the integration tests run against.
type testFixture struct {
	DatasetID  uuid.UUID
	QuestionID uuid.UUID
	VectorID   uuid.UUID
	UserID     uuid.UUID
}

// seedDataset inserts a ready dataset with one required text field, one
// label-selection question, one terms metadata property, one 3-dimensional
// vector settings entry and one annotator.
func seedDataset(t *testing.T, db *pgxpool.Pool, status models.DatasetStatus) testFixture {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()

	fixture := testFixture{
		DatasetID:  uuid.Must(uuid.NewV7()),
		QuestionID: uuid.Must(uuid.NewV7()),
		VectorID:   uuid.Must(uuid.NewV7()),
		UserID:     uuid.Must(uuid.NewV7()),
	}

	_, err := db.Exec(ctx, `
		INSERT INTO datasets (id, name, guidelines, status, allow_extra_metadata, created_at, updated_at)
		VALUES ($1, $2, NULL, $3, FALSE, $4, $4)`,
		fixture.DatasetID, "dataset-"+fixture.DatasetID.String()[:8], string(status), now)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		INSERT INTO fields (id, name, title, required, settings, dataset_id, created_at, updated_at)
		VALUES ($1, 'text', 'Text', TRUE, '{}', $2, $3, $3)`,
		uuid.Must(uuid.NewV7()), fixture.DatasetID, now)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		INSERT INTO questions (id, name, title, description, required, settings, dataset_id, created_at, updated_at)
		VALUES ($1, 'sentiment', 'Sentiment', NULL, TRUE, $2, $3, $4, $4)`,
		fixture.QuestionID,
		json.RawMessage(`{"type":"label_selection","options":[{"value":"positive","text":"Positive"},{"value":"negative","text":"Negative"}]}`),
		fixture.DatasetID, now)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		INSERT INTO metadata_properties (id, name, title, type, settings, dataset_id, created_at, updated_at)
		VALUES ($1, 'split', 'Split', 'terms', $2, $3, $4, $4)`,
		uuid.Must(uuid.NewV7()), json.RawMessage(`{"values":["train","test"]}`), fixture.DatasetID, now)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		INSERT INTO vectors_settings (id, name, title, dimensions, dataset_id, created_at, updated_at)
		VALUES ($1, 'sentence', 'Sentence', 3, $2, $3, $3)`,
		fixture.VectorID, fixture.DatasetID, now)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		INSERT INTO users (id, username, created_at, updated_at)
		VALUES ($1, $2, $3, $3)`,
		fixture.UserID, "annotator-"+fixture.UserID.String()[:8], now)
	require.NoError(t, err)

	return fixture
}

// doJSON sends an authenticated JSON request and returns the response.
func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	require.NoError(t, err)

	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}
