package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/labelstack/hub/internal/models"
)

const defaultRequestTimeout = 30 * time.Second

// document is the indexable projection of a record.
type document struct {
	ID          uuid.UUID            `json:"id"`
	ExternalID  *string              `json:"external_id,omitempty"`
	Fields      map[string]*string   `json:"fields"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
	Suggestions []models.Suggestion  `json:"suggestions,omitempty"`
	Responses   []models.Response    `json:"responses,omitempty"`
	Vectors     map[string][]float32 `json:"vectors,omitempty"`
	InsertedAt  time.Time            `json:"inserted_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// HTTPEngine indexes records through the search service's bulk HTTP API.
// Transient failures are retried with backoff before surfacing an IndexError.
type HTTPEngine struct {
	baseURL string
	apiKey  string
	client  *retryablehttp.Client
}

// NewHTTPEngine creates an engine targeting baseURL. apiKey may be empty.
func NewHTTPEngine(baseURL, apiKey string) *HTTPEngine {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = defaultRequestTimeout
	client.Logger = nil

	return &HTTPEngine{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
	}
}

// IndexRecords writes one batch of hydrated records to the dataset's index.
func (e *HTTPEngine) IndexRecords(ctx context.Context, dataset *models.Dataset, records []models.Record) error {
	docs := make([]document, len(records))
	for i := range records {
		docs[i] = e.buildDocument(dataset, &records[i])
	}

	body := struct {
		Items []document `json:"items"`
	}{Items: docs}

	url := fmt.Sprintf("%s/v1/indexes/%s/documents/bulk", e.baseURL, dataset.ID)
	if err := e.send(ctx, http.MethodPut, url, body); err != nil {
		return &IndexError{DatasetID: dataset.ID, Op: "write", Err: err}
	}

	return nil
}

// DeleteRecords removes records from the dataset's index.
func (e *HTTPEngine) DeleteRecords(ctx context.Context, dataset *models.Dataset, recordIDs []uuid.UUID) error {
	body := struct {
		IDs []uuid.UUID `json:"ids"`
	}{IDs: recordIDs}

	url := fmt.Sprintf("%s/v1/indexes/%s/documents/delete", e.baseURL, dataset.ID)
	if err := e.send(ctx, http.MethodPost, url, body); err != nil {
		return &IndexError{DatasetID: dataset.ID, Op: "delete", Err: err}
	}

	return nil
}

func (e *HTTPEngine) buildDocument(dataset *models.Dataset, record *models.Record) document {
	vectors := make(map[string][]float32, len(record.Vectors))

	for i := range record.Vectors {
		vector := &record.Vectors[i]
		if settings := vectorSettingsByID(dataset, vector.VectorSettingsID); settings != nil {
			vectors[settings.Name] = vector.Value
		}
	}

	return document{
		ID:          record.ID,
		ExternalID:  record.ExternalID,
		Fields:      record.Fields,
		Metadata:    record.Metadata,
		Suggestions: record.Suggestions,
		Responses:   record.Responses,
		Vectors:     vectors,
		InsertedAt:  record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func (e *HTTPEngine) send(ctx context.Context, method, url string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail)
	}

	return nil
}

func vectorSettingsByID(dataset *models.Dataset, id uuid.UUID) *models.VectorSettings {
	for i := range dataset.VectorsSettings {
		if dataset.VectorsSettings[i].ID == id {
			return &dataset.VectorsSettings[i]
		}
	}

	return nil
}
