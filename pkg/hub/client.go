// Package hub provides a Go client for the hub record ingestion API. It is
// used by the ingestion tooling and can be embedded in services that feed
// records into a dataset.
package hub

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
)

const defaultTimeout = 30 * time.Second

// MaxBatchSize is the largest number of records accepted in one bulk call.
const MaxBatchSize = 500

// RecordCreate is one record to create. Field values may be nil to store an
// explicit null for an optional field.
type RecordCreate struct {
	Fields     map[string]*string `json:"fields"`
	Metadata   map[string]any     `json:"metadata,omitempty"`
	ExternalID *string            `json:"external_id,omitempty"`
}

// Record is a stored record as returned by the API.
type Record struct {
	ID         uuid.UUID          `json:"id"`
	Fields     map[string]*string `json:"fields"`
	Metadata   map[string]any     `json:"metadata,omitempty"`
	ExternalID *string            `json:"external_id,omitempty"`
	DatasetID  uuid.UUID          `json:"dataset_id"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// BulkResult is the outcome of a bulk create or upsert, in input order.
type BulkResult struct {
	Items          []Record    `json:"items"`
	UpdatedItemIDs []uuid.UUID `json:"updated_item_ids,omitempty"`
}

// APIError is a non-2xx response from the hub API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hub api: status %d: %s", e.StatusCode, e.Detail)
}

// Client talks to the hub API. Transient failures are retried with backoff.
type Client struct {
	baseURL string
	apiKey  string
	client  *retryablehttp.Client
}

// NewClient creates a client targeting baseURL, authenticating with apiKey.
func NewClient(baseURL, apiKey string) *Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = defaultTimeout
	client.Logger = nil

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
	}
}

// CreateRecords creates a batch of records in the dataset. The batch must
// hold between 1 and MaxBatchSize items.
func (c *Client) CreateRecords(ctx context.Context, datasetID uuid.UUID, items []RecordCreate) (*BulkResult, error) {
	body := struct {
		Items []RecordCreate `json:"items"`
	}{Items: items}

	url := fmt.Sprintf("%s/v1/datasets/%s/records/bulk", c.baseURL, datasetID)

	return c.send(ctx, http.MethodPost, url, body)
}

// UpsertRecords creates or updates a batch of records, matching existing
// records by external id.
func (c *Client) UpsertRecords(ctx context.Context, datasetID uuid.UUID, items []RecordCreate) (*BulkResult, error) {
	body := struct {
		Items []RecordCreate `json:"items"`
	}{Items: items}

	url := fmt.Sprintf("%s/v1/datasets/%s/records/bulk", c.baseURL, datasetID)

	return c.send(ctx, http.MethodPut, url, body)
}

func (c *Client) send(ctx context.Context, method, url string, body any) (*BulkResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return nil, &APIError{StatusCode: resp.StatusCode, Detail: string(detail)}
	}

	var result BulkResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}
