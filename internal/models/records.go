package models

import (
	"time"

	"github.com/google/uuid"
)

// ResponseStatus is the lifecycle state of an annotator response.
type ResponseStatus string

const (
	ResponseStatusDraft     ResponseStatus = "draft"
	ResponseStatusSubmitted ResponseStatus = "submitted"
	ResponseStatusDiscarded ResponseStatus = "discarded"
)

// Record is one unit of data to be annotated. Fields is keyed by the
// dataset's configured field names; a nil map entry models an explicit null.
// Updates mutate only Metadata and UpdatedAt; Fields are immutable after
// creation.
type Record struct {
	ID         uuid.UUID          `json:"id"`
	Fields     map[string]*string `json:"fields"`
	Metadata   map[string]any     `json:"metadata,omitempty"`
	ExternalID *string            `json:"external_id,omitempty"`
	DatasetID  uuid.UUID          `json:"dataset_id"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`

	// Loaded relationships; nil when not hydrated.
	Dataset     *Dataset     `json:"-"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	Responses   []Response   `json:"responses,omitempty"`
	Vectors     []Vector     `json:"vectors,omitempty"`
}

// FieldValue returns the record's non-null value for a field name.
func (r *Record) FieldValue(name string) (string, bool) {
	value, ok := r.Fields[name]
	if !ok || value == nil {
		return "", false
	}

	return *value, true
}

// Suggestion is a model-proposed answer for one question on one record.
// At most one suggestion exists per (record, question); upserts replace it.
type Suggestion struct {
	ID         uuid.UUID `json:"id"`
	Value      any       `json:"value"`
	Score      *float64  `json:"score,omitempty"`
	Agent      *string   `json:"agent,omitempty"`
	Type       *string   `json:"type,omitempty"`
	QuestionID uuid.UUID `json:"question_id"`
	RecordID   uuid.UUID `json:"record_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Response is one annotator's answer set for one record. At most one response
// exists per (record, user); upserts replace it.
type Response struct {
	ID        uuid.UUID                `json:"id"`
	Values    map[string]ResponseValue `json:"values,omitempty"`
	Status    ResponseStatus           `json:"status"`
	RecordID  uuid.UUID                `json:"record_id"`
	UserID    uuid.UUID                `json:"user_id"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// ResponseValue wraps one question's answer inside a response's values map.
type ResponseValue struct {
	Value any `json:"value"`
}

// Vector is a fixed-length embedding attached to a record under one of the
// dataset's vector settings. At most one vector exists per (record, settings).
type Vector struct {
	ID               uuid.UUID `json:"id"`
	Value            []float32 `json:"value"`
	RecordID         uuid.UUID `json:"record_id"`
	VectorSettingsID uuid.UUID `json:"vector_settings_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SuggestionUpsert is one row of a batched suggestion upsert keyed on
// (record_id, question_id).
type SuggestionUpsert struct {
	RecordID   uuid.UUID
	QuestionID uuid.UUID
	Value      any
	Score      *float64
	Agent      *string
	Type       *string
}

// ResponseUpsert is one row of a batched response upsert keyed on
// (record_id, user_id).
type ResponseUpsert struct {
	RecordID uuid.UUID
	UserID   uuid.UUID
	Values   map[string]ResponseValue
	Status   ResponseStatus
}

// VectorUpsert is one row of a batched vector upsert keyed on
// (record_id, vector_settings_id).
type VectorUpsert struct {
	RecordID         uuid.UUID
	VectorSettingsID uuid.UUID
	Value            []float32
}
