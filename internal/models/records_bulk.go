package models

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/datatypes"
	"github.com/labelstack/hub/internal/huberrors"
)

// Bulk batch size bounds. Requests outside these bounds are rejected before
// any processing.
const (
	RecordsBulkMinItems = 1
	RecordsBulkMaxItems = 500
)

// SuggestionCreate is one incoming suggestion for a record being created or updated.
type SuggestionCreate struct {
	QuestionID uuid.UUID `json:"question_id" validate:"required"`
	Value      any       `json:"value" validate:"required"`
	Score      *float64  `json:"score,omitempty" validate:"omitempty,gte=0,lte=1"`
	Agent      *string   `json:"agent,omitempty" validate:"omitempty,max=200"`
	Type       *string   `json:"type,omitempty" validate:"omitempty,oneof=model human selection"`
}

// ResponseCreate is one incoming annotator response for a record.
type ResponseCreate struct {
	UserID uuid.UUID                `json:"user_id" validate:"required"`
	Values map[string]ResponseValue `json:"values,omitempty"`
	Status ResponseStatus           `json:"status" validate:"required,oneof=draft submitted discarded"`
}

// IsSubmitted reports whether the response is being submitted (as opposed to
// saved as draft or discarded).
func (r *ResponseCreate) IsSubmitted() bool {
	return r.Status == ResponseStatusSubmitted
}

// RecordCreate is one incoming record of a bulk create. A nil Suggestions,
// Responses or Vectors means "none"; suggestion lists keep the nil vs empty
// distinction for the upsert paths that reuse this shape.
type RecordCreate struct {
	Fields      map[string]*string                 `json:"fields" validate:"required"`
	Metadata    datatypes.Optional[map[string]any] `json:"metadata"`
	ExternalID  *string                            `json:"external_id,omitempty" validate:"omitempty,max=500"`
	Suggestions []SuggestionCreate                 `json:"suggestions,omitempty" validate:"omitempty,dive"`
	Responses   []ResponseCreate                   `json:"responses,omitempty" validate:"omitempty,dive"`
	Vectors     map[string][]float32               `json:"vectors,omitempty"`
}

// RecordUpsert is one incoming record of a bulk upsert: identity may be given
// as a server id or an external id, and fields are only required when the
// item turns out to create a new record.
type RecordUpsert struct {
	ID          uuid.UUID                          `json:"id,omitempty"`
	Fields      map[string]*string                 `json:"fields,omitempty"`
	Metadata    datatypes.Optional[map[string]any] `json:"metadata"`
	ExternalID  *string                            `json:"external_id,omitempty" validate:"omitempty,max=500"`
	Suggestions []SuggestionCreate                 `json:"suggestions,omitempty" validate:"omitempty,dive"`
	Responses   []ResponseCreate                   `json:"responses,omitempty" validate:"omitempty,dive"`
	Vectors     map[string][]float32               `json:"vectors,omitempty"`
}

// RecordUpdateWithID is one incoming record of a bulk update. Only metadata,
// suggestions and vectors are mutable through this path. A nil Suggestions
// leaves existing suggestions untouched; an empty non-nil list clears them.
type RecordUpdateWithID struct {
	ID          uuid.UUID                          `json:"id" validate:"required"`
	Metadata    datatypes.Optional[map[string]any] `json:"metadata"`
	Suggestions []SuggestionCreate                 `json:"suggestions,omitempty" validate:"omitempty,dive"`
	Vectors     map[string][]float32               `json:"vectors,omitempty"`
}

// RecordsBulkCreate is the request body of a bulk record creation.
type RecordsBulkCreate struct {
	Items []RecordCreate `json:"items" validate:"required,min=1,max=500,dive"`
}

// CheckUniqueExternalIDs rejects batches carrying the same external id twice.
func (b *RecordsBulkCreate) CheckUniqueExternalIDs() error {
	return checkUniqueExternalIDs(collectExternalIDs(len(b.Items), func(i int) *string {
		return b.Items[i].ExternalID
	}))
}

// RecordsBulkUpsert is the request body of a bulk record upsert.
type RecordsBulkUpsert struct {
	Items []RecordUpsert `json:"items" validate:"required,min=1,max=500,dive"`
}

// CheckUniqueExternalIDs rejects batches carrying the same external id twice.
func (b *RecordsBulkUpsert) CheckUniqueExternalIDs() error {
	return checkUniqueExternalIDs(collectExternalIDs(len(b.Items), func(i int) *string {
		return b.Items[i].ExternalID
	}))
}

// RecordsUpdate is the request body of a bulk record update.
type RecordsUpdate struct {
	Items []RecordUpdateWithID `json:"items" validate:"required,min=1,max=500,dive"`
}

// RecordsBulk is the ordered result of a bulk create.
type RecordsBulk struct {
	Items []Record `json:"items"`
}

// RecordsBulkWithUpdateInfo is the result of a bulk upsert: all affected
// records in input order plus the ids that matched existing records, so the
// caller can report created and updated counts separately.
type RecordsBulkWithUpdateInfo struct {
	Items          []Record    `json:"items"`
	UpdatedItemIDs []uuid.UUID `json:"updated_item_ids"`
}

func collectExternalIDs(n int, at func(int) *string) []string {
	ids := make([]string, 0, n)

	for i := 0; i < n; i++ {
		if id := at(i); id != nil {
			ids = append(ids, *id)
		}
	}

	return ids
}

func checkUniqueExternalIDs(ids []string) error {
	seen := make(map[string]struct{}, len(ids))

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return huberrors.NewConflictError("external IDs must be unique")
		}

		seen[id] = struct{}{}
	}

	return nil
}

// QuestionCreate is the request body for adding a question to a draft dataset.
type QuestionCreate struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Title       string          `json:"title" validate:"required,max=500"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=1000"`
	Required    bool            `json:"required"`
	Settings    json.RawMessage `json:"settings" validate:"required"`
}
