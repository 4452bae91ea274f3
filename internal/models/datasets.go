// Package models defines the dataset schema entities, record entities and the
// request/response types for the bulk record ingestion pipeline.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DatasetStatus is the lifecycle state of a dataset.
type DatasetStatus string

const (
	// DatasetStatusDraft means the schema is still mutable and no records exist.
	DatasetStatusDraft DatasetStatus = "draft"
	// DatasetStatusReady means the schema is frozen and record operations are allowed.
	DatasetStatusReady DatasetStatus = "ready"
)

// Dataset owns the schema (fields, questions, metadata properties, vector
// settings) that record ingestion validates against. During ingestion the
// schema is read-only; the ready gate plus schema immutability once ready is
// what makes concurrent batches against the same dataset safe without locking.
type Dataset struct {
	ID                 uuid.UUID     `json:"id"`
	Name               string        `json:"name"`
	Guidelines         *string       `json:"guidelines,omitempty"`
	Status             DatasetStatus `json:"status"`
	AllowExtraMetadata bool          `json:"allow_extra_metadata"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`

	Fields             []Field            `json:"fields,omitempty"`
	Questions          []Question         `json:"questions,omitempty"`
	MetadataProperties []MetadataProperty `json:"metadata_properties,omitempty"`
	VectorsSettings    []VectorSettings   `json:"vectors_settings,omitempty"`
}

// IsReady reports whether the dataset accepts record operations.
func (d *Dataset) IsReady() bool {
	return d.Status == DatasetStatusReady
}

// FieldByName returns the configured field with the given name, or nil.
func (d *Dataset) FieldByName(name string) *Field {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}

	return nil
}

// QuestionByID returns the question with the given id, or nil.
func (d *Dataset) QuestionByID(id uuid.UUID) *Question {
	for i := range d.Questions {
		if d.Questions[i].ID == id {
			return &d.Questions[i]
		}
	}

	return nil
}

// QuestionByName returns the question with the given name, or nil.
func (d *Dataset) QuestionByName(name string) *Question {
	for i := range d.Questions {
		if d.Questions[i].Name == name {
			return &d.Questions[i]
		}
	}

	return nil
}

// MetadataPropertyByName returns the metadata property with the given name, or nil.
func (d *Dataset) MetadataPropertyByName(name string) *MetadataProperty {
	for i := range d.MetadataProperties {
		if d.MetadataProperties[i].Name == name {
			return &d.MetadataProperties[i]
		}
	}

	return nil
}

// VectorSettingsByName returns the vector settings with the given name, or nil.
func (d *Dataset) VectorSettingsByName(name string) *VectorSettings {
	for i := range d.VectorsSettings {
		if d.VectorsSettings[i].Name == name {
			return &d.VectorsSettings[i]
		}
	}

	return nil
}

// Field is one named text input of a dataset's records.
type Field struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Title     string          `json:"title"`
	Required  bool            `json:"required"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	DatasetID uuid.UUID       `json:"dataset_id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// VectorSettings is a named embedding configuration with a fixed dimension count.
type VectorSettings struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	Dimensions int       `json:"dimensions"`
	DatasetID  uuid.UUID `json:"dataset_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// User is an annotator account. Account management is out of scope; only the
// identity referenced by responses is modeled.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
