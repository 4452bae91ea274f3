package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// MetadataPropertyType discriminates metadata property settings.
type MetadataPropertyType string

const (
	MetadataPropertyTypeTerms   MetadataPropertyType = "terms"
	MetadataPropertyTypeInteger MetadataPropertyType = "integer"
	MetadataPropertyTypeFloat   MetadataPropertyType = "float"
)

// MetadataProperty is a named, typed validation rule for one record metadata key.
type MetadataProperty struct {
	ID        uuid.UUID            `json:"id"`
	Name      string               `json:"name"`
	Title     string               `json:"title"`
	Type      MetadataPropertyType `json:"type"`
	Settings  json.RawMessage      `json:"settings,omitempty"`
	DatasetID uuid.UUID            `json:"dataset_id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// MetadataPropertySettings checks one metadata value against the property's
// configured constraints. Implementations are pure.
type MetadataPropertySettings interface {
	CheckMetadata(value any) error
}

// ParsedSettings decodes the settings payload for the property's type.
func (m *MetadataProperty) ParsedSettings() (MetadataPropertySettings, error) {
	switch m.Type {
	case MetadataPropertyTypeTerms:
		var s TermsMetadataPropertySettings
		if err := json.Unmarshal(m.Settings, &s); err != nil {
			return nil, fmt.Errorf("parse terms metadata property settings: %w", err)
		}

		return &s, nil
	case MetadataPropertyTypeInteger:
		var s IntegerMetadataPropertySettings
		if err := json.Unmarshal(m.Settings, &s); err != nil {
			return nil, fmt.Errorf("parse integer metadata property settings: %w", err)
		}

		return &s, nil
	case MetadataPropertyTypeFloat:
		var s FloatMetadataPropertySettings
		if err := json.Unmarshal(m.Settings, &s); err != nil {
			return nil, fmt.Errorf("parse float metadata property settings: %w", err)
		}

		return &s, nil
	default:
		return nil, fmt.Errorf("unknown metadata property type %q", m.Type)
	}
}

// TermsMetadataPropertySettings restricts a metadata value to a set of terms.
// A nil Values list accepts any term.
type TermsMetadataPropertySettings struct {
	Values []string `json:"values,omitempty"`
}

// CheckMetadata accepts a single term or a list of terms, each of which must
// be one of the configured values when values are configured.
func (s *TermsMetadataPropertySettings) CheckMetadata(value any) error {
	switch v := value.(type) {
	case string:
		return s.checkTerm(v)
	case []any:
		for _, item := range v {
			term, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected a string term, found %T", item)
			}

			if err := s.checkTerm(term); err != nil {
				return err
			}
		}

		return nil
	default:
		return fmt.Errorf("expected a term or list of terms, found %T", value)
	}
}

func (s *TermsMetadataPropertySettings) checkTerm(term string) error {
	if s.Values == nil {
		return nil
	}

	for _, v := range s.Values {
		if v == term {
			return nil
		}
	}

	return fmt.Errorf("'%s' is not an allowed term. Allowed terms are: %s", term, formatStringList(s.Values))
}

// IntegerMetadataPropertySettings bounds an integer metadata value.
type IntegerMetadataPropertySettings struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// CheckMetadata requires an integral number within the configured bounds.
func (s *IntegerMetadataPropertySettings) CheckMetadata(value any) error {
	num, ok := value.(float64)
	if !ok || num != math.Trunc(num) {
		return fmt.Errorf("expected an integer value, found %v", value)
	}

	n := int64(num)
	if s.Min != nil && n < *s.Min {
		return fmt.Errorf("%d is less than the minimum %d", n, *s.Min)
	}

	if s.Max != nil && n > *s.Max {
		return fmt.Errorf("%d is greater than the maximum %d", n, *s.Max)
	}

	return nil
}

// FloatMetadataPropertySettings bounds a float metadata value.
type FloatMetadataPropertySettings struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// CheckMetadata requires a number within the configured bounds.
func (s *FloatMetadataPropertySettings) CheckMetadata(value any) error {
	num, ok := value.(float64)
	if !ok {
		return fmt.Errorf("expected a float value, found %v", value)
	}

	if s.Min != nil && num < *s.Min {
		return fmt.Errorf("%v is less than the minimum %v", num, *s.Min)
	}

	if s.Max != nil && num > *s.Max {
		return fmt.Errorf("%v is greater than the maximum %v", num, *s.Max)
	}

	return nil
}
