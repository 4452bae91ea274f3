// Package validators implements the dataset-schema contract checks for
// records and their nested suggestions, responses and vectors. All checks are
// pure: they read the dataset schema and the incoming change, and fail with a
// huberrors.ValidationError describing the violated constraint.
package validators

import (
	"fmt"
	"sort"
	"strings"

	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
)

// ValidateRecordCreate checks an incoming record against the dataset schema:
// every required field present and non-null, no unconfigured fields, and
// metadata conforming to the matching metadata properties.
func ValidateRecordCreate(dataset *models.Dataset, rc *models.RecordCreate) error {
	if err := validateFields(dataset, rc.Fields); err != nil {
		return err
	}

	return validateMetadata(dataset, rc.Metadata.ValueOrZero())
}

// ValidateRecordUpdate checks an incoming record update. Fields are immutable
// through updates, so only metadata and the suggestion list shape are checked.
func ValidateRecordUpdate(dataset *models.Dataset, ru *models.RecordUpdateWithID) error {
	if err := validateMetadata(dataset, ru.Metadata.ValueOrZero()); err != nil {
		return err
	}

	return validateNoDuplicateSuggestions(ru.Suggestions)
}

// ValidateRecordUpsert checks an upsert item: as a create when no existing
// record matched, as an update when one did.
func ValidateRecordUpsert(dataset *models.Dataset, existing *models.Record, ru *models.RecordUpsert) error {
	if existing == nil {
		if err := validateFields(dataset, ru.Fields); err != nil {
			return err
		}
	}

	if err := validateMetadata(dataset, ru.Metadata.ValueOrZero()); err != nil {
		return err
	}

	return validateNoDuplicateSuggestions(ru.Suggestions)
}

func validateFields(dataset *models.Dataset, fields map[string]*string) error {
	for _, field := range dataset.Fields {
		if !field.Required {
			continue
		}

		if value, ok := fields[field.Name]; !ok || value == nil {
			return huberrors.NewValidationErrorf("missing required value for field: '%s'", field.Name)
		}
	}

	var extra []string

	for name := range fields {
		if dataset.FieldByName(name) == nil {
			extra = append(extra, name)
		}
	}

	if len(extra) > 0 {
		sort.Strings(extra)

		return huberrors.NewValidationErrorf(
			"found fields values for non configured fields: [%s]", strings.Join(extra, ", "))
	}

	return nil
}

func validateMetadata(dataset *models.Dataset, metadata map[string]any) error {
	for name, value := range metadata {
		property := dataset.MetadataPropertyByName(name)
		if property == nil {
			if dataset.AllowExtraMetadata {
				continue
			}

			return huberrors.NewValidationErrorf(
				"metadata is not valid: '%s' metadata property does not exist for dataset '%s' "+
					"and extra metadata is not allowed for this dataset", name, dataset.ID)
		}

		if value == nil {
			continue
		}

		settings, err := property.ParsedSettings()
		if err != nil {
			return fmt.Errorf("metadata property '%s': %w", name, err)
		}

		if err := settings.CheckMetadata(value); err != nil {
			return huberrors.NewValidationErrorf(
				"metadata is not valid: '%s' metadata property validation failed because %v", name, err)
		}
	}

	return nil
}

func validateNoDuplicateSuggestions(suggestions []models.SuggestionCreate) error {
	seen := make(map[string]struct{}, len(suggestions))

	for _, s := range suggestions {
		key := s.QuestionID.String()
		if _, dup := seen[key]; dup {
			return huberrors.NewValidationError("found duplicate suggestions question IDs")
		}

		seen[key] = struct{}{}
	}

	return nil
}
