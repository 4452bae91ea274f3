package validators

import (
	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
)

// ValidateSuggestionCreate checks a suggestion's value against the question's
// settings and the record it targets. Suggestions carry no response status,
// so status-dependent rules (e.g. ranking completeness) do not apply.
func ValidateSuggestionCreate(
	settings models.QuestionSettings, record *models.Record, sc *models.SuggestionCreate,
) error {
	if sc.Score != nil && (*sc.Score < 0 || *sc.Score > 1) {
		return huberrors.NewValidationErrorf("score must be between 0 and 1, got %v", *sc.Score)
	}

	if err := settings.CheckResponse(sc.Value, record, ""); err != nil {
		return huberrors.NewValidationError(err.Error())
	}

	return nil
}
