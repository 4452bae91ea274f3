package validators

import (
	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
)

// ValidateVector checks that a vector value matches the settings' dimensions.
func ValidateVector(settings *models.VectorSettings, value []float32) error {
	if len(value) != settings.Dimensions {
		return huberrors.NewValidationErrorf(
			"vector must have %d elements, got %d elements", settings.Dimensions, len(value))
	}

	return nil
}
