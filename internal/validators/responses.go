package validators

import (
	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
)

// ValidateResponseCreate checks an annotator response against a record whose
// dataset schema is loaded. Submitted responses must answer every required
// question; no response may answer a question the dataset does not configure;
// each present value is checked by its question's settings.
func ValidateResponseCreate(record *models.Record, rc *models.ResponseCreate) error {
	dataset := record.Dataset

	if rc.IsSubmitted() && len(rc.Values) == 0 {
		return huberrors.NewValidationError("missing response values for submitted response")
	}

	if rc.IsSubmitted() {
		for i := range dataset.Questions {
			question := &dataset.Questions[i]
			if !question.Required {
				continue
			}

			if _, ok := rc.Values[question.Name]; !ok {
				return huberrors.NewValidationErrorf(
					"missing response value for required question with name=%s", question.Name)
			}
		}
	}

	for name := range rc.Values {
		if dataset.QuestionByName(name) == nil {
			return huberrors.NewValidationErrorf(
				"found response value for non configured question with name='%s'", name)
		}
	}

	for i := range dataset.Questions {
		question := &dataset.Questions[i]

		value, ok := rc.Values[question.Name]
		if !ok {
			continue
		}

		settings, err := question.ParsedSettings()
		if err != nil {
			return err
		}

		if err := settings.CheckResponse(value.Value, record, rc.Status); err != nil {
			return huberrors.NewValidationError(err.Error())
		}
	}

	return nil
}
