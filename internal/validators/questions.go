package validators

import (
	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
)

// ValidateQuestionCreate enforces the other side of the ready gate: questions
// can only be added while the dataset is a draft. Span questions additionally
// require their target field to exist and to not already be claimed by
// another span question of the same dataset.
func ValidateQuestionCreate(dataset *models.Dataset, qc *models.QuestionCreate) error {
	if dataset.IsReady() {
		return huberrors.NewNotReadyError("questions cannot be created for a published dataset")
	}

	settings, err := models.ParseQuestionSettings(qc.Settings)
	if err != nil {
		return huberrors.NewValidationError(err.Error())
	}

	spanSettings, ok := settings.(*models.SpanQuestionSettings)
	if !ok {
		return nil
	}

	if dataset.FieldByName(spanSettings.Field) == nil {
		fieldNames := make([]string, len(dataset.Fields))
		for i := range dataset.Fields {
			fieldNames[i] = dataset.Fields[i].Name
		}

		return huberrors.NewValidationErrorf(
			"'%s' is not a valid field name. Valid field names are %v", spanSettings.Field, fieldNames)
	}

	for i := range dataset.Questions {
		question := &dataset.Questions[i]
		if question.Type() != models.QuestionTypeSpan {
			continue
		}

		existing, err := question.ParsedSettings()
		if err != nil {
			return err
		}

		if existing.(*models.SpanQuestionSettings).Field == spanSettings.Field {
			return huberrors.NewValidationErrorf(
				"'%s' is already used by span question with id '%s'", spanSettings.Field, question.ID)
		}
	}

	return nil
}

// ValidateQuestionDelete rejects deleting questions from a ready dataset.
func ValidateQuestionDelete(dataset *models.Dataset) error {
	if dataset.IsReady() {
		return huberrors.NewNotReadyError("questions cannot be deleted for a published dataset")
	}

	return nil
}
