package validators

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/datatypes"
	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
)

func strPtr(s string) *string { return &s }

func testDataset() *models.Dataset {
	return &models.Dataset{
		ID:     uuid.MustParse("0198f6a2-0000-7000-8000-000000000001"),
		Name:   "sentiment",
		Status: models.DatasetStatusReady,
		Fields: []models.Field{
			{Name: "text", Required: true},
			{Name: "context", Required: false},
		},
		MetadataProperties: []models.MetadataProperty{
			{
				Name:     "split",
				Type:     models.MetadataPropertyTypeTerms,
				Settings: json.RawMessage(`{"values":["train","test"]}`),
			},
		},
	}
}

func TestValidateRecordCreate(t *testing.T) {
	dataset := testDataset()

	tests := []struct {
		name    string
		record  models.RecordCreate
		wantErr string
	}{
		{
			name:   "valid record",
			record: models.RecordCreate{Fields: map[string]*string{"text": strPtr("hello")}},
		},
		{
			name: "optional field omitted",
			record: models.RecordCreate{
				Fields: map[string]*string{"text": strPtr("hello")},
			},
		},
		{
			name:    "missing required field",
			record:  models.RecordCreate{Fields: map[string]*string{"context": strPtr("x")}},
			wantErr: "missing required value for field: 'text'",
		},
		{
			name:    "required field null",
			record:  models.RecordCreate{Fields: map[string]*string{"text": nil}},
			wantErr: "missing required value for field: 'text'",
		},
		{
			name: "unconfigured fields",
			record: models.RecordCreate{
				Fields: map[string]*string{
					"text":  strPtr("hello"),
					"zzz":   strPtr("x"),
					"other": strPtr("y"),
				},
			},
			wantErr: "found fields values for non configured fields: [other, zzz]",
		},
		{
			name: "valid metadata",
			record: models.RecordCreate{
				Fields:   map[string]*string{"text": strPtr("hello")},
				Metadata: datatypes.NewOptional(map[string]any{"split": "train"}),
			},
		},
		{
			name: "metadata violates property",
			record: models.RecordCreate{
				Fields:   map[string]*string{"text": strPtr("hello")},
				Metadata: datatypes.NewOptional(map[string]any{"split": "dev"}),
			},
			wantErr: "'split' metadata property validation failed because",
		},
		{
			name: "unknown metadata property",
			record: models.RecordCreate{
				Fields:   map[string]*string{"text": strPtr("hello")},
				Metadata: datatypes.NewOptional(map[string]any{"lang": "en"}),
			},
			wantErr: "'lang' metadata property does not exist for dataset " +
				"'0198f6a2-0000-7000-8000-000000000001' and extra metadata is not allowed",
		},
		{
			name: "null metadata value skips checks",
			record: models.RecordCreate{
				Fields:   map[string]*string{"text": strPtr("hello")},
				Metadata: datatypes.NewOptional(map[string]any{"split": nil}),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecordCreate(dataset, &tt.record)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				return
			}

			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}

			if !errors.Is(err, huberrors.ErrValidation) {
				t.Errorf("expected a validation error, got %T", err)
			}
		})
	}
}

func TestValidateRecordCreate_extraMetadata(t *testing.T) {
	record := models.RecordCreate{
		Fields:   map[string]*string{"text": strPtr("hello")},
		Metadata: datatypes.NewOptional(map[string]any{"custom": "anything"}),
	}

	strict := testDataset()
	strict.AllowExtraMetadata = false

	err := ValidateRecordCreate(strict, &record)
	if err == nil || !strings.Contains(err.Error(), "extra metadata is not allowed for this dataset") {
		t.Errorf("strict dataset error = %v", err)
	}

	relaxed := testDataset()
	relaxed.AllowExtraMetadata = true

	if err := ValidateRecordCreate(relaxed, &record); err != nil {
		t.Errorf("relaxed dataset: %v", err)
	}
}

func TestValidateRecordUpdate(t *testing.T) {
	dataset := testDataset()
	questionID := uuid.MustParse("0198f6a2-0000-7000-8000-00000000000a")

	update := models.RecordUpdateWithID{
		ID:       uuid.MustParse("0198f6a2-0000-7000-8000-0000000000ff"),
		Metadata: datatypes.NewOptional(map[string]any{"split": "test"}),
		Suggestions: []models.SuggestionCreate{
			{QuestionID: questionID, Value: "positive"},
		},
	}

	if err := ValidateRecordUpdate(dataset, &update); err != nil {
		t.Errorf("valid update: %v", err)
	}

	update.Suggestions = append(update.Suggestions, models.SuggestionCreate{
		QuestionID: questionID, Value: "negative",
	})

	err := ValidateRecordUpdate(dataset, &update)
	if err == nil || !strings.Contains(err.Error(), "found duplicate suggestions question IDs") {
		t.Errorf("duplicate suggestions error = %v", err)
	}
}

func TestValidateRecordUpsert(t *testing.T) {
	dataset := testDataset()

	asCreate := models.RecordUpsert{ExternalID: strPtr("rec-1")}
	if err := ValidateRecordUpsert(dataset, nil, &asCreate); err == nil {
		t.Error("expected missing fields error for upsert without existing record")
	}

	existing := &models.Record{ID: uuid.MustParse("0198f6a2-0000-7000-8000-0000000000ee")}
	if err := ValidateRecordUpsert(dataset, existing, &asCreate); err != nil {
		t.Errorf("upsert against existing record should skip field checks: %v", err)
	}
}

func TestValidateVector(t *testing.T) {
	settings := &models.VectorSettings{Name: "sentence", Dimensions: 3}

	if err := ValidateVector(settings, []float32{0.1, 0.2, 0.3}); err != nil {
		t.Errorf("matching dimensions: %v", err)
	}

	err := ValidateVector(settings, []float32{0.1})
	want := "vector must have 3 elements, got 1 elements"

	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %q", err, want)
	}
}

func TestValidateSuggestionCreate(t *testing.T) {
	settings := &models.LabelSelectionQuestionSettings{
		SettingsType: models.QuestionTypeLabelSelection,
		Options:      []models.OptionValue{{Value: "positive"}, {Value: "negative"}},
	}

	score := 0.9
	valid := models.SuggestionCreate{Value: "positive", Score: &score}

	if err := ValidateSuggestionCreate(settings, nil, &valid); err != nil {
		t.Errorf("valid suggestion: %v", err)
	}

	outOfRange := 1.2
	badScore := models.SuggestionCreate{Value: "positive", Score: &outOfRange}

	err := ValidateSuggestionCreate(settings, nil, &badScore)
	if err == nil || !strings.Contains(err.Error(), "score must be between 0 and 1") {
		t.Errorf("score error = %v", err)
	}

	badValue := models.SuggestionCreate{Value: "neutral"}

	err = ValidateSuggestionCreate(settings, nil, &badValue)
	if err == nil || !strings.Contains(err.Error(), "'neutral' is not a valid option") {
		t.Errorf("value error = %v", err)
	}
}
