package validators

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/models"
)

func annotatedRecord() *models.Record {
	dataset := testDataset()
	dataset.Questions = []models.Question{
		{
			ID:       uuid.MustParse("0198f6a2-0000-7000-8000-000000000010"),
			Name:     "sentiment",
			Required: true,
			Settings: json.RawMessage(`{"type":"label_selection","options":[{"value":"positive","text":"P"},{"value":"negative","text":"N"}]}`),
		},
		{
			ID:       uuid.MustParse("0198f6a2-0000-7000-8000-000000000011"),
			Name:     "comment",
			Required: false,
			Settings: json.RawMessage(`{"type":"text"}`),
		},
	}

	return &models.Record{
		ID:      uuid.MustParse("0198f6a2-0000-7000-8000-0000000000ff"),
		Fields:  map[string]*string{"text": strPtr("hello world")},
		Dataset: dataset,
	}
}

func TestValidateResponseCreate(t *testing.T) {
	userID := uuid.MustParse("0198f6a2-0000-7000-8000-000000000020")

	tests := []struct {
		name     string
		response models.ResponseCreate
		wantErr  string
	}{
		{
			name: "submitted with all required answers",
			response: models.ResponseCreate{
				UserID: userID,
				Status: models.ResponseStatusSubmitted,
				Values: map[string]models.ResponseValue{
					"sentiment": {Value: "positive"},
				},
			},
		},
		{
			name: "submitted with optional answer too",
			response: models.ResponseCreate{
				UserID: userID,
				Status: models.ResponseStatusSubmitted,
				Values: map[string]models.ResponseValue{
					"sentiment": {Value: "negative"},
					"comment":   {Value: "borderline case"},
				},
			},
		},
		{
			name: "draft may skip required questions",
			response: models.ResponseCreate{
				UserID: userID,
				Status: models.ResponseStatusDraft,
				Values: map[string]models.ResponseValue{
					"comment": {Value: "wip"},
				},
			},
		},
		{
			name: "discarded without values",
			response: models.ResponseCreate{
				UserID: userID,
				Status: models.ResponseStatusDiscarded,
			},
		},
		{
			name: "submitted without values",
			response: models.ResponseCreate{
				UserID: userID,
				Status: models.ResponseStatusSubmitted,
			},
			wantErr: "missing response values for submitted response",
		},
		{
			name: "submitted missing required question",
			response: models.ResponseCreate{
				UserID: userID,
				Status: models.ResponseStatusSubmitted,
				Values: map[string]models.ResponseValue{
					"comment": {Value: "no sentiment given"},
				},
			},
			wantErr: "missing response value for required question with name=sentiment",
		},
		{
			name: "unconfigured question",
			response: models.ResponseCreate{
				UserID: userID,
				Status: models.ResponseStatusDraft,
				Values: map[string]models.ResponseValue{
					"mystery": {Value: "x"},
				},
			},
			wantErr: "found response value for non configured question with name='mystery'",
		},
		{
			name: "value fails question settings",
			response: models.ResponseCreate{
				UserID: userID,
				Status: models.ResponseStatusSubmitted,
				Values: map[string]models.ResponseValue{
					"sentiment": {Value: "neutral"},
				},
			},
			wantErr: "'neutral' is not a valid option",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResponseCreate(annotatedRecord(), &tt.response)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				return
			}

			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
