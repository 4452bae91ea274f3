package models

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionType discriminates the question settings union.
type QuestionType string

const (
	QuestionTypeText                QuestionType = "text"
	QuestionTypeRating              QuestionType = "rating"
	QuestionTypeLabelSelection      QuestionType = "label_selection"
	QuestionTypeMultiLabelSelection QuestionType = "multi_label_selection"
	QuestionTypeRanking             QuestionType = "ranking"
	QuestionTypeSpan                QuestionType = "span"
)

// SpanValueMaxItems caps the number of span items in a single value.
const SpanValueMaxItems = 10_000

// Question is one annotation task configured on a dataset. Settings is the
// raw typed payload; ParsedSettings decodes it into the concrete variant.
type Question struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Required    bool            `json:"required"`
	Settings    json.RawMessage `json:"settings"`
	DatasetID   uuid.UUID       `json:"dataset_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Type peeks the settings discriminator without fully decoding the settings.
func (q *Question) Type() QuestionType {
	var head struct {
		Type QuestionType `json:"type"`
	}

	if err := json.Unmarshal(q.Settings, &head); err != nil {
		return ""
	}

	return head.Type
}

// ParsedSettings decodes the settings payload into its concrete variant.
func (q *Question) ParsedSettings() (QuestionSettings, error) {
	return ParseQuestionSettings(q.Settings)
}

// QuestionSettings is the closed union over the six question kinds. Each
// variant validates response and suggestion values against its configuration.
type QuestionSettings interface {
	Type() QuestionType

	// CheckResponse validates a decoded JSON value for this question against
	// the record it belongs to. status tightens the rules for submitted
	// responses; suggestions pass an empty status.
	CheckResponse(value any, record *Record, status ResponseStatus) error
}

// ParseQuestionSettings decodes a settings payload by its type discriminator.
func ParseQuestionSettings(raw json.RawMessage) (QuestionSettings, error) {
	var head struct {
		Type QuestionType `json:"type"`
	}

	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("parse question settings type: %w", err)
	}

	var (
		settings QuestionSettings
		err      error
	)

	switch head.Type {
	case QuestionTypeText:
		settings, err = decodeSettings[TextQuestionSettings](raw)
	case QuestionTypeRating:
		settings, err = decodeSettings[RatingQuestionSettings](raw)
	case QuestionTypeLabelSelection:
		settings, err = decodeSettings[LabelSelectionQuestionSettings](raw)
	case QuestionTypeMultiLabelSelection:
		settings, err = decodeSettings[MultiLabelSelectionQuestionSettings](raw)
	case QuestionTypeRanking:
		settings, err = decodeSettings[RankingQuestionSettings](raw)
	case QuestionTypeSpan:
		settings, err = decodeSettings[SpanQuestionSettings](raw)
	default:
		return nil, fmt.Errorf("unknown question type %q", head.Type)
	}

	if err != nil {
		return nil, err
	}

	return settings, nil
}

func decodeSettings[T any](raw json.RawMessage) (*T, error) {
	var s T
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse question settings: %w", err)
	}

	return &s, nil
}

// OptionValue is one selectable option of a label, multi-label, ranking or
// span question.
type OptionValue struct {
	Value       string  `json:"value"`
	Text        string  `json:"text"`
	Description *string `json:"description,omitempty"`
}

// RatingOption is one selectable value of a rating question.
type RatingOption struct {
	Value int `json:"value"`
}

// TextQuestionSettings configures a free-text question.
type TextQuestionSettings struct {
	SettingsType QuestionType `json:"type"`
	UseMarkdown  bool         `json:"use_markdown"`
}

func (s *TextQuestionSettings) Type() QuestionType { return QuestionTypeText }

// CheckResponse requires a string value.
func (s *TextQuestionSettings) CheckResponse(value any, _ *Record, _ ResponseStatus) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("text question expects a text value, found %T", value)
	}

	return nil
}

// RatingQuestionSettings configures a fixed-scale rating question.
type RatingQuestionSettings struct {
	SettingsType QuestionType   `json:"type"`
	Options      []RatingOption `json:"options"`
}

func (s *RatingQuestionSettings) Type() QuestionType { return QuestionTypeRating }

// OptionValues returns the configured rating values.
func (s *RatingQuestionSettings) OptionValues() []int {
	values := make([]int, len(s.Options))
	for i, o := range s.Options {
		values[i] = o.Value
	}

	return values
}

// CheckResponse requires an exact match against a configured option value.
func (s *RatingQuestionSettings) CheckResponse(value any, _ *Record, _ ResponseStatus) error {
	num, ok := value.(float64)
	if !ok || num != math.Trunc(num) {
		return fmt.Errorf("%v is not a valid option. Valid options are: %s", value, formatIntList(s.OptionValues()))
	}

	rating := int(num)
	for _, v := range s.OptionValues() {
		if v == rating {
			return nil
		}
	}

	return fmt.Errorf("%d is not a valid option. Valid options are: %s", rating, formatIntList(s.OptionValues()))
}

// LabelSelectionQuestionSettings configures a single-label selection question.
type LabelSelectionQuestionSettings struct {
	SettingsType   QuestionType  `json:"type"`
	Options        []OptionValue `json:"options"`
	VisibleOptions *int          `json:"visible_options,omitempty"`
}

func (s *LabelSelectionQuestionSettings) Type() QuestionType { return QuestionTypeLabelSelection }

// OptionValues returns the configured label values.
func (s *LabelSelectionQuestionSettings) OptionValues() []string {
	values := make([]string, len(s.Options))
	for i, o := range s.Options {
		values[i] = o.Value
	}

	return values
}

// CheckResponse requires the value to be one of the configured labels.
func (s *LabelSelectionQuestionSettings) CheckResponse(value any, _ *Record, _ ResponseStatus) error {
	label, ok := value.(string)
	if !ok {
		return fmt.Errorf("label selection question expects a text value, found %T", value)
	}

	for _, v := range s.OptionValues() {
		if v == label {
			return nil
		}
	}

	return fmt.Errorf("'%s' is not a valid option. Valid options are: %s", label, formatStringList(s.OptionValues()))
}

// MultiLabelSelectionQuestionSettings configures a multi-label selection question.
type MultiLabelSelectionQuestionSettings struct {
	LabelSelectionQuestionSettings
}

func (s *MultiLabelSelectionQuestionSettings) Type() QuestionType {
	return QuestionTypeMultiLabelSelection
}

// CheckResponse requires a non-empty list of unique labels, all configured.
func (s *MultiLabelSelectionQuestionSettings) CheckResponse(value any, _ *Record, _ ResponseStatus) error {
	items, ok := value.([]any)
	if !ok {
		return fmt.Errorf("multi label selection question expects a list of values, found %T", value)
	}

	if len(items) == 0 {
		return fmt.Errorf("multi label selection question expects a list of values, found empty list")
	}

	labels := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		label, ok := item.(string)
		if !ok {
			return fmt.Errorf("multi label selection question expects a list of text values, found %T", item)
		}

		if _, dup := seen[label]; dup {
			return fmt.Errorf("multi label selection question expects a list of unique values, but duplicates were found")
		}

		seen[label] = struct{}{}
		labels = append(labels, label)
	}

	if invalid := missingFrom(labels, s.OptionValues()); len(invalid) > 0 {
		return fmt.Errorf("%s are not valid options. Valid options are: %s",
			formatStringList(invalid), formatStringList(s.OptionValues()))
	}

	return nil
}

// RankingValueItem is one entry of a ranking value.
type RankingValueItem struct {
	Value string `json:"value"`
	Rank  *int   `json:"rank,omitempty"`
}

// RankingQuestionSettings configures a ranking question.
type RankingQuestionSettings struct {
	SettingsType QuestionType  `json:"type"`
	Options      []OptionValue `json:"options"`
}

func (s *RankingQuestionSettings) Type() QuestionType { return QuestionTypeRanking }

// OptionValues returns the configured rankable values.
func (s *RankingQuestionSettings) OptionValues() []string {
	values := make([]string, len(s.Options))
	for i, o := range s.Options {
		values[i] = o.Value
	}

	return values
}

// RankValues returns the valid rank range [1, len(options)].
func (s *RankingQuestionSettings) RankValues() []int {
	ranks := make([]int, len(s.Options))
	for i := range s.Options {
		ranks[i] = i + 1
	}

	return ranks
}

// CheckResponse validates a list of {value, rank} pairs. Submitted responses
// must rank every configured option with ranks drawn from [1, len(options)].
// Option values must be unique and configured; rank uniqueness is only
// guaranteed indirectly by the submitted completeness check.
func (s *RankingQuestionSettings) CheckResponse(value any, _ *Record, status ResponseStatus) error {
	items, err := decodeValueAs[[]RankingValueItem](value)
	if err != nil {
		return fmt.Errorf("ranking question expects a list of values, found %T", value)
	}

	values := make([]string, len(items))
	ranks := make([]int, 0, len(items))

	for i, item := range items {
		values[i] = item.Value
		if item.Rank != nil {
			ranks = append(ranks, *item.Rank)
		}
	}

	if status == ResponseStatusSubmitted {
		if len(items) != len(s.Options) {
			return fmt.Errorf("ranking question expects a list containing %d values, found a list of %d values",
				len(s.Options), len(items))
		}

		if invalid := missingIntsFrom(ranks, s.RankValues()); len(invalid) > 0 || len(ranks) != len(items) {
			return fmt.Errorf("%s are not valid ranks. Valid ranks are: %s",
				formatIntList(invalid), formatIntList(s.RankValues()))
		}
	}

	if invalid := missingFrom(values, s.OptionValues()); len(invalid) > 0 {
		return fmt.Errorf("%s are not valid options. Valid options are: %s",
			formatStringList(invalid), formatStringList(s.OptionValues()))
	}

	unique := make(map[string]struct{}, len(values))
	for _, v := range values {
		unique[v] = struct{}{}
	}

	if len(unique) != len(values) {
		return fmt.Errorf("ranking question expects a list of unique values, but duplicates were found")
	}

	return nil
}

// SpanValueItem is one labeled character span over a record field.
type SpanValueItem struct {
	Label string   `json:"label"`
	Start int      `json:"start"`
	End   int      `json:"end"`
	Score *float64 `json:"score,omitempty"`
}

// SpanQuestionSettings configures a span question over one record field.
type SpanQuestionSettings struct {
	SettingsType   QuestionType  `json:"type"`
	Field          string        `json:"field"`
	Options        []OptionValue `json:"options"`
	VisibleOptions *int          `json:"visible_options,omitempty"`
}

func (s *SpanQuestionSettings) Type() QuestionType { return QuestionTypeSpan }

// OptionValues returns the configured span labels.
func (s *SpanQuestionSettings) OptionValues() []string {
	values := make([]string, len(s.Options))
	for i, o := range s.Options {
		values[i] = o.Value
	}

	return values
}

// CheckResponse validates a list of {label, start, end, score} items against
// the record's value for the configured field.
func (s *SpanQuestionSettings) CheckResponse(value any, record *Record, _ ResponseStatus) error {
	items, err := decodeValueAs[[]SpanValueItem](value)
	if err != nil {
		return fmt.Errorf("span question expects a list of values, found %T", value)
	}

	if len(items) > SpanValueMaxItems {
		return fmt.Errorf("span question expects a list with at most %d values, found %d", SpanValueMaxItems, len(items))
	}

	fieldValue, ok := record.FieldValue(s.Field)
	if !ok {
		return fmt.Errorf("span question requires record to have field '%s'", s.Field)
	}

	fieldLen := len(fieldValue)

	for _, item := range items {
		if err := s.checkItem(item, fieldLen); err != nil {
			return err
		}
	}

	return nil
}

func (s *SpanQuestionSettings) checkItem(item SpanValueItem, fieldLen int) error {
	if item.Start < 0 {
		return fmt.Errorf("span question value 'start' must be greater or equal than 0")
	}

	if item.End <= item.Start {
		return fmt.Errorf("span question value 'end' must have a value greater than 'start'")
	}

	if item.Start > fieldLen-1 {
		return fmt.Errorf(
			"span question value 'start' must have a value lower than record field '%s' length that is '%d'",
			s.Field, fieldLen)
	}

	if item.End > fieldLen {
		return fmt.Errorf(
			"span question value 'end' must have a value lower or equal than record field '%s' length that is '%d'",
			s.Field, fieldLen)
	}

	if item.Score != nil && (*item.Score < 0 || *item.Score > 1) {
		return fmt.Errorf("span question value 'score' must be between 0 and 1, got %v", *item.Score)
	}

	found := false

	for _, label := range s.OptionValues() {
		if label == item.Label {
			found = true

			break
		}
	}

	if !found {
		return fmt.Errorf("undefined label '%s' for span question. Valid labels are: %s",
			item.Label, formatStringList(s.OptionValues()))
	}

	return nil
}

// decodeValueAs round-trips a decoded JSON value into a typed representation.
func decodeValueAs[T any](value any) (T, error) {
	var out T

	raw, err := json.Marshal(value)
	if err != nil {
		return out, fmt.Errorf("encode value: %w", err)
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode value: %w", err)
	}

	return out, nil
}

// missingFrom returns the sorted elements of values not present in allowed.
func missingFrom(values, allowed []string) []string {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		allowedSet[v] = struct{}{}
	}

	missingSet := make(map[string]struct{})

	for _, v := range values {
		if _, ok := allowedSet[v]; !ok {
			missingSet[v] = struct{}{}
		}
	}

	missing := make([]string, 0, len(missingSet))
	for v := range missingSet {
		missing = append(missing, v)
	}

	sort.Strings(missing)

	return missing
}

// missingIntsFrom returns the sorted elements of values not present in allowed.
func missingIntsFrom(values, allowed []int) []int {
	allowedSet := make(map[int]struct{}, len(allowed))
	for _, v := range allowed {
		allowedSet[v] = struct{}{}
	}

	missingSet := make(map[int]struct{})

	for _, v := range values {
		if _, ok := allowedSet[v]; !ok {
			missingSet[v] = struct{}{}
		}
	}

	missing := make([]int, 0, len(missingSet))
	for v := range missingSet {
		missing = append(missing, v)
	}

	sort.Ints(missing)

	return missing
}

// formatStringList renders values as ['a','b'] to match the error message
// contract exposed to API clients.
func formatStringList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}

	return "[" + strings.Join(quoted, ",") + "]"
}

// formatIntList renders values as [1,2,3].
func formatIntList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}

	return "[" + strings.Join(parts, ",") + "]"
}
