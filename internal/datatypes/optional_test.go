package datatypes

import (
	"encoding/json"
	"testing"
)

func TestOptional_UnmarshalJSON(t *testing.T) {
	type payload struct {
		Metadata Optional[map[string]any] `json:"metadata"`
	}

	tests := []struct {
		name     string
		body     string
		wantSet  bool
		wantNull bool
	}{
		{name: "absent key", body: `{}`, wantSet: false, wantNull: false},
		{name: "explicit null", body: `{"metadata": null}`, wantSet: true, wantNull: true},
		{name: "value", body: `{"metadata": {"split": "train"}}`, wantSet: true, wantNull: false},
		{name: "empty object", body: `{"metadata": {}}`, wantSet: true, wantNull: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			if p.Metadata.IsSet() != tt.wantSet {
				t.Errorf("IsSet() = %v, want %v", p.Metadata.IsSet(), tt.wantSet)
			}

			if p.Metadata.IsNull() != tt.wantNull {
				t.Errorf("IsNull() = %v, want %v", p.Metadata.IsNull(), tt.wantNull)
			}
		})
	}
}

func TestOptional_Value(t *testing.T) {
	opt := NewOptional(map[string]any{"split": "train"})

	value, ok := opt.Value()
	if !ok {
		t.Fatal("expected value to be present")
	}

	if value["split"] != "train" {
		t.Errorf("value = %v, want split=train", value)
	}

	null := NullOptional[map[string]any]()
	if _, ok := null.Value(); ok {
		t.Error("expected null optional to report no value")
	}

	var absent Optional[map[string]any]
	if got := absent.ValueOrZero(); got != nil {
		t.Errorf("ValueOrZero() on absent = %v, want nil", got)
	}
}

func TestOptional_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewOptional("hello"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(data) != `"hello"` {
		t.Errorf("marshal value = %s, want %q", data, `"hello"`)
	}

	data, err = json.Marshal(NullOptional[string]())
	if err != nil {
		t.Fatalf("marshal null: %v", err)
	}

	if string(data) != "null" {
		t.Errorf("marshal null = %s, want null", data)
	}
}

func TestOptional_UnmarshalJSON_typeMismatch(t *testing.T) {
	var opt Optional[int]
	if err := opt.UnmarshalJSON([]byte(`"not a number"`)); err == nil {
		t.Fatal("expected an error for mismatched type")
	}
}
