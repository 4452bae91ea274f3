// Package datatypes provides shared leaf value types used across models and services.
package datatypes

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var jsonNull = []byte("null")

// Optional is a tri-state JSON field: absent, explicit null, or a value.
// A plain pointer cannot distinguish "key omitted" from "key set to null",
// which matters for partial updates where null means "clear this field"
// and omitted means "leave it untouched".
type Optional[T any] struct {
	set   bool
	valid bool
	value T
}

// NewOptional returns an Optional holding value.
func NewOptional[T any](value T) Optional[T] {
	return Optional[T]{set: true, valid: true, value: value}
}

// NullOptional returns an Optional that was explicitly set to null.
func NullOptional[T any]() Optional[T] {
	return Optional[T]{set: true, valid: false}
}

// IsSet reports whether the field was present in the payload (value or null).
func (o Optional[T]) IsSet() bool { return o.set }

// IsNull reports whether the field was explicitly set to null.
func (o Optional[T]) IsNull() bool { return o.set && !o.valid }

// Value returns the held value and whether a non-null value is present.
func (o Optional[T]) Value() (T, bool) {
	return o.value, o.set && o.valid
}

// ValueOrZero returns the held value, or the zero value when absent or null.
func (o Optional[T]) ValueOrZero() T {
	if o.set && o.valid {
		return o.value
	}

	var zero T

	return zero
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked when the key
// is present, so set is always true here; absent keys keep the zero Optional.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true

	if bytes.Equal(data, jsonNull) {
		o.valid = false

		return nil
	}

	if err := json.Unmarshal(data, &o.value); err != nil {
		return fmt.Errorf("unmarshal optional: %w", err)
	}

	o.valid = true

	return nil
}

// MarshalJSON implements json.Marshaler. Absent fields marshal as null; use
// omitzero-style handling at the struct level when absence must be preserved.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set || !o.valid {
		return jsonNull, nil
	}

	data, err := json.Marshal(o.value)
	if err != nil {
		return nil, fmt.Errorf("marshal optional: %w", err)
	}

	return data, nil
}
