// Package optional provides a JSON field wrapper that tells an omitted field
// apart from one explicitly set to null.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value holds a field decoded from JSON.
// Set is true when the key was present in the document; Null is true when
// its value was the literal null.
type Value[T any] struct {
	V    T
	Set  bool
	Null bool
}

// Of returns a present, non-null value.
func Of[T any](v T) Value[T] {
	return Value[T]{V: v, Set: true}
}

// Null returns a present value explicitly set to null.
func Null[T any]() Value[T] {
	return Value[T]{Set: true, Null: true}
}

// Get returns the value and whether it carries one.
func (o Value[T]) Get() (T, bool) {
	return o.V, o.Set && !o.Null
}

// UnmarshalJSON is only invoked when the key is present, which is what
// marks the field as set.
func (o *Value[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.V = zero
		o.Null = true
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.V)
}

// MarshalJSON writes null for absent or null values.
func (o Value[T]) MarshalJSON() ([]byte, error) {
	if v, ok := o.Get(); ok {
		return json.Marshal(v)
	}
	return []byte("null"), nil
}
