package settings

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/goccy/go-json"
)

// Type describes how a setting is validated and shaped on the wire. Raw
// values are the JSON-compatible trees produced by decoding a stored
// document: map[string]any, []any, float64, string, bool or nil.
type Type[T any] interface {
	Name() string
	// Structured types are JSON objects written field by field.
	Structured() bool
	// Fields lists the JSON field names of a structured type.
	Fields() []string
	Decode(raw any) (T, error)
	Encode(v T) (any, error)
}

// ObjectOptions configure an Object type.
type ObjectOptions[T any] struct {
	// Name overrides the Go type name in errors and logs.
	Name string
	// Required fields must be present for a stored value to decode.
	Required []string
	// Validate runs after decoding.
	Validate func(T) error
}

type objectType[T any] struct {
	name     string
	fields   []string
	required []string
	validate func(T) error
}

// Object describes a struct type using its json tags. Fields tagged
// omitempty are left out of writes when zero, which is how callers express
// a partial update through Set.
func Object[T any](opts ObjectOptions[T]) Type[T] {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct {
		panic(fmt.Sprintf("settings.Object: %s is not a struct", rt))
	}
	name := opts.Name
	if name == "" {
		name = rt.Name()
	}
	return objectType[T]{
		name:     name,
		fields:   jsonFields(rt),
		required: opts.Required,
		validate: opts.Validate,
	}
}

func (o objectType[T]) Name() string     { return o.name }
func (o objectType[T]) Structured() bool { return true }
func (o objectType[T]) Fields() []string { return slices.Clone(o.fields) }

func (o objectType[T]) Decode(raw any) (T, error) {
	var out T
	obj, ok := raw.(map[string]any)
	if !ok {
		return out, fmt.Errorf("expected object, got %s", kindOf(raw))
	}
	for _, f := range o.required {
		if v, ok := obj[f]; !ok || v == nil {
			return out, fmt.Errorf("missing field %q", f)
		}
	}
	if err := roundTrip(obj, &out); err != nil {
		return out, err
	}
	if o.validate != nil {
		if err := o.validate(out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (o objectType[T]) Encode(v T) (any, error) {
	var out map[string]any
	if err := roundTrip(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type scalarType[T any] struct {
	name     string
	validate func(T) error
}

// Scalar describes a value stored as a whole: a primitive, slice or map.
// validate may be nil.
func Scalar[T any](validate func(T) error) Type[T] {
	return scalarType[T]{name: reflect.TypeFor[T]().String(), validate: validate}
}

func (s scalarType[T]) Name() string     { return s.name }
func (s scalarType[T]) Structured() bool { return false }
func (s scalarType[T]) Fields() []string { return nil }

func (s scalarType[T]) Decode(raw any) (T, error) {
	var out T
	if raw == nil {
		return out, errors.New("value is null")
	}
	if err := roundTrip(raw, &out); err != nil {
		return out, err
	}
	if s.validate != nil {
		if err := s.validate(out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (s scalarType[T]) Encode(v T) (any, error) {
	var out any
	if err := roundTrip(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OneOf accepts only the listed values.
func OneOf[T comparable](allowed ...T) func(T) error {
	return func(v T) error {
		if slices.Contains(allowed, v) {
			return nil
		}
		return fmt.Errorf("%v is not one of %v", v, allowed)
	}
}

// Range accepts values within [lo, hi].
func Range[T cmp.Ordered](lo, hi T) func(T) error {
	return func(v T) error {
		if v < lo || v > hi {
			return fmt.Errorf("%v is outside [%v, %v]", v, lo, hi)
		}
		return nil
	}
}

// roundTrip converts between Go values and raw trees through JSON, which
// also enforces field types for the destination.
func roundTrip(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func jsonFields(rt reflect.Type) []string {
	var fields []string
	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		fields = append(fields, name)
	}
	return fields
}

func kindOf(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", raw)
	}
}
