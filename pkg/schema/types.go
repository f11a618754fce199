package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Type defines the contract for value validation.
type Type interface {
	// Name returns the canonical type name ("string", "[int]").
	Name() string
	// Validate checks whether value conforms to the type.
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type numberType struct{}

func (numberType) Name() string { return "number" }

func (numberType) Validate(value any) error {
	if !isNumber(value) {
		return fmt.Errorf("expected number, got %T", value)
	}
	return nil
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float32:
		if float64(v) == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got fractional number %v", v)
	case float64:
		// JSON decoding yields float64 for every number.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got fractional number %v", v)
	case json.Number:
		if _, err := v.Int64(); err != nil {
			return fmt.Errorf("expected int, got %s", v)
		}
		return nil
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

type objectType struct{}

func (objectType) Name() string { return "object" }

func (objectType) Validate(value any) error {
	if value == nil {
		return fmt.Errorf("expected object, got nil")
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("expected object, got %T", value)
	}
	return nil
}

type anyType struct{}

func (anyType) Name() string       { return "any" }
func (anyType) Validate(any) error { return nil }

// ArrayType validates slices whose elements all conform to Elem.
// A nil Elem accepts any element.
type ArrayType struct {
	Elem Type
}

func (t *ArrayType) Name() string {
	if t.Elem == nil {
		return "array"
	}
	return "[" + t.Elem.Name() + "]"
}

func (t *ArrayType) Validate(value any) error {
	if value == nil {
		return fmt.Errorf("expected array, got nil")
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected array, got %T", value)
	}
	if t.Elem == nil {
		return nil
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.Elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type customType struct {
	name     string
	validate func(any) error
}

func (t *customType) Name() string             { return t.name }
func (t *customType) Validate(value any) error { return t.validate(value) }

func String() Type { return stringType{} }
func Number() Type { return numberType{} }
func Int() Type    { return intType{} }
func Bool() Type   { return boolType{} }
func Object() Type { return objectType{} }
func Any() Type    { return anyType{} }

// Array returns an array type; pass nil for untyped elements.
func Array(elem Type) Type { return &ArrayType{Elem: elem} }

// Custom creates a named type backed by a validation function.
func Custom(name string, validate func(any) error) Type {
	return &customType{name: name, validate: validate}
}

// ParseType converts a type name into a Type. Names are case-insensitive.
func ParseType(name string) (Type, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if len(s) > 2 && s[0] == '[' && s[len(s)-1] == ']' {
		elem, err := ParseType(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		return Array(elem), nil
	}
	switch s {
	case "string":
		return String(), nil
	case "number", "float":
		return Number(), nil
	case "int", "integer":
		return Int(), nil
	case "bool", "boolean":
		return Bool(), nil
	case "array", "list":
		return Array(nil), nil
	case "object", "map":
		return Object(), nil
	case "", "any":
		return Any(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", name)
	}
}

// ParseTypeMap converts {"name": "type"} into a Schema.
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	out := make(Schema, len(typeMap))
	for key, name := range typeMap {
		t, err := ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		out[key] = t
	}
	return out, nil
}

func isNumber(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return true
	}
	return false
}
