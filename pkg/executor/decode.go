package executor

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/lattice/pkg/domain"
)

// decodeData decodes a node payload into a typed config using the json tags.
func decodeData(node domain.Node, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(node.Data); err != nil {
		return invalidInput(node, "decode %s data: %v", node.Type, err)
	}
	return nil
}

// ParseLiteral parses a JSON literal ("42", "[1,2]", "{\"a\":1}", "true").
// Malformed JSON is repaired when possible ("[1, 2,", "{a: 1}").
// Whole numbers decode as int64, others as float64.
func ParseLiteral(s string) (any, error) {
	v, err := decodeJSON(s)
	if err == nil {
		return v, nil
	}
	repaired, repairErr := jsonrepair.JSONRepair(s)
	if repairErr != nil {
		return nil, fmt.Errorf("parse literal %q: %w", s, err)
	}
	v, err = decodeJSON(repaired)
	if err != nil {
		return nil, fmt.Errorf("parse repaired literal %q: %w", repaired, err)
	}
	return v, nil
}

func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after literal")
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
		return t
	}
	return v
}

// toSlice returns v as []any when it is a slice or array.
func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
