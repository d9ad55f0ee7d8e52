package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the attribute value types a record can
// carry: String, Int, Bool, List and Map.
//
// There is no float and no null. Attributes are stored as canonical JSON and
// floats would make the stored bytes depend on formatting choices.
type Value interface {
	attrValue()
}

// String is a string attribute value.
type String string

func (String) attrValue() {}

// Int is an integer attribute value. Always int64.
type Int int64

func (Int) attrValue() {}

// Bool is a boolean attribute value.
type Bool bool

func (Bool) attrValue() {}

// List is an ordered list of attribute values.
type List []Value

func (List) attrValue() {}

// Map is a string-keyed set of attribute values.
// Use SortedKeys() for deterministic iteration.
type Map map[string]Value

func (Map) attrValue() {}

// Attrs is the application payload of a record.
type Attrs = Map

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's sort.Strings compares UTF-8 bytes, which orders some keys differently.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// MarshalJSON writes the map with keys in RFC 8785 order.
func (m Map) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(m)
}

// MarshalJSON writes the list elements in order.
func (l List) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(l)
}

// UnmarshalJSON decodes a JSON object into a Map, rejecting floats and null.
func (m *Map) UnmarshalJSON(data []byte) error {
	v, err := ParseValue(data)
	if err != nil {
		return err
	}
	obj, ok := v.(Map)
	if !ok {
		return fmt.Errorf("attributes must be a JSON object, got %T", v)
	}
	*m = obj
	return nil
}

// ParseValue decodes JSON into a Value.
// JSON null and non-integer numbers are rejected.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return FromAny(raw)
}

// ParseAttrs decodes a JSON object into Attrs. An empty input yields an
// empty map.
func ParseAttrs(data []byte) (Attrs, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Attrs{}, nil
	}
	var attrs Attrs
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("parse attrs: %w", err)
	}
	return attrs, nil
}

// FromAny converts decoded JSON or YAML data into a Value.
//
// Accepts the shapes produced by encoding/json with UseNumber and by
// gopkg.in/yaml.v3 (int, map[string]any).
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not an attribute value")
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are not attribute values: %s", s)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return Int(n), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are not attribute values: %v", val)
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			item, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = item
		}
		return list, nil
	case map[string]any:
		m := make(Map, len(val))
		for k, elem := range val {
			item, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			m[k] = item
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type: %T", v)
	}
}
