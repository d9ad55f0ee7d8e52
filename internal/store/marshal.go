package store

import (
	"fmt"

	"github.com/roach88/timeline/internal/record"
)

// marshalAttrs converts attrs to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so equal attrs are stored as equal bytes.
func marshalAttrs(attrs record.Attrs) (string, error) {
	if attrs == nil {
		return "{}", nil
	}
	data, err := record.MarshalCanonical(attrs)
	if err != nil {
		return "", fmt.Errorf("marshal attrs: %w", err)
	}
	return string(data), nil
}

// unmarshalAttrs parses canonical JSON TEXT to Attrs.
// Integers are decoded via json.Number so values above 2^53 survive.
func unmarshalAttrs(data string) (record.Attrs, error) {
	if data == "" || data == "{}" {
		return record.Attrs{}, nil
	}
	attrs, err := record.ParseAttrs([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal attrs: %w", err)
	}
	return attrs, nil
}
