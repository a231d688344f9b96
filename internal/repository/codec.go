package repository

import (
	"encoding/json"
	"fmt"
)

// Encode turns a typed document into a field map. Values go through JSON so
// every store sees the same plain types (decimals become strings).
func Encode(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	delete(fields, "id")
	return fields, nil
}

// Decode fills v from a stored document and sets its "id" field.
func Decode(doc Document, v any) error {
	fields := make(map[string]any, len(doc.Fields)+1)
	for k, val := range doc.Fields {
		fields[k] = val
	}
	fields["id"] = doc.ID
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return nil
}

// DecodeAll decodes every document into a new T.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := Decode(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
