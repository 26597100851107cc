package repository

import (
	"encoding/json"
	"fmt"
)

// Nested workbook structures are stored as JSON text columns; only the
// fields queries filter or sort on get their own columns.

func marshalColumn(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode column: %w", err)
	}
	return string(raw), nil
}

func unmarshalColumn(raw string, v interface{}) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode column: %w", err)
	}
	return nil
}
