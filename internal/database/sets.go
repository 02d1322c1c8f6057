package database

import (
	"encoding/json"
	"fmt"
)

// Set-valued fields are stored as JSON arrays so json_each can answer
// containment filters.

func encodeSet(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode set: %w", err)
	}
	return string(b), nil
}

func decodeSet(raw string) ([]string, error) {
	values := []string{}
	if raw == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode set: %w", err)
	}
	return values, nil
}

func containsClause(column string) string {
	return "EXISTS (SELECT 1 FROM json_each(" + column + ") WHERE value = ?)"
}
