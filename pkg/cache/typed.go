package cache

import (
	"encoding/json"
	"fmt"

	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
)

// RowsKey holds the table rows saved on exit.
const RowsKey = "table/rows"

// GetTyped decodes the value under key into a T. A miss or a value that
// does not decode yields the zero T and false.
func GetTyped[T any](s *Store, key string) (T, bool) {
	var v T
	data, ok := s.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// PutTyped encodes value as JSON and stores it with the default TTL.
func PutTyped[T any](s *Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %q: %w", key, err)
	}
	return s.Put(key, data)
}

// SaveRows stores rows under RowsKey.
func SaveRows(s *Store, rows []telemetry.Datum) error {
	return PutTyped(s, RowsKey, rows)
}

// LoadRows returns the rows saved by SaveRows, if any.
func LoadRows(s *Store) ([]telemetry.Datum, bool) {
	return GetTyped[[]telemetry.Datum](s, RowsKey)
}
