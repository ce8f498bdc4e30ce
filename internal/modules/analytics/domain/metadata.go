package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var ErrInvalidMetadata = errors.New("metadata must be a JSON object")

// Metadata is an opaque, order-preserving JSON object supplied by callers.
// The analytics core stores it but never interprets it. The zero value is
// an empty object.
type Metadata struct {
	pairs *orderedmap.OrderedMap[string, json.RawMessage]
}

// Set stores value under key. An existing key keeps its position.
func (m *Metadata) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode metadata %q: %w", key, err)
	}
	if m.pairs == nil {
		m.pairs = orderedmap.New[string, json.RawMessage]()
	}
	m.pairs.Set(key, raw)
	return nil
}

// Get returns the raw value stored under key
func (m Metadata) Get(key string) (json.RawMessage, bool) {
	if m.pairs == nil {
		return nil, false
	}
	return m.pairs.Get(key)
}

func (m Metadata) Len() int {
	if m.pairs == nil {
		return 0
	}
	return m.pairs.Len()
}

// Keys lists keys in insertion order
func (m Metadata) Keys() []string {
	keys := make([]string, 0, m.Len())
	if m.pairs == nil {
		return keys
	}
	for pair := m.pairs.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	if m.Len() == 0 {
		return []byte("{}"), nil
	}
	return m.pairs.MarshalJSON()
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*m = Metadata{}
		return nil
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrInvalidMetadata
	}

	pairs := orderedmap.New[string, json.RawMessage]()
	if err := pairs.UnmarshalJSON(trimmed); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	*m = Metadata{pairs: pairs}
	return nil
}

// Value stores metadata in a JSON (not JSONB) column so key order survives
func (m Metadata) Value() (driver.Value, error) {
	b, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		return m.UnmarshalJSON(v)
	case string:
		return m.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Metadata", src)
	}
}
