package als

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Snapshot is a model together with the store version it was read at.
type Snapshot struct {
	Model   *Model
	Version int64
}

// Encode serialises a model into the blob format kept by model stores.
func Encode(m *Model) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Decode parses a blob produced by Encode and validates its shape.
func Decode(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
