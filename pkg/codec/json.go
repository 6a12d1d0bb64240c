package codec

import (
	"encoding/json"
	"fmt"
)

// JSON is the default codec. Values are stored as self-describing JSON
// documents, so entries stay inspectable with ordinary tools.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

func (JSON) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func (JSON) Name() string { return "json" }
