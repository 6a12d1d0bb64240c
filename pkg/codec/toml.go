package codec

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// TOML stores values as TOML documents, keeping entries hand-editable.
// TOML cannot represent everything JSON can: top-level scalars and
// arrays fail to encode, so it suits table-shaped values.
type TOML struct{}

func (TOML) Marshal(v any) ([]byte, error) {
	data, err := toml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

func (TOML) Unmarshal(data []byte, v any) error {
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func (TOML) Name() string { return "toml" }
