// Package codec provides the serialization boundary between typed
// values and the bytes the raw store persists.
package codec

import (
	"errors"
	"fmt"
)

// Codec errors returned by every implementation.
var (
	// ErrEncode indicates a value could not be serialized.
	ErrEncode = errors.New("codec: encode failed")

	// ErrDecode indicates stored bytes could not be deserialized into
	// the requested type. Malformed input always surfaces this error,
	// never a silent zero value.
	ErrDecode = errors.New("codec: decode failed")
)

// Codec encodes and decodes values for storage.
type Codec interface {
	// Marshal serializes v into bytes. Failures match ErrEncode.
	Marshal(v any) ([]byte, error)

	// Unmarshal deserializes data into v, which must be a pointer.
	// Failures match ErrDecode.
	Unmarshal(data []byte, v any) error

	// Name returns the codec identifier used for diagnostics and
	// configuration.
	Name() string
}

// ByName resolves a configured codec name.
func ByName(name string) (Codec, error) {
	switch name {
	case "json":
		return JSON{}, nil
	case "toml":
		return TOML{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q (known: json, toml)", name)
	}
}
