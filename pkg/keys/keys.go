// Package keys defines the storage key namespace: the closed set of
// well-known keys the application relies on, plus constructors for
// per-identifier key families and free-form keys.
package keys

import (
	"strings"

	"github.com/google/uuid"
)

// Key identifies a stored entry. Its string value is the literal
// relative path of the entry under the storage root.
type Key string

// Well-known keys. The storage layer attaches no meaning to them; they
// exist so call sites share one spelling.
const (
	CurrentUser  Key = "current-user"
	PrimaryImage Key = "primary-image"
	AppState     Key = "state"
	Settings     Key = "settings"
)

const (
	imagePrefix = "images/"
	tempPrefix  = "tmp/"
)

// Image returns the key for an image identified by id. Image keys
// share a prefix so all images land under one subdirectory.
func Image(id string) Key {
	return Key(imagePrefix + id)
}

// Temporary returns a fresh one-off key under the temp prefix. Entries
// stored under temporary keys are never cleaned up automatically.
func Temporary() Key {
	return Key(tempPrefix + uuid.NewString())
}

// Custom wraps a caller-chosen raw key. Validity (non-empty, no path
// traversal) is enforced by the raw store, not here.
func Custom(raw string) Key {
	return Key(raw)
}

// Parse maps any raw string onto the namespace: a string spelling a
// well-known key yields that key, everything else is free-form. Parse
// is total and never fails.
func Parse(raw string) Key {
	if k := Key(raw); k.WellKnown() {
		return k
	}
	return Custom(raw)
}

// String returns the storage key string for any key variant.
func (k Key) String() string {
	return string(k)
}

// WellKnown reports whether k belongs to the closed well-known set.
func (k Key) WellKnown() bool {
	switch k {
	case CurrentUser, PrimaryImage, AppState, Settings:
		return true
	}
	return false
}

// IsTemporary reports whether k was minted by Temporary.
func (k Key) IsTemporary() bool {
	return strings.HasPrefix(string(k), tempPrefix)
}

// WellKnownKeys returns the closed set of well-known keys.
func WellKnownKeys() []Key {
	return []Key{CurrentUser, PrimaryImage, AppState, Settings}
}
