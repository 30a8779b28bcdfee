package registry

import (
	"fmt"

	"github.com/google/uuid"
)

// IDSource hands out identity tokens. Tokens must be unique within one
// registry and are never reused.
type IDSource interface {
	NewID() string
}

// UUIDSource issues random version-4 UUIDs
type UUIDSource struct{}

// NewID returns a fresh random UUID
func (UUIDSource) NewID() string {
	return uuid.NewString()
}

// CounterSource issues deterministic UUID-shaped tokens, for reproducible
// snapshot output. Not safe for concurrent use.
type CounterSource struct {
	next uint64
}

// NewID returns the next token in sequence
func (c *CounterSource) NewID() string {
	c.next++
	return fmt.Sprintf("00000000-0000-4000-8000-%012x", c.next)
}

// NewIDSource returns the source for a configured scheme ("uuid" or "counter")
func NewIDSource(scheme string) (IDSource, error) {
	switch scheme {
	case "", "uuid":
		return UUIDSource{}, nil
	case "counter":
		return &CounterSource{}, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
}
