// Package cache stores rendered documents keyed by the digest of their input
// and the settings that shaped them, so unchanged workspaces are not
// converted twice.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

const keyPrefix = "nrmlc:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from the given parts. Parts are length-prefixed,
// so ("ab", "c") and ("a", "bc") produce different keys.
func Key(parts ...[]byte) string {
	h := sha256.New()
	var size [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(size[:], uint64(len(p)))
		h.Write(size[:])
		h.Write(p)
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
