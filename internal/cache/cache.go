// Package cache memoizes factorization results. Values are canonical script
// strings keyed by a hash of the input sequences.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/ieml/internal/metrics"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey derives a key from the canonical forms of a set of sequences.
// Callers pass the keys sorted so that equal sets share an entry.
func CacheKey(canonical string) string {
	hash := sha256.Sum256([]byte(canonical))
	return "ieml:v1:" + hex.EncodeToString(hash[:])
}

func recordLookup(layer string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CacheLookups.WithLabelValues(layer, result).Inc()
}
