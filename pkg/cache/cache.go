// Package cache provides content-addressed caching for synthesis results.
//
// Synthesis is deterministic in its input document and options, which makes
// every stage cacheable by content hash: the same examples with the same
// configuration always produce the same templates, candidates and selected
// constraints. The cache stores opaque byte payloads under hashed keys;
// backends include a file cache for CLI use, a Redis cache for server
// deployments, and a null cache for tests and --no-cache runs.
package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for caching operations.
var (
	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCacheMiss is returned when an item is not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)

// Cache stores opaque payloads under string keys with optional expiry.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys for the synthesis stages.
type Keyer interface {
	// ResultKey keys a full synthesis result by input and options hashes.
	ResultKey(inputHash, optsHash string) string

	// TemplateKey keys an instantiation result by the examples hash.
	TemplateKey(inputHash string) string

	// CandidateKey keys a learning result by examples and learner config.
	CandidateKey(inputHash, configHash string) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ResultKey implements Keyer.
func (DefaultKeyer) ResultKey(inputHash, optsHash string) string {
	return hashKey("result", inputHash, optsHash)
}

// TemplateKey implements Keyer.
func (DefaultKeyer) TemplateKey(inputHash string) string {
	return hashKey("templates", inputHash)
}

// CandidateKey implements Keyer.
func (DefaultKeyer) CandidateKey(inputHash, configHash string) string {
	return hashKey("candidates", inputHash, configHash)
}

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, e.g.
// per-user scopes on a shared Redis.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ResultKey generates a prefixed result key.
func (k *ScopedKeyer) ResultKey(inputHash, optsHash string) string {
	return k.prefix + k.inner.ResultKey(inputHash, optsHash)
}

// TemplateKey generates a prefixed template key.
func (k *ScopedKeyer) TemplateKey(inputHash string) string {
	return k.prefix + k.inner.TemplateKey(inputHash)
}

// CandidateKey generates a prefixed candidate key.
func (k *ScopedKeyer) CandidateKey(inputHash, configHash string) string {
	return k.prefix + k.inner.CandidateKey(inputHash, configHash)
}
