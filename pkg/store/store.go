// Package store persists synthesis run history for the API server.
//
// A Run records one synthesis invocation: its input, options and output
// document. The Store interface has two implementations:
//   - memory: In-memory storage for development and tests
//   - mongo: MongoDB-backed storage for server deployments
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anchorsynth/anchorsynth/pkg/errors"
)

// Run is one stored synthesis invocation.
type Run struct {
	ID        string          `bson:"_id" json:"id"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
	Options   json.RawMessage `bson:"options" json:"options"`
	Input     json.RawMessage `bson:"input" json:"input,omitempty"`
	Document  json.RawMessage `bson:"document" json:"document"`
}

// Store persists runs.
type Store interface {
	// Put stores a run. Existing runs with the same ID are replaced.
	Put(ctx context.Context, run *Run) error

	// Get retrieves a run by ID. Missing runs return a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]*Run, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// ErrNotFound builds the standard missing-run error.
func ErrNotFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "run %q not found", id)
}
