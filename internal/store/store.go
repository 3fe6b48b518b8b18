// Package store defines the record store contract the lifecycle manager
// depends on. Concrete stores live in the sqlite and memory subpackages.
package store

import (
	"context"
	"errors"

	"spendlog/internal/core"
)

var (
	// ErrNotFound is returned by ReplaceByID for an unknown id. DeleteByID
	// never returns it; deleting a missing record is a no-op.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable wraps any store-level failure (connection lost,
	// rejected write). Callers should Reconcile after seeing it.
	ErrUnavailable = errors.New("store unavailable")
)

// RecordStore holds the authoritative set of expense records.
type RecordStore interface {
	// ListAll returns every record ordered by date descending.
	ListAll(ctx context.Context) ([]core.Record, error)

	// Create persists a draft and returns the record with its assigned id.
	Create(ctx context.Context, d core.Draft) (core.Record, error)

	// ReplaceByID overwrites every field of the record with the given id.
	ReplaceByID(ctx context.Context, id int64, d core.Draft) (core.Record, error)

	// DeleteByID removes the record with the given id, if present.
	DeleteByID(ctx context.Context, id int64) error

	Close() error
}
