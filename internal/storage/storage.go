// Package storage defines the record-store contract and its error taxonomy.
// Concrete engines live in the jsonfile and sqlite subpackages; callers
// select one from configuration.
//
// The retrieval core only ever reads from a PracticeStore. Mutation happens
// through the registration, editing and import flows.
package storage

import (
	"context"
	"errors"

	"github.com/scrypster/praxis/pkg/types"
)

var (
	// ErrNotFound indicates that the requested practice was not found.
	ErrNotFound = errors.New("practice not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreCorrupt indicates the persisted record store failed to parse.
	// Fatal at startup: a corrupt store must never silently become an
	// empty one.
	ErrStoreCorrupt = errors.New("record store corrupt")
)

// PracticeStore is the durable collection of knowledge entries. It owns
// identity (ID assignment) and persistence. Implementations must be safe
// for concurrent use within a process; cross-process writes are serialized
// by the engine's own locking.
type PracticeStore interface {
	// GetAll returns every practice, in stable insertion order.
	GetAll(ctx context.Context) ([]types.Practice, error)

	// Get returns the practice with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*types.Practice, error)

	// Add validates and stores a new practice, assigning an ID and
	// timestamps. Returns the assigned ID.
	Add(ctx context.Context, p *types.Practice) (string, error)

	// Update replaces the stored practice with the same ID, preserving
	// ID and creation timestamp. Returns ErrNotFound for unknown IDs.
	Update(ctx context.Context, p *types.Practice) error

	// Delete removes the practice with the given ID, or ErrNotFound.
	Delete(ctx context.Context, id string) error

	// GetByCategory returns all practices in the given category.
	GetByCategory(ctx context.Context, category types.Category) ([]types.Practice, error)

	// SearchByText returns practices whose title, description or tags
	// contain the keyword, case-insensitively.
	SearchByText(ctx context.Context, keyword string) ([]types.Practice, error)

	// Path returns the location of the engine's backing file, watched by
	// the retrieval index for cross-process change detection.
	Path() string

	// Close releases any resources held by the store.
	Close() error
}
