// Package storage defines the Storage interface — the record store contract
// every persistence backend must satisfy.
//
// The roster service depends only on this interface, so backends
// (sqlite, redis, memory) are chosen in main.go from configuration and
// tests can pass a fake or a gomock mock instead of a real database.
package storage

//go:generate mockgen -source=storage.go -destination=mocks/storage_mock.go -package=mocks Storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/roster-api/internal/types"
)

// ErrNotFound is returned by FindByID when no record has the given id.
var ErrNotFound = errors.New("storage: student not found")

// Storage is the record store contract.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Save inserts or replaces a record by id. A record with an empty ID
	// gets a freshly generated one. The persisted form is returned.
	Save(ctx context.Context, student types.Student) (types.Student, error)

	// FindByID returns ErrNotFound if the id is unknown.
	FindByID(ctx context.Context, id string) (types.Student, error)

	// FindAll returns every record. Returns an empty slice (not nil) if
	// there are none. Order is backend-defined.
	FindAll(ctx context.Context) ([]types.Student, error)

	// DeleteByID removes a record. Unknown ids are not an error.
	DeleteByID(ctx context.Context, id string) error

	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error

	// ExistsByGender reports whether any record has exactly this gender.
	ExistsByGender(ctx context.Context, gender string) (bool, error)
}
