package store

import (
	"context"
	"iter"

	"github.com/gnames/drugref/pkg/ent/model"
)

// Decoder fills dst (a pointer to an entity) with a stored record.
type Decoder func(dst any) error

// Store is a persistence engine for catalog records. Unique constraints are
// enforced by the engine: of concurrent inserts with the same unique value
// exactly one succeeds, others get *model.DuplicateKeyError.
type Store interface {
	// Open opens the store.
	Open() error

	// Close closes the store.
	Close() error

	// Migrate creates tables and indices.
	Migrate() error

	// Reset removes all data from the store.
	Reset() error

	// Insert saves a new record.
	Insert(ctx context.Context, rec model.Record) error

	// Update replaces a stored record with the same ID.
	Update(ctx context.Context, rec model.Record) error

	// Get finds a record of a table by ID and decodes it into dst.
	Get(ctx context.Context, table, id string, dst any) error

	// LookupUnique returns the ID of a record with the given unique value.
	LookupUnique(ctx context.Context, table, field, value string) (string, error)

	// Delete removes a record. The prototype gives the table and the type
	// of the record.
	Delete(ctx context.Context, proto model.Record, id string) error

	// Scan lazily iterates over records of the prototype's table in the
	// given order. Every call starts a new iteration.
	Scan(ctx context.Context, proto model.Record, o model.Order) iter.Seq2[Decoder, error]
}

// BulkLoader is implemented by stores that can save many validated records
// of one table at once.
type BulkLoader interface {
	// BulkInsert saves records of one table and returns their number.
	BulkInsert(ctx context.Context, recs []model.Record) (int64, error)
}
