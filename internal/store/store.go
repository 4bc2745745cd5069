// Package store persists penalty records, partitioned by series and season.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/pitwall/stewarding/internal/model"
)

// ErrNotFound is returned by lookups that match no stored record.
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract of the ingestion pipeline. Ingestion
// never overwrites: an existing natural key makes the document a skip.
type Store interface {
	// FindByNaturalKey returns the stored record matching key, or
	// ErrNotFound.
	FindByNaturalKey(ctx context.Context, key model.NaturalKey) (*model.PenaltyRecord, error)
	// Insert stores a new record. Inserting the same natural key twice is
	// harmless and leaves a single record behind.
	Insert(ctx context.Context, rec *model.PenaltyRecord) error
	// LatestDocDate returns the document date of the newest stored record in
	// the series/year partition, or ErrNotFound for an empty partition. It
	// feeds the incremental discovery watermark.
	LatestDocDate(ctx context.Context, series model.SeriesID, year string) (time.Time, error)
	Close() error
}
