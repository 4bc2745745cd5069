package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pitwall/stewarding/internal/model"
)

// Firestore stores penalty records in one collection per series and season,
// named "<series>_<year>". The document ID is the natural-key hash, so two
// workers racing on the same document converge on a single stored record.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore connects to the given project.
func NewFirestore(ctx context.Context, projectID string) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

func collectionName(series model.SeriesID, year string) string {
	return fmt.Sprintf("%s_%s", series, year)
}

// FindByNaturalKey implements Store.
func (s *Firestore) FindByNaturalKey(ctx context.Context, key model.NaturalKey) (*model.PenaltyRecord, error) {
	col := s.client.Collection(collectionName(key.Series, key.Year()))
	snap, err := col.Doc(key.Hash()).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("firestore get: %w", err)
	}
	var rec model.PenaltyRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("firestore decode: %w", err)
	}
	return &rec, nil
}

// Insert implements Store. Set semantics on the hashed document ID make the
// insert idempotent.
func (s *Firestore) Insert(ctx context.Context, rec *model.PenaltyRecord) error {
	key := rec.Key()
	col := s.client.Collection(collectionName(key.Series, key.Year()))
	if _, err := col.Doc(key.Hash()).Set(ctx, rec); err != nil {
		return fmt.Errorf("firestore set: %w", err)
	}
	return nil
}

// LatestDocDate implements Store.
func (s *Firestore) LatestDocDate(ctx context.Context, series model.SeriesID, year string) (time.Time, error) {
	col := s.client.Collection(collectionName(series, year))
	iter := col.OrderBy("docDate", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("firestore query: %w", err)
	}
	var rec model.PenaltyRecord
	if err := snap.DataTo(&rec); err != nil {
		return time.Time{}, fmt.Errorf("firestore decode: %w", err)
	}
	return rec.DocDate, nil
}

// Close implements Store.
func (s *Firestore) Close() error {
	return s.client.Close()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
