package store

import (
	"context"
	"sync"
	"time"

	"github.com/pitwall/stewarding/internal/model"
)

// Memory is an in-process Store used by tests and local runs without a
// cloud project.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]map[string]*model.PenaltyRecord // partition -> key hash -> record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{recs: make(map[string]map[string]*model.PenaltyRecord)}
}

// FindByNaturalKey implements Store.
func (m *Memory) FindByNaturalKey(_ context.Context, key model.NaturalKey) (*model.PenaltyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	part := m.recs[collectionName(key.Series, key.Year())]
	rec, ok := part[key.Hash()]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

// Insert implements Store.
func (m *Memory) Insert(_ context.Context, rec *model.PenaltyRecord) error {
	key := rec.Key()
	name := collectionName(key.Series, key.Year())

	m.mu.Lock()
	defer m.mu.Unlock()
	part := m.recs[name]
	if part == nil {
		part = make(map[string]*model.PenaltyRecord)
		m.recs[name] = part
	}
	clone := *rec
	part[key.Hash()] = &clone
	return nil
}

// LatestDocDate implements Store.
func (m *Memory) LatestDocDate(_ context.Context, series model.SeriesID, year string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	part := m.recs[collectionName(series, year)]
	if len(part) == 0 {
		return time.Time{}, ErrNotFound
	}
	var latest time.Time
	for _, rec := range part {
		if rec.DocDate.After(latest) {
			latest = rec.DocDate
		}
	}
	return latest, nil
}

// Len reports the number of records in a partition.
func (m *Memory) Len(series model.SeriesID, year string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.recs[collectionName(series, year)])
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
