package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pitwall/stewarding/internal/model"
)

func sampleRecord(doc string, date time.Time) *model.PenaltyRecord {
	return &model.PenaltyRecord{
		Series:      model.SeriesF1,
		DocType:     model.DocTypeDecision,
		DocName:     doc,
		DocDate:     date,
		GrandPrix:   "Monaco Grand Prix",
		PenaltyType: model.PenaltyTime,
		Weekend:     "2024 Monaco Grand Prix",
		IncidentInfo: model.IncidentInfo{
			Driver: "44 - Lewis Hamilton",
		},
	}
}

func TestMemory_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec := sampleRecord("doc 45", time.Date(2024, 5, 26, 14, 0, 0, 0, time.UTC))
	if err := m.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := m.FindByNaturalKey(ctx, rec.Key())
	if err != nil {
		t.Fatalf("FindByNaturalKey failed: %v", err)
	}
	if got.DocName != "doc 45" || got.IncidentInfo.Driver != "44 - Lewis Hamilton" {
		t.Errorf("got = %+v", got)
	}
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec := sampleRecord("doc 45", time.Date(2024, 5, 26, 14, 0, 0, 0, time.UTC))
	if _, err := m.FindByNaturalKey(ctx, rec.Key()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemory_DoubleInsertConverges(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec := sampleRecord("doc 45", time.Date(2024, 5, 26, 14, 0, 0, 0, time.UTC))
	if err := m.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := m.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}

	if n := m.Len(model.SeriesF1, "2024"); n != 1 {
		t.Errorf("partition holds %d records, want 1", n)
	}
}

func TestMemory_PartitionIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	a := sampleRecord("doc 45", time.Date(2023, 5, 26, 14, 0, 0, 0, time.UTC))
	b := sampleRecord("doc 45", time.Date(2024, 5, 26, 14, 0, 0, 0, time.UTC))
	if err := m.Insert(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := m.Insert(ctx, b); err != nil {
		t.Fatal(err)
	}

	if n := m.Len(model.SeriesF1, "2023"); n != 1 {
		t.Errorf("2023 partition holds %d records, want 1", n)
	}
	if n := m.Len(model.SeriesF1, "2024"); n != 1 {
		t.Errorf("2024 partition holds %d records, want 1", n)
	}
}

func TestMemory_LatestDocDate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.LatestDocDate(ctx, model.SeriesF1, "2024"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty partition: err = %v, want ErrNotFound", err)
	}

	older := sampleRecord("doc 40", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	newer := sampleRecord("doc 45", time.Date(2024, 5, 26, 14, 0, 0, 0, time.UTC))
	if err := m.Insert(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := m.Insert(ctx, newer); err != nil {
		t.Fatal(err)
	}

	got, err := m.LatestDocDate(ctx, model.SeriesF1, "2024")
	if err != nil {
		t.Fatalf("LatestDocDate failed: %v", err)
	}
	if !got.Equal(newer.DocDate) {
		t.Errorf("latest = %v, want %v", got, newer.DocDate)
	}
}

func TestNaturalKey_HashStable(t *testing.T) {
	date := time.Date(2024, 5, 26, 14, 0, 0, 0, time.UTC)
	a := sampleRecord("doc 45", date).Key()
	b := sampleRecord("doc 45", date).Key()
	if a.Hash() != b.Hash() {
		t.Error("identical keys hash differently")
	}

	c := sampleRecord("doc 46", date).Key()
	if a.Hash() == c.Hash() {
		t.Error("distinct keys collide")
	}
}
