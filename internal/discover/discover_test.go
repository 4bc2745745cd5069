package discover

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pitwall/stewarding/internal/model"
)

func f1Series(t *testing.T) model.Series {
	t.Helper()
	s, ok := model.LookupSeries("f1")
	if !ok {
		t.Fatal("f1 series not registered")
	}
	return s
}

func f2Series(t *testing.T) model.Series {
	t.Helper()
	s, ok := model.LookupSeries("f2")
	if !ok {
		t.Fatal("f2 series not registered")
	}
	return s
}

func listingPage(rows ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="decision-document-list">`)
	for _, row := range rows {
		b.WriteString(row)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func row(href, published string) string {
	var b strings.Builder
	b.WriteString(`<li class="document-row"><a href="`)
	b.WriteString(href)
	b.WriteString(`">doc</a>`)
	if published != "" {
		b.WriteString(`<div class="published"><span>Published on `)
		b.WriteString(published)
		b.WriteString(`</span></div>`)
	}
	b.WriteString(`</li>`)
	return b.String()
}

func mustBase(t *testing.T) *url.URL {
	t.Helper()
	base, err := url.Parse("https://example.org/documents/season-2024")
	if err != nil {
		t.Fatal(err)
	}
	return base
}

func TestCandidates_Filters(t *testing.T) {
	page := listingPage(
		row("/docs/monaco - decision - car 44.pdf", ""),
		row("/docs/monaco - offence - car 11.pdf", ""),
		row("/docs/monaco - decision - reprimand - car 4.pdf", ""), // denylist beats allowlist
		row("/docs/monaco - race schedule.pdf", ""),
		row("/docs/monaco - decision - protest lodged.pdf", ""),
		row("/docs/monaco - decision.pdf", ""), // no car term
	)

	refs, err := Candidates(strings.NewReader(page), mustBase(t), f1Series(t), Options{})
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}

	if len(refs) != 2 {
		t.Fatalf("refs = %d, want 2: %+v", len(refs), refs)
	}
	if !strings.Contains(refs[0].FileName, "decision") || !strings.Contains(refs[0].FileName, "car 44") {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if !strings.HasPrefix(refs[0].Href, "https://example.org/") {
		t.Errorf("href not resolved against base: %s", refs[0].Href)
	}
}

func TestCandidates_SeriesExtraDeny(t *testing.T) {
	page := listingPage(
		row("/docs/monaco - decision - car 7.pdf", ""),
		row("/docs/monaco - free practice - decision - car 7.pdf", ""),
	)

	refs, err := Candidates(strings.NewReader(page), mustBase(t), f2Series(t), Options{})
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("refs = %+v, want only the non-practice decision", refs)
	}
}

func TestCandidates_NoCarTermRequiredForSecondary(t *testing.T) {
	page := listingPage(row("/docs/monaco - decision.pdf", ""))

	refs, err := Candidates(strings.NewReader(page), mustBase(t), f2Series(t), Options{})
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("refs = %+v, want 1", refs)
	}
}

func TestCandidates_Watermark(t *testing.T) {
	page := listingPage(
		row("/docs/old - decision - car 1.pdf", "01.05.24 10:00"),
		row("/docs/new - decision - car 2.pdf", "20.05.24 10:00"),
		row("/docs/undated - decision - car 3.pdf", ""),
	)

	watermark := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	refs, err := Candidates(strings.NewReader(page), mustBase(t), f1Series(t), Options{
		Watermark: watermark,
		Grace:     24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}

	if len(refs) != 2 {
		t.Fatalf("refs = %+v, want the new and the undated document", refs)
	}
	for _, ref := range refs {
		if strings.Contains(ref.FileName, "old") {
			t.Errorf("document older than watermark survived: %+v", ref)
		}
	}
}

func TestCandidates_GraceWindow(t *testing.T) {
	// Published 12 hours before the watermark, inside the 24h grace window.
	page := listingPage(row("/docs/latepub - decision - car 5.pdf", "09.05.24 12:00"))

	watermark := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	refs, err := Candidates(strings.NewReader(page), mustBase(t), f1Series(t), Options{
		Watermark: watermark,
		Grace:     24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("refs = %+v, want the late-published document kept", refs)
	}
}

func TestCandidates_Dedupe(t *testing.T) {
	page := listingPage(
		row("/docs/monaco - decision - car 44.pdf", ""),
		row("/docs/monaco - decision - car 44.pdf", ""),
	)

	refs, err := Candidates(strings.NewReader(page), mustBase(t), f1Series(t), Options{})
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("refs = %+v, want deduplicated", refs)
	}
}

func TestCandidates_MissingContainer(t *testing.T) {
	page := `<html><body><div class="some-other-list"><a href="/x - decision - car 1.pdf">x</a></div></body></html>`

	_, err := Candidates(strings.NewReader(page), mustBase(t), f1Series(t), Options{})
	if !errors.Is(err, ErrListingStructure) {
		t.Fatalf("err = %v, want ErrListingStructure", err)
	}
}

func TestCandidates_EmptyListing(t *testing.T) {
	refs, err := Candidates(strings.NewReader(listingPage()), mustBase(t), f1Series(t), Options{})
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("refs = %+v, want none", refs)
	}
}
