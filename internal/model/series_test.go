package model

import "testing"

func TestLookupSeries(t *testing.T) {
	for _, id := range SeriesIDs() {
		s, ok := LookupSeries(string(id))
		if !ok {
			t.Fatalf("series %q not registered", id)
		}
		if s.StewardCount != 3 && s.StewardCount != 4 {
			t.Errorf("series %q: steward count %d", id, s.StewardCount)
		}
		if s.Family == FamilyTopTier && s.StewardCount != 4 {
			t.Errorf("top-tier series %q must seat 4 stewards", id)
		}
		if s.Family == FamilySecondary && s.StewardCount != 3 {
			t.Errorf("secondary series %q must seat 3 stewards", id)
		}
	}

	if _, ok := LookupSeries("nascar"); ok {
		t.Error("unknown series resolved")
	}
}

func TestListingURL(t *testing.T) {
	s, _ := LookupSeries("f1")
	got := s.ListingURL("https://www.fia.com", "2024")
	want := "https://www.fia.com/documents/championships/fia-formula-one-world-championship-14/season/season-2024"
	if got != want {
		t.Errorf("ListingURL = %q, want %q", got, want)
	}
}
