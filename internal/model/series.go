package model

import "fmt"

// SeriesID identifies a competition series.
type SeriesID string

const (
	SeriesF1 SeriesID = "f1"
	SeriesF2 SeriesID = "f2"
	SeriesF3 SeriesID = "f3"
)

// Family groups series by panel composition and filename conventions.
type Family string

const (
	FamilyTopTier   Family = "top-tier"
	FamilySecondary Family = "secondary"
)

// Series holds the per-series constants as data rather than forked code paths.
type Series struct {
	ID             SeriesID
	Family         Family
	StewardCount   int      // 4 for the top-tier panel, 3 otherwise
	ListingPath    string   // listing page path, takes the season year
	RequireCarTerm bool     // accept only filenames that also mention a car
	ExtraDeny      []string // series-specific additions to the shared denylist
}

// ListingURL resolves the season listing page for the given year.
func (s Series) ListingURL(base, year string) string {
	return base + fmt.Sprintf(s.ListingPath, year)
}

var seriesTable = map[SeriesID]Series{
	SeriesF1: {
		ID:             SeriesF1,
		Family:         FamilyTopTier,
		StewardCount:   4,
		ListingPath:    "/documents/championships/fia-formula-one-world-championship-14/season/season-%s",
		RequireCarTerm: true,
	},
	SeriesF2: {
		ID:           SeriesF2,
		Family:       FamilySecondary,
		StewardCount: 3,
		ListingPath:  "/documents/championships/formula-2-championship-44/season/season-%s",
		ExtraDeny:    []string{"free practice"},
	},
	SeriesF3: {
		ID:           SeriesF3,
		Family:       FamilySecondary,
		StewardCount: 3,
		ListingPath:  "/documents/championships/fia-formula-3-championship-1012/season/season-%s",
		ExtraDeny:    []string{"free practice"},
	},
}

// LookupSeries resolves a series identifier to its constants.
func LookupSeries(id string) (Series, bool) {
	s, ok := seriesTable[SeriesID(id)]
	return s, ok
}

// SeriesIDs lists the supported series identifiers.
func SeriesIDs() []SeriesID {
	return []SeriesID{SeriesF1, SeriesF2, SeriesF3}
}
