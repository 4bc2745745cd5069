package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// DocType identifies the kind of stewarding document, derived from the file name.
type DocType string

const (
	DocTypeDecision DocType = "Decision"
	DocTypeOffence  DocType = "Offence"
	DocTypeUnknown  DocType = "Wrong Doc Type"
)

// PenaltyType is the closed set of penalty categories a decision can map to.
type PenaltyType string

const (
	PenaltyTime         PenaltyType = "time"
	PenaltyGrid         PenaltyType = "grid"
	PenaltyFine         PenaltyType = "fine"
	PenaltyDisqualified PenaltyType = "disqualified"
	PenaltyWarning      PenaltyType = "warning"
	PenaltyDriveThrough PenaltyType = "drive-through"
	PenaltyPitLane      PenaltyType = "pit-lane"
	PenaltyStopAndGo    PenaltyType = "stop-and-go"
	PenaltyReprimand    PenaltyType = "reprimand"
	PenaltyNone         PenaltyType = "none"
)

// PenaltyTypes lists every valid penalty category.
var PenaltyTypes = []PenaltyType{
	PenaltyTime,
	PenaltyGrid,
	PenaltyFine,
	PenaltyDisqualified,
	PenaltyWarning,
	PenaltyDriveThrough,
	PenaltyPitLane,
	PenaltyStopAndGo,
	PenaltyReprimand,
	PenaltyNone,
}

// Valid reports whether t is a member of the closed penalty set.
func (t PenaltyType) Valid() bool {
	for _, p := range PenaltyTypes {
		if t == p {
			return true
		}
	}
	return false
}

// DocumentInfo is the header block of a decision document.
// All fields are required after reconstruction.
type DocumentInfo struct {
	From     string `json:"from" firestore:"from"`
	To       string `json:"to" firestore:"to"`
	Document string `json:"document" firestore:"document"`
	Date     string `json:"date" firestore:"date"`
	Time     string `json:"time" firestore:"time"`
}

// IncidentInfo is the body block describing the incident itself.
type IncidentInfo struct {
	Headline   string   `json:"headline" firestore:"headline"`
	Driver     string   `json:"driver" firestore:"driver"`
	Competitor string   `json:"competitor" firestore:"competitor"`
	Time       string   `json:"time" firestore:"time"`
	Session    string   `json:"session" firestore:"session"`
	Fact       []string `json:"fact" firestore:"fact"`
	Offence    string   `json:"offence" firestore:"offence"`
	Decision   []string `json:"decision" firestore:"decision"`
	Reason     string   `json:"reason" firestore:"reason"`
}

// PenaltyRecord is the persisted entity produced by ingestion or manual upload.
type PenaltyRecord struct {
	Series        SeriesID     `json:"series" firestore:"series"`
	DocType       DocType      `json:"docType" firestore:"docType"`
	DocName       string       `json:"docName" firestore:"docName"`
	DocDate       time.Time    `json:"docDate" firestore:"docDate"`
	GrandPrix     string       `json:"grandPrix" firestore:"grandPrix"`
	PenaltyType   PenaltyType  `json:"penaltyType" firestore:"penaltyType"`
	Weekend       string       `json:"weekend" firestore:"weekend"`
	IncidentTitle string       `json:"incidentTitle" firestore:"incidentTitle"`
	DocumentInfo  DocumentInfo `json:"documentInfo" firestore:"documentInfo"`
	IncidentInfo  IncidentInfo `json:"incidentInfo" firestore:"incidentInfo"`
	Stewards      []string     `json:"stewards" firestore:"stewards"`
	ManualUpload  bool         `json:"manualUpload" firestore:"manualUpload"`
}

// NaturalKey is the deduplication key for a penalty record. The store must
// never hold two records with the same key in one partition.
type NaturalKey struct {
	Series    SeriesID
	DocType   DocType
	DocName   string
	DocDate   time.Time
	Penalty   PenaltyType
	GrandPrix string
}

// Key returns the record's natural key.
func (r *PenaltyRecord) Key() NaturalKey {
	return NaturalKey{
		Series:    r.Series,
		DocType:   r.DocType,
		DocName:   r.DocName,
		DocDate:   r.DocDate,
		Penalty:   r.PenaltyType,
		GrandPrix: r.GrandPrix,
	}
}

// Hash returns a stable hex digest of the key, used as the stored document ID
// so racing inserts of the same document converge instead of duplicating.
func (k NaturalKey) Hash() string {
	joined := strings.Join([]string{
		string(k.Series),
		string(k.DocType),
		k.DocName,
		k.DocDate.UTC().Format(time.RFC3339),
		string(k.Penalty),
		k.GrandPrix,
	}, "|")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// Year returns the store partition year for the key.
func (k NaturalKey) Year() string {
	return k.DocDate.UTC().Format("2006")
}

// DocumentReference identifies a discovered candidate document before download.
type DocumentReference struct {
	Href      string    // absolute document URL
	FileName  string    // lowercase file name from the URL tail, for filtering only
	Published time.Time // publish timestamp from the listing, zero if absent
}
