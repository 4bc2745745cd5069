package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pitwall/stewarding/internal/model"
)

// ErrNotDriverIncident marks documents addressed to a team manager rather
// than a driver. Operators need to tell these apart from parser failures.
var ErrNotDriverIncident = errors.New("not a driver incident")

// MissingDelimiterError reports which segmentation step could not locate its
// expected delimiter token.
type MissingDelimiterError struct {
	Delimiter string
}

func (e *MissingDelimiterError) Error() string {
	return fmt.Sprintf("delimiter token %q not found", e.Delimiter)
}

// stewardsLiteral is emitted as its own token above the signature block and
// carries no field content.
const stewardsLiteral = "The Stewards"

// dateLayouts are the Date+Time formats seen across seasons.
var dateLayouts = []string{
	"02 January 2006 15:04",
	"2 January 2006 15:04",
	"02.01.2006 15:04",
	"02/01/2006 15:04",
}

// Reconstruct rebuilds a structured penalty record from the flat token
// stream of one document. loc names the timezone the document's own Date and
// Time are expressed in. The returned record has every field populated
// except Series, PenaltyType and ManualUpload, which the caller owns.
func Reconstruct(fileName string, tokens []string, series model.Series, loc *time.Location) (*model.PenaltyRecord, error) {
	parts := DecomposeFileName(fileName)

	timeIdxs := indicesOf(tokens, "Time")
	if len(timeIdxs) < 2 || timeIdxs[0]+2 > len(tokens) {
		return nil, &MissingDelimiterError{Delimiter: "Time"}
	}

	docInfo, err := pairDocumentInfo(mergeContinuations(tokens[:timeIdxs[0]+2], commaContinuation))
	if err != nil {
		return nil, err
	}

	lastReason := lastIndexOf(tokens, "Reason")
	if lastReason < 0 {
		return nil, &MissingDelimiterError{Delimiter: "Reason"}
	}
	bodyStart := timeIdxs[1] + 1
	if bodyStart >= lastReason {
		return nil, &MissingDelimiterError{Delimiter: "Reason"}
	}

	incident, weekend, err := parseIncident(tokens[bodyStart:lastReason])
	if err != nil {
		return nil, err
	}

	stewards, reasonTokens, err := splitTail(tokens[lastReason+1:], series.StewardCount)
	if err != nil {
		return nil, err
	}
	reasonTokens = mergeContinuations(reasonTokens, commaContinuation)
	reasonTokens = mergeContinuations(reasonTokens, longFragmentContinuation)
	incident.Reason = strings.Join(reasonTokens, " ")

	docDate, err := parseDocDate(docInfo, loc)
	if err != nil {
		return nil, err
	}

	rec := &model.PenaltyRecord{
		DocType:       parts.DocType,
		DocName:       parts.DocName,
		DocDate:       docDate,
		GrandPrix:     parts.GrandPrix,
		Weekend:       weekend,
		IncidentTitle: parts.IncidentTitle,
		DocumentInfo:  docInfo,
		IncidentInfo:  *incident,
		Stewards:      stewards,
	}
	if err := validateRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// pairDocumentInfo pairs the header slice into its five labeled fields.
func pairDocumentInfo(slice []string) (model.DocumentInfo, error) {
	var info model.DocumentInfo
	fields := map[string]*string{
		"From":     &info.From,
		"To":       &info.To,
		"Document": &info.Document,
		"Date":     &info.Date,
		"Time":     &info.Time,
	}
	for i := 0; i+1 < len(slice); i += 2 {
		if dst, ok := fields[slice[i]]; ok {
			*dst = slice[i+1]
		}
	}
	for _, key := range []string{"From", "To", "Document", "Date", "Time"} {
		if *fields[key] == "" {
			return info, &MissingDelimiterError{Delimiter: key}
		}
	}
	return info, nil
}

// parseIncident segments the incident body. The first token is the weekend
// label; the headline runs to the Driver marker; labeled sections follow from
// Competitor onward.
func parseIncident(raw []string) (*model.IncidentInfo, string, error) {
	body := make([]string, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		tok := raw[i]
		lower := strings.ToLower(tok)
		if strings.Contains(lower, "no") && strings.Contains(lower, "driver") {
			body = append(body, "Driver")
			continue
		}
		if lower == "team" && i+1 < len(raw) && strings.ToLower(raw[i+1]) == "manager" {
			return nil, "", ErrNotDriverIncident
		}
		if tok == stewardsLiteral {
			continue
		}
		body = append(body, tok)
	}
	if len(body) == 0 {
		return nil, "", &MissingDelimiterError{Delimiter: "Driver"}
	}

	weekend := body[0]
	body = body[1:]

	drv := indexOf(body, "Driver")
	if drv < 0 {
		return nil, "", &MissingDelimiterError{Delimiter: "Driver"}
	}
	comp := indexOf(body, "Competitor")
	if comp < 0 || comp <= drv {
		return nil, "", &MissingDelimiterError{Delimiter: "Competitor"}
	}

	info := &model.IncidentInfo{
		Headline: strings.Join(body[:drv], " "),
		Driver:   strings.Join(body[drv+1:comp], " "),
	}

	rest := body[comp:]
	fact := indexOf(rest, "Fact")
	if fact < 0 {
		return nil, "", &MissingDelimiterError{Delimiter: "Fact"}
	}
	off := indexOf(rest, "Offence")
	if off < fact {
		return nil, "", &MissingDelimiterError{Delimiter: "Offence"}
	}
	dec := indexOf(rest, "Decision")
	if dec < off {
		return nil, "", &MissingDelimiterError{Delimiter: "Decision"}
	}

	pre := rest[:fact] // Competitor ... Time ... Session ...
	if t := indexOf(pre, "Time"); t >= 0 {
		info.Competitor = strings.Join(pre[1:t], " ")
		if s := indexOf(pre, "Session"); s > t {
			info.Time = strings.Join(pre[t+1:s], " ")
			info.Session = strings.Join(pre[s+1:], " ")
		} else {
			info.Time = strings.Join(pre[t+1:], " ")
		}
	} else {
		info.Competitor = strings.Join(pre[1:], " ")
	}

	info.Fact = factGroup(rest[fact+1 : off])
	info.Offence = strings.Join(rest[off+1:dec], " ")
	info.Decision = append([]string(nil), rest[dec+1:]...)
	return info, weekend, nil
}

// factGroup merges short trailing fragments with their predecessor, then
// keeps the facts as a list when a token ends in a colon (an enumeration
// header) and joins them into one entry otherwise.
func factGroup(tokens []string) []string {
	merged := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) < 6 && len(merged) > 0 {
			merged[len(merged)-1] += " " + tok
			continue
		}
		merged = append(merged, tok)
	}
	if len(merged) == 0 {
		return nil
	}
	for _, tok := range merged {
		if strings.HasSuffix(tok, ":") {
			return merged
		}
	}
	return []string{strings.Join(merged, " ")}
}

// splitTail separates the signature block from the reason text. The final
// count tokens, after dropping the stewards literal, are the panel.
func splitTail(tail []string, count int) (stewards, reason []string, err error) {
	clean := make([]string, 0, len(tail))
	for _, tok := range tail {
		if tok == stewardsLiteral {
			continue
		}
		clean = append(clean, tok)
	}
	if len(clean) < count {
		return nil, nil, fmt.Errorf("expected %d stewards, found %d trailing tokens", count, len(clean))
	}
	return clean[len(clean)-count:], clean[:len(clean)-count], nil
}

// parseDocDate combines the header Date and Time in the configured location
// and normalizes to UTC.
func parseDocDate(info model.DocumentInfo, loc *time.Location) (time.Time, error) {
	raw := info.Date + " " + info.Time
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse document date %q", raw)
}

func validateRecord(rec *model.PenaltyRecord) error {
	missing := func(field string) error {
		return fmt.Errorf("reconstructed record missing %s", field)
	}
	switch {
	case rec.Weekend == "":
		return missing("weekend")
	case rec.IncidentInfo.Driver == "":
		return missing("driver")
	case rec.IncidentInfo.Competitor == "":
		return missing("competitor")
	case rec.IncidentInfo.Session == "":
		return missing("session")
	case len(rec.IncidentInfo.Fact) == 0:
		return missing("fact")
	case rec.IncidentInfo.Offence == "":
		return missing("offence")
	case len(rec.IncidentInfo.Decision) == 0:
		return missing("decision")
	case rec.IncidentInfo.Reason == "":
		return missing("reason")
	}
	return nil
}

// commaContinuation joins "City," with the token that follows it.
func commaContinuation(tok string) bool {
	return strings.HasSuffix(tok, ",")
}

// longFragmentContinuation joins a wrapped line with its continuation: long
// and not sentence-final means the renderer broke it mid-clause.
func longFragmentContinuation(tok string) bool {
	return len(tok) > 64 && !strings.HasSuffix(tok, ".")
}

// mergeContinuations folds each token the predicate accepts into its
// successor, repeatedly, preserving order.
func mergeContinuations(tokens []string, continues func(string) bool) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if n := len(out); n > 0 && continues(out[n-1]) {
			out[n-1] += " " + tok
			continue
		}
		out = append(out, tok)
	}
	return out
}

func indexOf(tokens []string, want string) int {
	for i, tok := range tokens {
		if tok == want {
			return i
		}
	}
	return -1
}

func lastIndexOf(tokens []string, want string) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i] == want {
			return i
		}
	}
	return -1
}

func indicesOf(tokens []string, want string) []int {
	var idxs []int
	for i, tok := range tokens {
		if tok == want {
			idxs = append(idxs, i)
		}
	}
	return idxs
}
