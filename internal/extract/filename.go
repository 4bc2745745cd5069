package extract

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/pitwall/stewarding/internal/model"
)

// dupSuffixRe matches the duplicate suffix a second download of the same file
// picks up: "_2", "-02" or "(3)".
var dupSuffixRe = regexp.MustCompile(`(?:[_-]\d{1,2}|\(\d{1,2}\))$`)

// FileNameParts is the decomposition of a document file name or href.
type FileNameParts struct {
	DocName       string
	GrandPrix     string
	DocType       model.DocType
	IncidentTitle string
}

// DecomposeFileName splits a document href or file name into the fields the
// record derives from it. The grand prix is the segment before the first
// hyphen; the document type is read from the remainder.
func DecomposeFileName(ref string) FileNameParts {
	name := path.Base(ref)
	if unescaped, err := url.QueryUnescape(name); err == nil {
		name = unescaped
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.TrimSpace(name)
	name = strings.TrimSpace(dupSuffixRe.ReplaceAllString(name, ""))

	parts := FileNameParts{DocName: name, DocType: model.DocTypeUnknown}

	remainder := name
	if i := strings.Index(name, "-"); i >= 0 {
		parts.GrandPrix = strings.TrimSpace(name[:i])
		remainder = name[i+1:]
	}

	lower := strings.ToLower(remainder)
	var typeWord string
	switch {
	case strings.Contains(lower, "decision"):
		parts.DocType = model.DocTypeDecision
		typeWord = "decision"
	case strings.Contains(lower, "offence"):
		parts.DocType = model.DocTypeOffence
		typeWord = "offence"
	}

	parts.IncidentTitle = incidentTitle(name, parts.GrandPrix, typeWord)
	return parts
}

// incidentTitle strips the grand prix name and the document-type word from the
// file name, then trims whatever separators are left dangling.
func incidentTitle(name, grandPrix, typeWord string) string {
	title := name
	if grandPrix != "" {
		title = strings.TrimPrefix(title, grandPrix)
	}
	if typeWord != "" {
		if i := strings.Index(strings.ToLower(title), typeWord); i >= 0 {
			title = title[:i] + title[i+len(typeWord):]
		}
	}
	title = strings.TrimLeft(title, " -_")
	title = strings.TrimRight(title, " -_")
	return strings.Join(strings.Fields(title), " ")
}
