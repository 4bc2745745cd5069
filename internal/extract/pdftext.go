package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// rowTolerance groups positioned fragments whose baselines differ by no
	// more than this many points into one row.
	rowTolerance = 2.0
	// columnGap is the horizontal gap, in points, that separates two tokens
	// on the same row. Label/value columns in decision documents sit far
	// apart; word gaps inside a cell stay well under this.
	columnGap = 10.0
)

// Tokenize decodes a PDF held in memory into its text tokens in reading
// order: page-major, then top-to-bottom, left-to-right within a page.
func Tokenize(buf []byte) (tokens []string, err error) {
	defer recoverDecode(&err)

	r, err := pdf.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return tokenizeReader(r)
}

// TokenizeFile decodes a PDF on disk with the same output contract as
// Tokenize.
func TokenizeFile(path string) (tokens []string, err error) {
	defer recoverDecode(&err)

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()
	return tokenizeReader(r)
}

// recoverDecode converts decoder panics on malformed content streams into
// errors so a broken document fails alone.
func recoverDecode(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("decode pdf: %v", r)
	}
}

func tokenizeReader(r *pdf.Reader) ([]string, error) {
	var tokens []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		tokens = append(tokens, assembleTokens(page.Content().Text)...)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no extractable text")
	}
	return tokens, nil
}

// assembleTokens orders positioned fragments into reading order and joins
// them into tokens. Fragments on one row belong to the same token until a
// horizontal gap wider than columnGap splits them.
func assembleTokens(frags []pdf.Text) []string {
	if len(frags) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if diff := sorted[i].Y - sorted[j].Y; diff > rowTolerance || diff < -rowTolerance {
			return sorted[i].Y > sorted[j].Y // PDF y-axis points up
		}
		return sorted[i].X < sorted[j].X
	})

	var tokens []string
	var cur strings.Builder
	var prev *pdf.Text

	flush := func() {
		if tok := normalizeToken(cur.String()); tok != "" {
			tokens = append(tokens, tok)
		}
		cur.Reset()
	}

	for i := range sorted {
		f := sorted[i]
		if prev != nil {
			sameRow := f.Y-prev.Y <= rowTolerance && prev.Y-f.Y <= rowTolerance
			if !sameRow || f.X-(prev.X+prev.W) > columnGap {
				flush()
			} else if f.X-(prev.X+prev.W) > 0.5 {
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(f.S)
		prev = &sorted[i]
	}
	flush()

	return tokens
}

// normalizeToken collapses whitespace, trims, and percent-decodes a raw
// fragment run.
func normalizeToken(s string) string {
	if strings.Contains(s, "%") {
		if u, err := url.QueryUnescape(s); err == nil {
			s = u
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
