// Package discover parses a regulator listing page into candidate penalty
// documents.
package discover

import (
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/pitwall/stewarding/internal/model"
)

// listingClass marks the container that holds the season's decision
// documents. Its absence means the site structure changed.
const listingClass = "decision-document-list"

// ErrListingStructure reports that the listing container was missing from
// the page. Discovery fails loudly here, an empty list would be mistaken for
// "no new documents".
var ErrListingStructure = errors.New("listing container not found")

// denylist rejects paperwork that shares the listing with decision
// documents but never carries a penalty. A denylist hit always wins over the
// allow filter.
var denylist = []string{
	"reprimand",
	"withdrawal",
	"schedule",
	"cover",
	"protest lodged",
	"summons",
	"correction",
	"press conference",
	"timing",
	"provisional",
}

// publishedLayouts are the timestamp formats the listing prints next to each
// document link.
var publishedLayouts = []string{
	"02.01.06 15:04",
	"02.01.2006 15:04",
	"02.01.06",
	"02.01.2006",
}

// Options tunes one discovery pass.
type Options struct {
	// Watermark, when non-zero, drops documents published strictly before
	// Watermark minus Grace. Zero means full-season discovery.
	Watermark time.Time
	// Grace widens the watermark backwards to catch documents published
	// late on the same day.
	Grace time.Duration
}

// Candidates parses the listing page body and returns the document
// references that pass the series' filename filters, in page order.
func Candidates(body io.Reader, base *url.URL, series model.Series, opts Options) ([]model.DocumentReference, error) {
	root, err := html.Parse(body)
	if err != nil {
		return nil, err
	}

	container := findByClass(root, listingClass)
	if container == nil {
		return nil, ErrListingStructure
	}

	cutoff := time.Time{}
	if !opts.Watermark.IsZero() {
		cutoff = opts.Watermark.Add(-opts.Grace)
	}

	var refs []model.DocumentReference
	seen := make(map[string]bool)
	walkAnchors(container, func(a *html.Node) {
		href := attr(a, "href")
		if href == "" {
			return
		}
		abs := resolve(base, href)
		if seen[abs] {
			return
		}
		fileName := fileNameOf(abs)
		if !accept(fileName, series) {
			return
		}
		published := publishedAt(a)
		if !cutoff.IsZero() && !published.IsZero() && published.Before(cutoff) {
			return
		}
		seen[abs] = true
		refs = append(refs, model.DocumentReference{
			Href:      abs,
			FileName:  fileName,
			Published: published,
		})
	})
	return refs, nil
}

// accept applies the shared denylist, the series' own additions, and then
// the decision/offence allowlist.
func accept(fileName string, series model.Series) bool {
	for _, deny := range denylist {
		if strings.Contains(fileName, deny) {
			return false
		}
	}
	for _, deny := range series.ExtraDeny {
		if strings.Contains(fileName, deny) {
			return false
		}
	}
	if !strings.Contains(fileName, "decision") && !strings.Contains(fileName, "offence") {
		return false
	}
	if series.RequireCarTerm && !strings.Contains(fileName, "car") {
		return false
	}
	return true
}

// fileNameOf derives the lowercase file name from a URL tail.
func fileNameOf(href string) string {
	name := path.Base(href)
	if unescaped, err := url.QueryUnescape(name); err == nil {
		name = unescaped
	}
	return strings.ToLower(name)
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// publishedAt looks for the publish timestamp the listing renders in a
// "published" sibling of the anchor's row.
func publishedAt(a *html.Node) time.Time {
	for row := a.Parent; row != nil; row = row.Parent {
		// Searching the whole listing container would pick up a sibling
		// row's timestamp.
		if hasClass(row, listingClass) {
			break
		}
		if pub := findByClass(row, "published"); pub != nil {
			if t, ok := parsePublished(textOf(pub)); ok {
				return t
			}
		}
	}
	return time.Time{}
}

func parsePublished(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Published on"))
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func walkAnchors(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode && n.Data == "a" {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkAnchors(c, visit)
	}
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
