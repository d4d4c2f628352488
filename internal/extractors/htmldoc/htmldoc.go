// Package htmldoc holds the goquery helpers shared by the HTML extractors:
// parsing, whitespace-normalised text, dates and participant lists.
package htmldoc

import (
	"bytes"
	"fmt"
	"mime"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

// contentSelectors are tried in order to find the main text container.
const contentSelectors = "#article, article, #content, main"

// nonContentSelectors lists elements stripped before reading text.
const nonContentSelectors = "script, style, nav, header, footer, noscript"

// Parse checks the content type and parses the HTML.
func Parse(input driven.ExtractInput) (*goquery.Document, error) {
	if !IsHTML(input.ContentType) {
		return nil, &domain.ExtractionError{
			Identifier: input.Identifier,
			Location:   input.Location,
			Reason:     fmt.Sprintf("unsupported content type %q", input.ContentType),
		}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input.Content))
	if err != nil {
		return nil, &domain.ExtractionError{
			Identifier: input.Identifier,
			Location:   input.Location,
			Reason:     "parse html",
			Err:        err,
		}
	}
	doc.Find(nonContentSelectors).Remove()
	return doc, nil
}

// IsHTML reports whether a content type can be read as HTML.
// An empty type is accepted.
func IsHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// Fail builds an ExtractionError for input.
func Fail(input driven.ExtractInput, format string, args ...any) error {
	return &domain.ExtractionError{
		Identifier: input.Identifier,
		Location:   input.Location,
		Reason:     fmt.Sprintf(format, args...),
	}
}

// NewRecord fills the base columns of a record from the extract input.
func NewRecord(input driven.ExtractInput, docType domain.DocumentType) *domain.StructuredRecord {
	return &domain.StructuredRecord{
		Identifier:     input.Identifier,
		SourceLocation: input.Location,
		DocType:        docType,
		FetchedAt:      input.FetchedAt,
		RawPath:        input.RawPath,
		ContentType:    input.ContentType,
		Fields:         make(map[string]any),
	}
}

var spaceRe = regexp.MustCompile(`\s+`)

// Clean collapses runs of whitespace and trims.
func Clean(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// Text returns the cleaned text of the first match of selector.
func Text(doc *goquery.Document, selector string) string {
	return Clean(doc.Find(selector).First().Text())
}

// Meta returns the content attribute of a named or property meta tag.
func Meta(doc *goquery.Document, name string) string {
	sel := fmt.Sprintf("meta[name='%s'], meta[property='%s']", name, name)
	if v, ok := doc.Find(sel).First().Attr("content"); ok {
		return Clean(v)
	}
	return ""
}

// Title prefers the article heading, then <h1>, <title> and og:title.
func Title(doc *goquery.Document) string {
	for _, sel := range []string{"h3.title", "#article h3", "h1", "title"} {
		if t := Text(doc, sel); t != "" {
			return t
		}
	}
	return Meta(doc, "og:title")
}

// Content returns the main text container, or the body.
func Content(doc *goquery.Document) *goquery.Selection {
	if sel := doc.Find(contentSelectors).First(); sel.Length() > 0 {
		return sel
	}
	return doc.Find("body").First()
}

// Paragraphs returns the non-empty cleaned paragraph texts of the main
// content, skipping the heading block.
func Paragraphs(doc *goquery.Document) []string {
	var out []string
	Content(doc).Find("p").Each(func(_ int, p *goquery.Selection) {
		if p.HasClass("article__time") || p.HasClass("releaseTime") ||
			p.HasClass("speaker") || p.HasClass("location") {
			return
		}
		if t := Clean(p.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

const monthPattern = `(January|February|March|April|May|June|July|August|September|October|November|December)`

var dateRe = regexp.MustCompile(monthPattern + `\s+(\d{1,2})(?:\s*(?:-|–|and)\s*(?:` + monthPattern + `\s+)?(\d{1,2}))?,\s*(\d{4})`)

// FindDate returns the first "Month D, YYYY" date in s. For a range such as
// "January 30-31, 2024" the last day is returned.
func FindDate(s string) (time.Time, bool) {
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, day, year := m[1], m[2], m[5]
	if m[4] != "" {
		day = m[4]
		if m[3] != "" {
			month = m[3]
		}
	}
	t, err := time.Parse("January 2, 2006", fmt.Sprintf("%s %s, %s", month, day, year))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PublishedDate reads the release date of a page.
func PublishedDate(doc *goquery.Document) (time.Time, bool) {
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return t.UTC(), true
			}
		}
	}
	for _, candidate := range []string{Text(doc, "p.article__time"), Meta(doc, "date"), Meta(doc, "article:published_time")} {
		if candidate == "" {
			continue
		}
		if t, err := time.Parse("2006-01-02", candidate); err == nil {
			return t, true
		}
		if t, ok := FindDate(candidate); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// First returns the first paragraph containing any of the needles,
// compared case-insensitively.
func First(paragraphs []string, needles ...string) (string, bool) {
	for _, p := range paragraphs {
		lower := strings.ToLower(p)
		for _, n := range needles {
			if strings.Contains(lower, strings.ToLower(n)) {
				return p, true
			}
		}
	}
	return "", false
}

// Sentence returns the sentence of paragraph containing needle.
func Sentence(paragraph, needle string) string {
	lower := strings.ToLower(paragraph)
	idx := strings.Index(lower, strings.ToLower(needle))
	if idx < 0 {
		return ""
	}
	start := strings.LastIndex(paragraph[:idx], ". ")
	if start < 0 {
		start = 0
	} else {
		start += 2
	}
	end := strings.Index(paragraph[idx:], ". ")
	if end < 0 {
		return strings.TrimSpace(paragraph[start:])
	}
	return strings.TrimSpace(paragraph[start : idx+end+1])
}

var andRe = regexp.MustCompile(`(?i)^and\s+`)

// Names splits a list such as "Jerome H. Powell, Chair; John C. Williams,
// Vice Chair; and Michelle W. Bowman." into names, dropping roles.
func Names(list string) []string {
	list = strings.TrimSuffix(strings.TrimSpace(list), ".")
	sep := ";"
	if !strings.Contains(list, ";") {
		sep = ","
	}
	var names []string
	for _, part := range strings.Split(list, sep) {
		part = andRe.ReplaceAllString(strings.TrimSpace(part), "")
		if sep == ";" {
			if comma := strings.Index(part, ","); comma >= 0 {
				part = part[:comma]
			}
		}
		for _, name := range strings.Split(part, " and ") {
			if name = Clean(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
