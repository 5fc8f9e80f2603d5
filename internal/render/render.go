// Package render turns backend values into terminal text.
package render

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
)

// Layouts for displayed times.
const (
	TimestampLayout = "2006/01/02 15:04:05"
	MinuteLayout    = "2006/01/02 15:04"
)

// inputLayouts are the ISO-8601 shapes the backend emits. Layouts without a
// zone are read as local time.
var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a backend timestamp in loc.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// FormatTime renders s with layout in loc. Unparseable input is returned as is.
func FormatTime(s, layout string, loc *time.Location) string {
	t, ok := ParseTime(s, loc)
	if !ok {
		return s
	}
	return t.Format(layout)
}

// Timestamp renders s as local "2006/01/02 15:04:05".
func Timestamp(s string) string {
	return FormatTime(s, TimestampLayout, time.Local)
}

// Count renders n with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Ago renders how long before now t was, e.g. "3 minutes ago".
func Ago(t time.Time) string {
	return humanize.Time(t)
}

// Text flattens post HTML to plain text. Line breaks become newlines and
// anchor text is kept.
func Text(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Text())
}

// Link is an anchor found in post HTML.
type Link struct {
	Text string
	Href string
}

// Links lists the anchors in post HTML, such as >>123 reply references.
func Links(html string) []Link {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var links []Link
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		links = append(links, Link{Text: strings.TrimSpace(s.Text()), Href: href})
	})
	return links
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// OneLine collapses whitespace runs, newlines included, into single spaces.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
