package asx

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	dateLayout        = "02/01/2006 03:04 PM"
	headlineSeparator = "\n\n\n"
)

var (
	whitespaceRun   = regexp.MustCompile(`[\n\t\r\s\x{00A0}]+`)
	spaceAfterColon = regexp.MustCompile(`:\s+`)
)

// extractText concatenates every text node below n.
func extractText(n *html.Node) string {
	var extract func(*html.Node) string

	extract = func(n *html.Node) string {
		if n.Type == html.TextNode {
			return n.Data
		}
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			sb.WriteString(extract(c))
		}
		return sb.String()
	}

	return extract(n)
}

func selectionText(s *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range s.Nodes {
		sb.WriteString(extractText(n))
	}
	return sb.String()
}

// Headline cuts text at the first triple newline and trims it. Text without
// a separator is returned trimmed.
func Headline(text string) string {
	if i := strings.Index(text, headlineSeparator); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// ParseDateTime parses listing text of the form "DD/MM/YYYY H:MM AM" in loc.
// The first ten characters are the date, the remainder is the time. A time
// shorter than eight characters gets a single leading zero.
func ParseDateTime(text string, loc *time.Location) (time.Time, error) {
	cleaned := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if len(cleaned) < 10 {
		return time.Time{}, fmt.Errorf("date text %q is too short", text)
	}

	date := cleaned[:10]
	clock := strings.ToUpper(strings.TrimSpace(cleaned[10:]))
	clock = spaceAfterColon.ReplaceAllString(clock, ":")
	if clock == "" {
		return time.Time{}, fmt.Errorf("date text %q has no time", text)
	}
	if len(clock) < 8 {
		clock = "0" + clock
	}

	t, err := time.ParseInLocation(dateLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date string '%s': %w", cleaned, err)
	}
	return t, nil
}

// resolveLink resolves href against base.
func resolveLink(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", errors.New("empty href")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
