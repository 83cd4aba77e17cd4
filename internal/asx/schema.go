package asx

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/shanehull/asxreport/internal/types"
)

// RawRow is one table row of a fetched listing page.
type RawRow struct {
	sel *goquery.Selection
}

// HTML returns the row markup, for diagnostics.
func (r RawRow) HTML() string {
	if r.sel == nil {
		return ""
	}
	h, err := goquery.OuterHtml(r.sel)
	if err != nil {
		return ""
	}
	return h
}

// RowSchema isolates knowledge of the listing markup. Rows locates the data
// rows of a page and Decode turns one of them into an announcement without
// prices.
type RowSchema interface {
	Rows(doc *goquery.Document) ([]RawRow, error)
	Decode(row RawRow) (types.Announcement, error)
}

// ListingSchema decodes the ASX daily announcement pages: a table inside a
// distinguishing tag, a header row, then rows of symbol, date/time,
// sensitivity marker and headline cells.
type ListingSchema struct {
	TableSelector string
	Base          *url.URL
	Location      *time.Location
}

// NewListingSchema builds a ListingSchema resolving links against baseURL.
func NewListingSchema(tableSelector, baseURL string, loc *time.Location) (*ListingSchema, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ListingSchema{
		TableSelector: tableSelector,
		Base:          base,
		Location:      loc,
	}, nil
}

func (s *ListingSchema) Rows(doc *goquery.Document) ([]RawRow, error) {
	table := doc.Find(s.TableSelector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("announcement table %q not found", s.TableSelector)
	}

	trs := table.Find("tr")
	if trs.Length() == 0 {
		return nil, nil
	}

	// first row holds the column headings
	rows := make([]RawRow, 0, trs.Length()-1)
	trs.Slice(1, goquery.ToEnd).Each(func(_ int, tr *goquery.Selection) {
		rows = append(rows, RawRow{sel: tr})
	})
	return rows, nil
}

func (s *ListingSchema) Decode(row RawRow) (types.Announcement, error) {
	var ann types.Announcement

	if row.sel == nil {
		return ann, &ParseError{Cell: "row", Err: errors.New("empty row")}
	}

	cells := row.sel.ChildrenFiltered("td")
	if cells.Length() < 4 {
		return ann, &ParseError{Cell: "row", Err: fmt.Errorf("expected 4 cells, found %d", cells.Length())}
	}

	ann.Symbol = strings.ToUpper(strings.TrimSpace(selectionText(cells.Eq(0))))
	if ann.Symbol == "" {
		return ann, &ParseError{Cell: "symbol", Err: errors.New("empty symbol")}
	}

	dt, err := ParseDateTime(selectionText(cells.Eq(1)), s.Location)
	if err != nil {
		return ann, &ParseError{Cell: "datetime", Err: err}
	}
	ann.DateTime = dt

	// The marker glyph is the only signal the page gives.
	ann.MarketSensitive = cells.Eq(2).Find("img").Length() > 0

	headlineCell := cells.Eq(3)
	ann.Headline = Headline(selectionText(headlineCell))
	if ann.Headline == "" {
		return ann, &ParseError{Cell: "headline", Err: errors.New("empty headline")}
	}

	anchor := headlineCell.Find("a").First()
	if anchor.Length() == 0 {
		return ann, &ParseError{Cell: "link", Err: errors.New("no anchor in headline cell")}
	}
	href, _ := anchor.Attr("href")
	link, err := resolveLink(s.Base, href)
	if err != nil {
		return ann, &ParseError{Cell: "link", Err: err}
	}
	ann.Link = link

	return ann, nil
}
