package asx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shanehull/asxreport/internal/config"
)

const listingPage = `<html><body>
<h1>Company announcements</h1>
<announcement_data>
<table>
<tr><th>ASX Code</th><th>Date</th><th>Price sens.</th><th>Headline</th></tr>
<tr>
<td>BHP</td>
<td>01/05/2024
<span class="dates-time">9:15 am</span></td>
<td class="pricesens"><img src="/images/icon-price-sensitive.svg" alt="price sensitive"></td>
<td>
<a href="/asx/v2/statistics/displayAnnouncement.do?display=pdf&amp;idsId=02800001">
Quarterly Activities Report


<span class="page">12 pages</span>
<span class="filesize">1.2MB</span>
</a>
</td>
</tr>
<tr>
<td> cba </td>
<td>01/05/2024 12:30 PM</td>
<td><span class="icon"></span></td>
<td><a href="/asx/v2/statistics/displayAnnouncement.do?display=pdf&amp;idsId=02800002">Change of Director's Interest Notice</a></td>
</tr>
</table>
</announcement_data>
</body></html>`

func testSchema(t *testing.T) *ListingSchema {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	s, err := NewListingSchema("announcement_data", "https://www.asx.com.au", loc)
	require.NoError(t, err)
	return s
}

func docRows(t *testing.T, s RowSchema, page string) []RawRow {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	rows, err := s.Rows(doc)
	require.NoError(t, err)
	return rows
}

func TestParseDateTime(t *testing.T) {
	loc, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	want := time.Date(2024, time.May, 1, 9, 15, 0, 0, loc)

	for _, text := range []string{
		"01/05/2024 09:15 AM",
		"01/05/2024 9:15 AM",
		"  01/05/2024\n\t9:15 am  ",
		"01/05/2024 9: 15 AM",
		"01/05/2024\u00a09:15 AM",
	} {
		got, err := ParseDateTime(text, loc)
		require.NoError(t, err, text)
		assert.True(t, want.Equal(got), "%q parsed as %v", text, got)
	}

	pm, err := ParseDateTime("01/05/2024 12:30 PM", loc)
	require.NoError(t, err)
	assert.Equal(t, 12, pm.Hour())

	for _, text := range []string{"", "01/05/2024", "2024-05-01 09:15 AM", "01/05/2024 25:00 AM", "01/05/2024 9.15"} {
		_, err := ParseDateTime(text, loc)
		assert.Error(t, err, text)
	}
}

func TestHeadline(t *testing.T) {
	assert.Equal(t, "Quarterly Report", Headline("\n  Quarterly Report\n\n\n3 pages\n120KB"))
	assert.Equal(t, "No separator here", Headline("  No separator here \n\n"))

	once := Headline("Appendix 4C\n\n\n2 pages")
	assert.Equal(t, once, Headline(once))
}

func TestListingSchemaRows(t *testing.T) {
	s := testSchema(t)
	rows := docRows(t, s, listingPage)
	require.Len(t, rows, 2, "header row excluded")
	assert.Contains(t, rows[0].HTML(), "BHP")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><table><tr><td>x</td></tr></table></body></html>"))
	require.NoError(t, err)
	_, err = s.Rows(doc)
	assert.Error(t, err, "missing distinguishing tag")
}

func TestParserParse(t *testing.T) {
	s := testSchema(t)
	p := NewParser(s)
	rows := docRows(t, s, listingPage)

	first, err := p.Parse(rows[0])
	require.NoError(t, err)
	assert.Equal(t, "BHP", first.Symbol)
	assert.True(t, first.MarketSensitive)
	assert.Equal(t, "Quarterly Activities Report", first.Headline)
	assert.Equal(t, "https://www.asx.com.au/asx/v2/statistics/displayAnnouncement.do?display=pdf&idsId=02800001", first.Link)
	assert.Equal(t, time.Date(2024, time.May, 1, 9, 15, 0, 0, s.Location), first.DateTime)
	assert.Nil(t, first.Open)

	second, err := p.Parse(rows[1])
	require.NoError(t, err)
	assert.Equal(t, "CBA", second.Symbol)
	assert.False(t, second.MarketSensitive, "non-image markers do not count")
	assert.Equal(t, "Change of Director's Interest Notice", second.Headline)
}

func TestParserParseErrors(t *testing.T) {
	s := testSchema(t)
	p := NewParser(s)

	tests := []struct {
		name string
		row  string
		cell string
	}{
		{"too few cells", `<tr><td>BHP</td><td>01/05/2024 9:15 AM</td></tr>`, "row"},
		{"empty symbol", `<tr><td> </td><td>01/05/2024 9:15 AM</td><td></td><td><a href="/x">H</a></td></tr>`, "symbol"},
		{"missing date", `<tr><td>BHP</td><td></td><td></td><td><a href="/x">H</a></td></tr>`, "datetime"},
		{"bad date", `<tr><td>BHP</td><td>yesterday morning</td><td></td><td><a href="/x">H</a></td></tr>`, "datetime"},
		{"no anchor", `<tr><td>BHP</td><td>01/05/2024 9:15 AM</td><td></td><td>Headline only</td></tr>`, "link"},
		{"empty href", `<tr><td>BHP</td><td>01/05/2024 9:15 AM</td><td></td><td><a>Headline</a></td></tr>`, "link"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := "<html><body><announcement_data><table><tr><th>h</th></tr>" + tt.row + "</table></announcement_data></body></html>"
			rows := docRows(t, s, page)
			require.Len(t, rows, 1)

			_, err := p.Parse(rows[0])
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.cell, pe.Cell)
		})
	}
}

func TestFetcherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/today":
			_, _ = w.Write([]byte(listingPage))
		case "/prev":
			_, _ = w.Write([]byte("<html><body><p>maintenance</p></body></html>"))
		default:
			http.Error(w, "gone", http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	cfg := config.Listing{
		TodayEndpoint: srv.URL + "/today",
		PriorEndpoint: srv.URL + "/prev",
		Timeout:       5 * time.Second,
	}
	f := NewFetcher(cfg, testSchema(t), zaptest.NewLogger(t))

	rows, err := f.Fetch(context.Background(), Today)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = f.Fetch(context.Background(), PreviousBusinessDay)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, PreviousBusinessDay, fe.Endpoint)
	assert.Contains(t, err.Error(), "not found")

	cfg.TodayEndpoint = srv.URL + "/broken"
	f = NewFetcher(cfg, testSchema(t), nil)
	_, err = f.Fetch(context.Background(), Today)
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Error(), "502")

	_, err = f.Fetch(context.Background(), Endpoint(7))
	assert.Error(t, err)
}

func TestEndpointString(t *testing.T) {
	assert.Equal(t, "today", Today.String())
	assert.Equal(t, "previous business day", PreviousBusinessDay.String())
}
