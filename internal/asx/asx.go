/*
Package asx fetches the ASX daily announcement listings and decodes their rows
into announcements.
*/
package asx

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/shanehull/asxreport/internal/config"
	"github.com/shanehull/asxreport/internal/logger"
)

// Endpoint selects one of the two daily listings.
type Endpoint int

const (
	Today Endpoint = iota
	PreviousBusinessDay
)

func (e Endpoint) String() string {
	switch e {
	case Today:
		return "today"
	case PreviousBusinessDay:
		return "previous business day"
	default:
		return fmt.Sprintf("endpoint(%d)", int(e))
	}
}

// Fetcher retrieves listing pages and splits them into raw rows.
type Fetcher struct {
	client *http.Client
	urls   map[Endpoint]string
	schema RowSchema
	logger *zap.Logger
}

// NewFetcher creates a fetcher for the configured listing endpoints.
func NewFetcher(cfg config.Listing, schema RowSchema, log *zap.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		urls: map[Endpoint]string{
			Today:               cfg.TodayEndpoint,
			PreviousBusinessDay: cfg.PriorEndpoint,
		},
		schema: schema,
		logger: logger.OrNop(log),
	}
}

// Fetch downloads the listing for e and returns its data rows in page order,
// without the header row. Failures are returned as *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, e Endpoint) ([]RawRow, error) {
	url, ok := f.urls[e]
	if !ok || url == "" {
		return nil, &FetchError{Endpoint: e, Err: fmt.Errorf("no URL configured")}
	}
	fail := func(err error) error {
		return &FetchError{Endpoint: e, URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to fetch URL: %w", err))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("failed to close response body", zap.String("url", url), zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fail(fmt.Errorf("received non-OK status code %d", resp.StatusCode))
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to parse HTML: %w", err))
	}

	rows, err := f.schema.Rows(goquery.NewDocumentFromNode(doc))
	if err != nil {
		return nil, fail(err)
	}

	f.logger.Debug("fetched listing",
		zap.Stringer("endpoint", e),
		zap.String("url", url),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}
