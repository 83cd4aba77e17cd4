/*
Package report enriches announcement listings with prices and assembles the
daily report.
*/
package report

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shanehull/asxreport/internal/asx"
	"github.com/shanehull/asxreport/internal/logger"
	"github.com/shanehull/asxreport/internal/types"
)

// ListingSource yields the raw rows of one listing.
type ListingSource interface {
	Fetch(ctx context.Context, e asx.Endpoint) ([]asx.RawRow, error)
}

// RowParser turns a raw row into an announcement.
type RowParser interface {
	Parse(row asx.RawRow) (types.Announcement, error)
}

// PriceSource returns the session preceding date for symbol.
type PriceSource interface {
	Lookup(ctx context.Context, symbol string, date time.Time) (types.OHLC, error)
}

// ListingResult summarises one listing run.
type ListingResult struct {
	Endpoint      asx.Endpoint
	Fetched       int
	Parsed        int
	Skipped       int
	PriceMissing  int
	PriceFailures int
	Err           error
}

// Pipeline fetches, parses and enriches one listing at a time.
type Pipeline struct {
	source  ListingSource
	parser  RowParser
	prices  PriceSource
	workers int
	now     func() time.Time
	logger  *zap.Logger
}

type Option func(*Pipeline)

// WithWorkers sets how many price lookups may run at once.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithClock replaces time.Now, which supplies the price lookup date.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

func NewPipeline(source ListingSource, parser RowParser, prices PriceSource, log *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:  source,
		parser:  parser,
		prices:  prices,
		workers: 1,
		now:     time.Now,
		logger:  logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run builds the table for one listing. Malformed rows are logged and
// skipped, and failed price lookups leave the row without prices. Only a
// fetch failure is returned as an error.
//
// Every row is priced against the run date, not its own announcement date,
// so rows from the previous business day carry the same session as today's.
func (p *Pipeline) Run(ctx context.Context, e asx.Endpoint) (types.ReportTable, ListingResult, error) {
	res := ListingResult{Endpoint: e}
	log := p.logger.With(zap.Stringer("endpoint", e))

	rows, err := p.source.Fetch(ctx, e)
	if err != nil {
		res.Err = err
		return types.ReportTable{}, res, err
	}
	res.Fetched = len(rows)

	anns := make([]types.Announcement, 0, len(rows))
	for i, row := range rows {
		ann, err := p.parser.Parse(row)
		if err != nil {
			res.Skipped++
			log.Warn("skipping malformed row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		anns = append(anns, ann)
	}
	res.Parsed = len(anns)

	lookupDate := p.now()
	quotes := make([]types.OHLC, len(anns))
	failed := make([]bool, len(anns))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, ann := range anns {
		g.Go(func() error {
			q, err := p.prices.Lookup(ctx, ann.Symbol, lookupDate)
			if err != nil {
				failed[i] = true
				log.Warn("price lookup failed", zap.String("symbol", ann.Symbol), zap.Error(err))
				return nil
			}
			quotes[i] = q
			return nil
		})
	}
	// lookups never fail the group; errors are recorded per row
	_ = g.Wait()

	table := make(types.ReportTable, 0, len(anns))
	for i, ann := range anns {
		switch {
		case failed[i]:
			res.PriceFailures++
		case quotes[i].Empty():
			res.PriceMissing++
		}
		table = append(table, ann.WithPrices(quotes[i]))
	}

	log.Info("listing enriched",
		zap.Int("fetched", res.Fetched),
		zap.Int("parsed", res.Parsed),
		zap.Int("skipped", res.Skipped),
		zap.Int("price_missing", res.PriceMissing),
		zap.Int("price_failures", res.PriceFailures),
	)
	return table, res, nil
}
