package report

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/shanehull/asxreport/internal/asx"
	"github.com/shanehull/asxreport/internal/logger"
	"github.com/shanehull/asxreport/internal/types"
)

// ErrEmptyReport means neither listing produced a row, so no report date can
// be derived.
var ErrEmptyReport = errors.New("no announcements in either listing")

type Report struct {
	Date     time.Time
	Table    types.ReportTable
	Listings []ListingResult
}

// Assembler combines today's listing with the previous business day's.
type Assembler struct {
	pipeline *Pipeline
	logger   *zap.Logger
}

func NewAssembler(p *Pipeline, log *zap.Logger) *Assembler {
	return &Assembler{pipeline: p, logger: logger.OrNop(log)}
}

// Assemble runs both listings and concatenates them, today's rows first. A
// listing that cannot be fetched contributes no rows. The report date is the
// calendar date of the first row.
func (a *Assembler) Assemble(ctx context.Context) (*Report, error) {
	rep := &Report{}
	var fetchErrs []error

	for _, e := range []asx.Endpoint{asx.Today, asx.PreviousBusinessDay} {
		table, res, err := a.pipeline.Run(ctx, e)
		rep.Listings = append(rep.Listings, res)
		if err != nil {
			a.logger.Error("listing failed", zap.Stringer("endpoint", e), zap.Error(err))
			fetchErrs = append(fetchErrs, err)
			continue
		}
		rep.Table = rep.Table.Concat(table)
	}

	if len(rep.Table) == 0 {
		return nil, errors.Join(append([]error{ErrEmptyReport}, fetchErrs...)...)
	}

	first := rep.Table[0].DateTime
	rep.Date = time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location())
	return rep, nil
}
