package types

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Columns is the fixed column order of a report.
var Columns = []string{
	"Symbol",
	"Open",
	"Close",
	"O-C change (%)",
	"High",
	"Low",
	"H-L change (%)",
	"DateTime",
	"Market Sensitive",
	"Headline",
	"Link",
}

// OHLC holds one trading session's prices. Any field may be nil when the
// price source had no data for it.
type OHLC struct {
	Open  *float64
	High  *float64
	Low   *float64
	Close *float64
}

// Empty reports whether no price is set.
func (p OHLC) Empty() bool {
	return p.Open == nil && p.High == nil && p.Low == nil && p.Close == nil
}

type Announcement struct {
	Symbol          string
	DateTime        time.Time
	MarketSensitive bool
	Headline        string
	Link            string

	Open  *float64
	Close *float64
	High  *float64
	Low   *float64

	OCChangePct *float64
	HLChangePct *float64
}

// WithPrices returns a copy of a with the session prices attached and the
// derived percentage changes recomputed.
func (a Announcement) WithPrices(p OHLC) Announcement {
	a.Open, a.High, a.Low, a.Close = p.Open, p.High, p.Low, p.Close
	a.OCChangePct = ChangePct(a.Open, a.Close)
	a.HLChangePct = ChangePct(a.Low, a.High)
	return a
}

// ChangePct returns round(((to/from) - 1) * 100, 2), or nil if either input
// is nil, from is zero or the ratio is not finite.
func ChangePct(from, to *float64) *float64 {
	if from == nil || to == nil || *from == 0 {
		return nil
	}
	v := ((*to / *from) - 1) * 100
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	rounded, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return &rounded
}

// ReportTable is an ordered list of announcements in report order.
type ReportTable []Announcement

// Concat returns a new table holding t's rows followed by other's.
func (t ReportTable) Concat(other ReportTable) ReportTable {
	out := make(ReportTable, 0, len(t)+len(other))
	out = append(out, t...)
	return append(out, other...)
}

// MarketSensitive returns only the market sensitive rows, in order.
func (t ReportTable) MarketSensitive() ReportTable {
	var out ReportTable
	for _, a := range t {
		if a.MarketSensitive {
			out = append(out, a)
		}
	}
	return out
}
