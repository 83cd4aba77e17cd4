package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestChangePct(t *testing.T) {
	tests := []struct {
		name     string
		from, to *float64
		want     *float64
	}{
		{"open to close", f(10.00), f(10.55), f(5.5)},
		{"low to high", f(10.00), f(12.00), f(20.0)},
		{"fall", f(2.00), f(1.90), f(-5.0)},
		{"rounds to two places", f(3.00), f(3.10), f(3.33)},
		{"nil from", nil, f(1), nil},
		{"nil to", f(1), nil, nil},
		{"zero from", f(0), f(1), nil},
		{"ratio overflows", f(1e-310), f(1e300), nil},
		{"not a number", f(math.NaN()), f(1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *float64
			require.NotPanics(t, func() { got = ChangePct(tt.from, tt.to) })
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestWithPrices(t *testing.T) {
	a := Announcement{Symbol: "BHP"}

	got := a.WithPrices(OHLC{Open: f(10), Close: f(10.55), High: f(12), Low: f(10)})
	require.NotNil(t, got.OCChangePct)
	require.NotNil(t, got.HLChangePct)
	assert.Equal(t, 5.5, *got.OCChangePct)
	assert.Equal(t, 20.0, *got.HLChangePct)
	assert.Nil(t, a.Open, "receiver must not be modified")

	empty := a.WithPrices(OHLC{})
	assert.Nil(t, empty.OCChangePct)
	assert.Nil(t, empty.HLChangePct)

	zeroLow := a.WithPrices(OHLC{Open: f(1), Close: f(1), High: f(1), Low: f(0)})
	assert.NotNil(t, zeroLow.OCChangePct)
	assert.Nil(t, zeroLow.HLChangePct)
}

func TestReportTable(t *testing.T) {
	today := ReportTable{{Symbol: "AAA", MarketSensitive: true}, {Symbol: "BBB"}}
	prior := ReportTable{{Symbol: "CCC", MarketSensitive: true}}

	all := today.Concat(prior)
	require.Len(t, all, 3)
	assert.Equal(t, "AAA", all[0].Symbol)
	assert.Equal(t, "CCC", all[2].Symbol)

	sens := all.MarketSensitive()
	require.Len(t, sens, 2)
	assert.Equal(t, "CCC", sens[1].Symbol)

	assert.Len(t, Columns, 11)
	assert.True(t, OHLC{}.Empty())
}
