// Package domain holds pure data types shared across modules.
// Nothing in this package may depend on infrastructure.
package domain

import (
	"math"
	"time"
)

// PriceTable is a table of asset closing prices indexed by date.
// Prices[symbol][i] is the close for Dates[i]; a missing observation is NaN.
// Dates must be strictly chronological.
type PriceTable struct {
	Dates  []time.Time
	Assets []string
	Prices map[string][]float64
}

// NewPriceTable creates an empty price table for the given dates and assets,
// with every observation initialized to NaN.
func NewPriceTable(dates []time.Time, assets []string) *PriceTable {
	prices := make(map[string][]float64, len(assets))
	for _, a := range assets {
		series := make([]float64, len(dates))
		for i := range series {
			series[i] = math.NaN()
		}
		prices[a] = series
	}
	return &PriceTable{Dates: dates, Assets: assets, Prices: prices}
}

// NumAssets returns the number of asset columns.
func (t *PriceTable) NumAssets() int { return len(t.Assets) }

// NumRows returns the number of date rows.
func (t *PriceTable) NumRows() int { return len(t.Dates) }

// Chronological reports whether dates are strictly increasing.
func (t *PriceTable) Chronological() bool {
	for i := 1; i < len(t.Dates); i++ {
		if !t.Dates[i].After(t.Dates[i-1]) {
			return false
		}
	}
	return true
}
