package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPriceTable(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{base, base.AddDate(0, 0, 1)}

	table := NewPriceTable(dates, []string{"AAA", "BBB"})

	assert.Equal(t, 2, table.NumAssets())
	assert.Equal(t, 2, table.NumRows())
	for _, a := range table.Assets {
		series := table.Prices[a]
		require.Len(t, series, 2)
		for _, v := range series {
			assert.True(t, math.IsNaN(v), "unset observations start as NaN")
		}
	}
}

func TestPriceTable_Chronological(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	sorted := NewPriceTable([]time.Time{base, base.AddDate(0, 0, 1)}, nil)
	assert.True(t, sorted.Chronological())

	duplicate := NewPriceTable([]time.Time{base, base}, nil)
	assert.False(t, duplicate.Chronological(), "strictly increasing, duplicates rejected")

	reversed := NewPriceTable([]time.Time{base.AddDate(0, 0, 1), base}, nil)
	assert.False(t, reversed.Chronological())

	empty := NewPriceTable(nil, nil)
	assert.True(t, empty.Chronological())
}
