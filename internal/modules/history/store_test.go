package history

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A second pool connection would open a second empty in-memory DB.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func day(offset int) time.Time {
	return time.Now().UTC().AddDate(0, 0, offset)
}

func TestStore_SaveAndGetPrices(t *testing.T) {
	store := testStore(t)

	require.NoError(t, store.SavePrices("AAA", []DailyPrice{
		{Date: day(-2), Close: 100},
		{Date: day(-1), Close: 101},
		{Date: day(0), Close: 99},
	}))

	prices, err := store.GetDailyPrices("AAA", 30)
	require.NoError(t, err)
	require.Len(t, prices, 3)

	// Oldest first.
	assert.Equal(t, 100.0, prices[0].Close)
	assert.Equal(t, 99.0, prices[2].Close)
	assert.True(t, prices[0].Date.Before(prices[1].Date))

	// Dates come back normalized to UTC midnight.
	for _, p := range prices {
		assert.Equal(t, 0, p.Date.Hour())
		assert.Equal(t, time.UTC, p.Date.Location())
	}
}

func TestStore_SavePricesUpserts(t *testing.T) {
	store := testStore(t)

	d := day(0)
	require.NoError(t, store.SavePrices("AAA", []DailyPrice{{Date: d, Close: 100}}))
	require.NoError(t, store.SavePrices("AAA", []DailyPrice{{Date: d, Close: 105}}))

	prices, err := store.GetDailyPrices("AAA", 30)
	require.NoError(t, err)
	require.Len(t, prices, 1, "same calendar day must not duplicate")
	assert.Equal(t, 105.0, prices[0].Close)
}

func TestStore_SavePricesRequiresSymbol(t *testing.T) {
	store := testStore(t)
	err := store.SavePrices("", []DailyPrice{{Date: day(0), Close: 1}})
	assert.Error(t, err)
}

func TestStore_LookbackWindow(t *testing.T) {
	store := testStore(t)

	require.NoError(t, store.SavePrices("AAA", []DailyPrice{
		{Date: day(-40), Close: 90},
		{Date: day(-5), Close: 100},
	}))

	prices, err := store.GetDailyPrices("AAA", 30)
	require.NoError(t, err)
	require.Len(t, prices, 1, "rows older than the lookback are excluded")
	assert.Equal(t, 100.0, prices[0].Close)
}

func TestStore_Symbols(t *testing.T) {
	store := testStore(t)

	symbols, err := store.Symbols()
	require.NoError(t, err)
	assert.Empty(t, symbols)

	require.NoError(t, store.SavePrices("BBB", []DailyPrice{{Date: day(0), Close: 1}}))
	require.NoError(t, store.SavePrices("AAA", []DailyPrice{{Date: day(0), Close: 2}}))

	symbols, err = store.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, symbols, "sorted")
}

func TestStore_PriceTable(t *testing.T) {
	store := testStore(t)

	// BBB is missing the middle day; the table keeps the union of dates
	// and marks the gap as NaN.
	require.NoError(t, store.SavePrices("AAA", []DailyPrice{
		{Date: day(-2), Close: 100},
		{Date: day(-1), Close: 101},
		{Date: day(0), Close: 102},
	}))
	require.NoError(t, store.SavePrices("BBB", []DailyPrice{
		{Date: day(-2), Close: 50},
		{Date: day(0), Close: 51},
	}))

	table, err := store.PriceTable([]string{"AAA", "BBB"}, 30)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB"}, table.Assets)
	require.Equal(t, 3, table.NumRows())
	assert.True(t, table.Chronological())

	assert.Equal(t, []float64{100, 101, 102}, table.Prices["AAA"])
	assert.Equal(t, 50.0, table.Prices["BBB"][0])
	assert.True(t, math.IsNaN(table.Prices["BBB"][1]))
	assert.Equal(t, 51.0, table.Prices["BBB"][2])
}
