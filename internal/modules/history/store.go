// Package history provides access to historical daily price data backing
// the optimizer. Prices are stored per symbol in SQLite and assembled into
// a date-aligned table on demand.
package history

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmelis/hrpfolio/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS daily_prices (
	symbol TEXT    NOT NULL,
	date   INTEGER NOT NULL,
	close  REAL    NOT NULL,
	PRIMARY KEY (symbol, date)
);
CREATE INDEX IF NOT EXISTS idx_daily_prices_date ON daily_prices(date);
`

// DailyPrice is one closing price observation.
type DailyPrice struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Store provides access to the daily price history.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a history store and ensures its schema exists.
func NewStore(db *sql.DB, log zerolog.Logger) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &Store{
		db:  db,
		log: log.With().Str("component", "history_store").Logger(),
	}, nil
}

// SavePrices upserts daily closes for a symbol. Dates are stored as UTC
// midnight Unix timestamps so the same calendar day never duplicates.
func (s *Store) SavePrices(symbol string, prices []DailyPrice) error {
	if symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET close = excluded.close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		day := time.Date(p.Date.Year(), p.Date.Month(), p.Date.Day(), 0, 0, 0, 0, time.UTC)
		if _, err := stmt.Exec(symbol, day.Unix(), p.Close); err != nil {
			return fmt.Errorf("failed to upsert price for %s: %w", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prices for %s: %w", symbol, err)
	}

	s.log.Debug().Str("symbol", symbol).Int("rows", len(prices)).Msg("Saved daily prices")
	return nil
}

// GetDailyPrices fetches up to lookbackDays of daily closes for a symbol,
// oldest first.
func (s *Store) GetDailyPrices(symbol string, lookbackDays int) ([]DailyPrice, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -lookbackDays).Unix()

	rows, err := s.db.Query(`
		SELECT date, close
		FROM daily_prices
		WHERE symbol = ? AND date >= ?
		ORDER BY date ASC
	`, symbol, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var prices []DailyPrice
	for rows.Next() {
		var dateUnix int64
		var p DailyPrice
		if err := rows.Scan(&dateUnix, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		p.Date = time.Unix(dateUnix, 0).UTC()
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return prices, nil
}

// Symbols returns every symbol with stored history, sorted.
func (s *Store) Symbols() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// PriceTable assembles a date-aligned price table for the given symbols over
// the lookback window. The date axis is the union of all observed dates;
// missing observations are NaN, which the optimizer fills or drops.
func (s *Store) PriceTable(symbols []string, lookbackDays int) (*domain.PriceTable, error) {
	perSymbol := make(map[string]map[int64]float64, len(symbols))
	dateSet := make(map[int64]struct{})

	for _, sym := range symbols {
		prices, err := s.GetDailyPrices(sym, lookbackDays)
		if err != nil {
			return nil, err
		}
		series := make(map[int64]float64, len(prices))
		for _, p := range prices {
			ts := p.Date.Unix()
			series[ts] = p.Close
			dateSet[ts] = struct{}{}
		}
		perSymbol[sym] = series
	}

	stamps := make([]int64, 0, len(dateSet))
	for ts := range dateSet {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	dates := make([]time.Time, len(stamps))
	for i, ts := range stamps {
		dates[i] = time.Unix(ts, 0).UTC()
	}

	table := domain.NewPriceTable(dates, symbols)
	for _, sym := range symbols {
		series := table.Prices[sym]
		for i, ts := range stamps {
			if close, ok := perSymbol[sym][ts]; ok {
				series[i] = close
			}
		}
	}

	return table, nil
}
