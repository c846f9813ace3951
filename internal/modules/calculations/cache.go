// Package calculations provides a small SQLite-backed cache for expensive
// computation results, so the latest optimizer output survives restarts.
package calculations

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TTLOptimizer is the default lifetime for cached optimizer results.
const TTLOptimizer = 24 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS calc_cache (
	category   TEXT    NOT NULL,
	cache_key  TEXT    NOT NULL,
	value      BLOB    NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (category, cache_key)
);
`

// Cache is a key/value store with per-entry TTL. Values are opaque blobs;
// callers pick their own encoding (the optimizer service uses msgpack).
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCache creates the cache accessor and ensures its table exists.
func NewCache(db *sql.DB, log zerolog.Logger) (*Cache, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}
	return &Cache{
		db:  db,
		log: log.With().Str("component", "calc_cache").Logger(),
	}, nil
}

// Get returns the cached value for (category, key), or ok=false when the
// entry is absent or expired. Expired entries are deleted on read.
func (c *Cache) Get(category, key string) ([]byte, bool) {
	var value []byte
	var expiresAt int64
	err := c.db.QueryRow(
		`SELECT value, expires_at FROM calc_cache WHERE category = ? AND cache_key = ?`,
		category, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("category", category).Msg("Cache read failed")
		return nil, false
	}

	if time.Now().Unix() >= expiresAt {
		if _, err := c.db.Exec(
			`DELETE FROM calc_cache WHERE category = ? AND cache_key = ?`,
			category, key,
		); err != nil {
			c.log.Warn().Err(err).Str("category", category).Msg("Failed to evict expired cache entry")
		}
		return nil, false
	}

	return value, true
}

// Set stores a value for (category, key) with the given TTL, replacing any
// previous entry.
func (c *Cache) Set(category, key string, value []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).Unix()
	_, err := c.db.Exec(
		`INSERT INTO calc_cache (category, cache_key, value, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (category, cache_key) DO UPDATE SET
		   value = excluded.value,
		   expires_at = excluded.expires_at`,
		category, key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s/%s: %w", category, key, err)
	}
	return nil
}

// PurgeExpired removes every expired entry and returns the count removed.
func (c *Cache) PurgeExpired() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM calc_cache WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
