package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// URLCacheTTL is how long a cached URL stays fresh.
const URLCacheTTL = time.Hour

// ReleaseURLKey caches the latest-release download URL.
const ReleaseURLKey = "release_url"

// CachedURL returns the cached URL for key when it is younger than the
// TTL; ok is false for a missing or stale entry.
func (db *DB) CachedURL(key string) (string, bool, error) {
	return db.cachedURLAt(key, time.Now())
}

func (db *DB) cachedURLAt(key string, now time.Time) (string, bool, error) {
	var (
		url       string
		fetchedAt string
	)
	err := db.sql.QueryRow("SELECT url, fetched_at FROM url_cache WHERE key = ?", key).
		Scan(&url, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading url cache %s: %w", key, err)
	}

	t, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return "", false, fmt.Errorf("parsing url cache timestamp: %w", err)
	}
	if now.Sub(t) >= URLCacheTTL {
		return "", false, nil
	}
	return url, true, nil
}

// CacheURL stores a URL under key with the current fetch time.
func (db *DB) CacheURL(key, url string) error {
	return db.cacheURLAt(key, url, time.Now())
}

func (db *DB) cacheURLAt(key, url string, now time.Time) error {
	_, err := db.sql.Exec(`
		INSERT INTO url_cache (key, url, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET url = excluded.url, fetched_at = excluded.fetched_at
	`, key, url, now.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing url cache %s: %w", key, err)
	}
	return nil
}
