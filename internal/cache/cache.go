// Package cache persists small per-extractor values between runs, such as
// decrypted signature tables, in a local sqlite database.
package cache

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ytget/vidgrab/internal/platform"
)

// Cache is a section/key store with JSON-encoded values. Safe for concurrent
// use; sqlite serializes writers.
type Cache struct {
	db *sqlx.DB
}

type cacheRow struct {
	Section string `db:"section"`
	Key     string `db:"key"`
	Value   string `db:"value"`
}

// Open creates or opens the cache database at path.
func Open(path string) (*Cache, error) {
	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(path)); err != nil {
		return nil, err
	}
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}

	if _, err := db.Exec(`
create table if not exists cache
(
  section     TEXT NOT NULL,
  key         TEXT NOT NULL,
  value       TEXT NOT NULL,
  date_create TEXT DEFAULT (datetime('now'))
);

create unique index if not exists cache_section_key_uindex
    on cache (section, key);
`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Store writes value under section/key, replacing any previous entry.
func (c *Cache) Store(section, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %s/%s: %w", section, key, err)
	}
	_, err = c.db.Exec(`INSERT INTO cache (section, key, value) VALUES (?, ?, ?)
		ON CONFLICT (section, key) DO UPDATE SET value = excluded.value,
		date_create = datetime('now')`,
		section, key, string(encoded))
	if err != nil {
		return fmt.Errorf("store cache value %s/%s: %w", section, key, err)
	}
	return nil
}

// Load reads the value under section/key into out. The first return value
// reports whether the entry exists.
func (c *Cache) Load(section, key string, out any) (bool, error) {
	var row cacheRow
	err := c.db.Get(&row,
		"SELECT section, key, value FROM cache WHERE section = ? AND key = ?",
		section, key)
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal([]byte(row.Value), out); err != nil {
		return false, fmt.Errorf("decode cache value %s/%s: %w", section, key, err)
	}
	return true, nil
}

// Delete removes the entry under section/key if present.
func (c *Cache) Delete(section, key string) error {
	_, err := c.db.Exec("DELETE FROM cache WHERE section = ? AND key = ?", section, key)
	return err
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
