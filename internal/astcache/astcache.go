// Package astcache caches a parsed ast.Ast keyed by a content hash of
// the source RPSL dump, so repeated runs over an unchanged database
// skip re-parsing (spec.md §6). Two backends are provided: a plain JSON
// file (the default) and a sqlite3 table, grounded on the teacher's
// SqliteReader/ReadSqlite (readers.go) — here storing one row per cache
// key instead of per bdrmapit annotation.
package astcache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rpslverify/rpslverify/internal/ast"
)

// Hash computes the cache key for the given source bytes.
func Hash(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("astcache: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// JSONCache is a single-file cache: one JSON object at path mapping
// content hash to a serialized ast.Ast.
type JSONCache struct {
	path    string
	entries map[string]json.RawMessage
	loaded  bool
}

func NewJSONCache(path string) *JSONCache {
	return &JSONCache{path: path}
}

func (c *JSONCache) load() error {
	if c.loaded {
		return nil
	}
	c.entries = make(map[string]json.RawMessage)
	c.loaded = true

	f, err := os.Open(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("astcache: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&c.entries); err != nil {
		return fmt.Errorf("astcache: %w", err)
	}
	return nil
}

// Get returns the cached Ast for key, if present.
func (c *JSONCache) Get(key string) (*ast.Ast, bool, error) {
	if err := c.load(); err != nil {
		return nil, false, err
	}
	raw, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	var a ast.Ast
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, false, fmt.Errorf("astcache: %w", err)
	}
	return &a, true, nil
}

// Put stores a into the cache under key and flushes to disk.
func (c *JSONCache) Put(key string, a *ast.Ast) error {
	if err := c.load(); err != nil {
		return err
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("astcache: %w", err)
	}
	c.entries[key] = raw

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("astcache: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c.entries)
}

// SqliteCache is the alternative backend for large corpora where a
// single JSON blob becomes unwieldy: one row per cache key in a
// "ast_cache(key TEXT PRIMARY KEY, body TEXT)" table.
type SqliteCache struct {
	db *sql.DB
}

func NewSqliteCache(path string) (*SqliteCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("astcache: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ast_cache (key TEXT PRIMARY KEY, body TEXT)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("astcache: %w", err)
	}
	return &SqliteCache{db: db}, nil
}

func (c *SqliteCache) Close() error { return c.db.Close() }

func (c *SqliteCache) Get(key string) (*ast.Ast, bool, error) {
	row := c.db.QueryRow(`SELECT body FROM ast_cache WHERE key = ?`, key)
	var body string
	if err := row.Scan(&body); err == sql.ErrNoRows {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("astcache: %w", err)
	}
	var a ast.Ast
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		return nil, false, fmt.Errorf("astcache: %w", err)
	}
	return &a, true, nil
}

func (c *SqliteCache) Put(key string, a *ast.Ast) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("astcache: %w", err)
	}
	_, err = c.db.Exec(`INSERT INTO ast_cache (key, body) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body`, key, string(body))
	if err != nil {
		return fmt.Errorf("astcache: %w", err)
	}
	return nil
}
