// Package sqlite implements the keepsake entity store on SQLite. Favorites,
// saved searches, and the cached catalog (items, tags, uploaders) live in
// keepsake.db; preferences live next to it in preferences.json.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

const (
	dbFileName    = "keepsake.db"
	prefsFileName = "preferences.json"

	// MemoryDir opens a private in-memory store (used by tests).
	MemoryDir = ":memory:"
)

// Store is the SQLite-backed entity store. It implements
// types.FavoriteStore, types.SavedSearchStore, types.CatalogStore and
// types.PreferenceStore.
type Store struct {
	db      *sqlx.DB
	dataDir string

	prefMu   sync.Mutex
	memPrefs []byte // preferences when dataDir is MemoryDir
}

var (
	_ types.FavoriteStore    = (*Store)(nil)
	_ types.SavedSearchStore = (*Store)(nil)
	_ types.CatalogStore     = (*Store)(nil)
	_ types.PreferenceStore  = (*Store)(nil)
)

// Open opens (or creates) the store in dataDir and applies the schema.
// Pass MemoryDir for a private in-memory database.
func Open(dataDir string) (*Store, error) {
	dsn := MemoryDir
	if dataDir != MemoryDir {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, dbFileName)
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection: keeps :memory: databases alive and avoids "database is locked".
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}
	if dataDir != MemoryDir {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting journal mode: %w", err)
		}
	}

	s := &Store{db: db, dataDir: dataDir}
	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir returns the directory the store was opened in.
func (s *Store) DataDir() string {
	return s.dataDir
}

func (s *Store) applySchema() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ddl := range schemaDDL {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return tx.Commit()
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// maxInArgs bounds the number of bound parameters in one IN clause.
const maxInArgs = 500

// inQuery expands a single "IN (?)" placeholder for args. args must not be
// empty.
func inQuery[T any](query string, args []T) (string, []any, error) {
	q, params, err := sqlx.In(query, args)
	if err != nil {
		return "", nil, fmt.Errorf("expanding IN clause: %w", err)
	}
	return q, params, nil
}

// chunks splits in into consecutive slices of at most n elements.
func chunks[T any](in []T, n int) [][]T {
	var out [][]T
	for len(in) > n {
		out = append(out, in[:n])
		in = in[n:]
	}
	if len(in) > 0 {
		out = append(out, in)
	}
	return out
}

// dedupe returns the distinct non-empty values of in, in first-seen order.
// Values are natural keys and are compared exactly as stored.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
