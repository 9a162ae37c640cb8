package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added UNIQUE index on pages.next_page_id
const currentSchemaVersion = 1

// DefaultBusyTimeoutMS is the busy_timeout applied when none is configured.
const DefaultBusyTimeoutMS = 5000

// Store provides durable storage for one drill document.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db       *sql.DB
	path     string
	compiler *querysql.SQLCompiler

	mu      sync.RWMutex
	tracked map[string]TableInfo
}

// TableInfo describes a tracked table.
type TableInfo struct {
	Name    string
	Columns []string
}

// HasColumn reports whether the table has the named column.
func (t TableInfo) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	busyTimeoutMS int
}

// WithBusyTimeout overrides the SQLite busy_timeout in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(o *openOptions) {
		o.busyTimeoutMS = ms
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically, and registers
// every document table for change capture.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - busy timeout for lock contention (5 seconds unless overridden)
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	o := openOptions{busyTimeoutMS: DefaultBusyTimeoutMS}
	for _, opt := range opts {
		opt(&o)
	}

	// Open database (creates file if doesn't exist)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection also
	// keeps an in-memory database alive for the store's lifetime.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, o.busyTimeoutMS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{
		db:       db,
		path:     path,
		compiler: querysql.NewSQLCompiler(),
		tracked:  make(map[string]TableInfo),
	}

	for _, table := range ir.DocumentTables {
		if err := s.Track(context.Background(), table); err != nil {
			db.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - writes through it are not captured.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Track registers a table for change capture. The table's columns are
// read from the schema so row images always carry every column.
func (s *Store) Track(ctx context.Context, table string) error {
	cols, err := tableColumns(ctx, s.db, table)
	if err != nil {
		return fmt.Errorf("track %s: %w", table, err)
	}
	if len(cols) == 0 {
		return fmt.Errorf("track %s: table does not exist", table)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked[table] = TableInfo{Name: table, Columns: cols}
	return nil
}

// Table returns the registration for a tracked table.
func (s *Store) Table(name string) (TableInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.tracked[name]
	return info, ok
}

// TrackedTables returns the names of all tracked tables, sorted.
func (s *Store) TrackedTables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tracked))
	for name := range s.tracked {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("query table_info: %w", err)
	}
	defer rows.Close()

	cols := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table_info: %w", err)
	}
	return cols, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, busyTimeoutMS int) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMS),
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 makes two pages pointing at the same successor impossible.
// NULLs stay distinct, so any number of pages may end a list while it is
// being re-threaded.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_pages_next_unique
		ON pages(next_page_id)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
