// Package store is the SQLite persistence collaborator for the record
// families. It lowers predicate trees into parameterized SQL; every
// user-supplied value travels as a bound parameter, and column identifiers
// are accepted only when they belong to the family's registered schema.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/medtra-labs/medquery/internal/schema"

	// Pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

// Store provides row storage for the six record families over SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Row is one stored record: its stable insertion identity plus a value for
// every column of its family, in schema order. Absent data is the empty
// string, never NULL.
type Row struct {
	ID     int64
	Values []string
}

// SelectOptions controls sorting and pagination of Select.
//
// SortColumn outside the family's schema falls back to the insertion-identity
// default order. Limit <= 0 means no limit; Offset applies only together
// with a positive Limit.
type SelectOptions struct {
	SortColumn string
	SortOrder  string // "ASC" or "DESC"; anything else is ASC
	Limit      int
	Offset     int
}

// New creates a store that logs through logger. A nil logger falls back to
// slog.Default().
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// Open opens the SQLite database at path. Use ":memory:" for an in-memory
// database.
func (s *Store) Open(path string) error {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	if path == ":memory:" {
		dsn = path + "?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// An in-memory database exists per connection; cap the pool so every
	// statement sees the same one.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying connection for tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetDB injects an existing connection, used by tests driving the store
// through sqlmock.
func (s *Store) SetDB(db *sql.DB) {
	s.db = db
}

// columnNames resolves and validates the family, returning its column names.
func columnNames(family schema.Family) ([]string, error) {
	return schema.ColumnNames(family)
}

// validColumn guards identifier interpolation: only registered columns of
// the family may appear in generated SQL.
func validColumn(family schema.Family, col string) error {
	if !schema.HasColumn(family, col) {
		return fmt.Errorf("column %q is not part of family %q", col, string(family))
	}
	return nil
}

// RowCount returns the total number of rows stored for a family.
func (s *Store) RowCount(ctx context.Context, family schema.Family) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	if _, err := columnNames(family); err != nil {
		return 0, err
	}

	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", family)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", family, err)
	}
	return n, nil
}

// DeleteAll removes every row of a family.
func (s *Store) DeleteAll(ctx context.Context, family schema.Family) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if _, err := columnNames(family); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", family)); err != nil {
		return fmt.Errorf("failed to delete rows from %s: %w", family, err)
	}
	return nil
}

// insertAll prepares the family insert once and executes it per row inside
// tx. Each row must carry exactly one value per schema column.
func insertAll(ctx context.Context, tx *sql.Tx, family schema.Family, cols []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		family, strings.Join(cols, ", "), placeholders,
	)
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", family, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		if len(row) != len(cols) {
			return fmt.Errorf("row %d has %d values, family %s has %d columns", i, len(row), family, len(cols))
		}
		args := make([]any, len(row))
		for j, v := range row {
			args[j] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, family, err)
		}
	}
	return nil
}

// InsertRows appends rows to a family in one transaction, keeping the
// existing content.
func (s *Store) InsertRows(ctx context.Context, family schema.Family, rows [][]string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	cols, err := columnNames(family)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertAll(ctx, tx, family, cols, rows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert into %s: %w", family, err)
	}

	s.logger.Debug("inserted rows", "family", string(family), "rows", len(rows))
	return nil
}

// ReplaceAll atomically swaps the entire content of a family: existing rows
// are deleted and the given rows inserted in one transaction. Each row must
// carry exactly one value per schema column.
func (s *Store) ReplaceAll(ctx context.Context, family schema.Family, rows [][]string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	cols, err := columnNames(family)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", family)); err != nil {
		return fmt.Errorf("failed to delete existing rows from %s: %w", family, err)
	}
	if err := insertAll(ctx, tx, family, cols, rows); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace of %s: %w", family, err)
	}

	s.logger.Debug("replaced family content", "family", string(family), "rows", len(rows))
	return nil
}
