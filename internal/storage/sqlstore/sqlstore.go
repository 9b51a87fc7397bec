// Package sqlstore provides a SQL-backed implementation of the storage.Store
// interface. SQLite (pure Go, no CGO) is the default; PostgreSQL is supported
// through lib/pq.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/groupsplit/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Driver names a supported database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver maps a config value to a Driver.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case DriverSQLite, DriverPostgres:
		return d, nil
	case "", "sqlite3":
		return DriverSQLite, nil
	case "postgresql", "pg":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", s)
	}
}

// sqlName is the database/sql driver name.
func (d Driver) sqlName() string {
	return string(d)
}

// Store implements storage.Store on database/sql.
type Store struct {
	db     *sql.DB
	driver Driver
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLite creates a Store backed by the SQLite file at dbPath.
// It creates the parent directories and runs migrations automatically.
func NewSQLite(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return New(DriverSQLite, dbPath)
}

// New opens a Store for the given driver and DSN, running migrations first.
// For SQLite the DSN is a file path.
func New(driver Driver, dsn string) (*Store, error) {
	if err := RunMigrations(driver, dsn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	connDSN := dsn
	if driver == DriverSQLite {
		connDSN = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver.sqlName(), connDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// sqliteDSN enables foreign keys on every connection the pool opens.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// rebind rewrites ? placeholders into the $n form PostgreSQL expects.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.rebind(query), args...)
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// deleteByID removes one row and reports storage.ErrNotFound when nothing matched.
func (s *Store) deleteByID(ctx context.Context, q querier, table, id string) error {
	res, err := s.exec(ctx, q, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", strings.TrimSuffix(table, "s"), id, storage.ErrNotFound)
	}
	return nil
}

// nowMillis is the creation timestamp used for new rows.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// nullString maps "" to NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
