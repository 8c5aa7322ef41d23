package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store is the persistence layer for admins, incidents, users and one-time
// verification codes. It runs on SQLite by default and on PostgreSQL or MySQL
// when configured.
type Store struct {
	db      *sqlx.DB
	dialect dialect
}

// NewStore opens a SQLite store in dataDir. Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "incidentdesk.db") +
			"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	return Open("sqlite", dsn)
}

// Open connects to the database identified by driver ("sqlite", "postgres"
// or "mysql") and dsn, and applies migrations.
func Open(driver, dsn string) (*Store, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}
	dsn, err = normalizeDSN(d, dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(d.sqlxDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if d.name == "sqlite" {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	}

	s := &Store{db: db, dialect: d}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s database: %w", driver, err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.dialect.name
}

// insert runs an INSERT and returns the generated id. PostgreSQL has no
// LastInsertId, so the id is read back through RETURNING there.
func (s *Store) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	query = s.db.Rebind(query)
	if s.dialect.returning {
		var id int64
		if err := s.db.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// execOne runs a statement that must touch exactly one row, returning
// ErrNotFound when it touched none.
func (s *Store) execOne(ctx context.Context, what, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
