// Package shadow provides the disposable scratch database that migration
// scripts are applied to before statements are introspected.
package shadow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/satishbabariya/staticsql/internal/debug"
	"github.com/satishbabariya/staticsql/migrate/introspect"
)

var ErrClosed = errors.New("shadow database is closed")

// ApplyError reports the migration statement that failed.
type ApplyError struct {
	Index int
	SQL   string
	Err   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("migration statement %d failed: %v\n%s", e.Index+1, e.Err, e.SQL)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// ShadowDB is a private in-memory database pinned to a single connection.
type ShadowDB struct {
	db   *sql.DB
	conn *sql.Conn
}

// New opens an empty in-memory database with foreign keys enforced.
func New(ctx context.Context) (*ShadowDB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open shadow database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to shadow database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	debug.Debug("Shadow database opened")
	return &ShadowDB{db: db, conn: conn}, nil
}

// Apply executes the migration statements in order and stops at the first
// failure.
func (s *ShadowDB) Apply(ctx context.Context, statements []string) error {
	if s.conn == nil {
		return ErrClosed
	}

	for i, stmt := range statements {
		debug.Debug("Applying migration statement", "index", i)
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return &ApplyError{Index: i, SQL: stmt, Err: err}
		}
	}
	return nil
}

// Catalog introspects the tables and views created so far.
func (s *ShadowDB) Catalog(ctx context.Context) (*introspect.Catalog, error) {
	if s.conn == nil {
		return nil, ErrClosed
	}
	return introspect.Inspect(ctx, s.conn)
}

// Conn returns the pinned connection.
func (s *ShadowDB) Conn() *sql.Conn {
	return s.conn
}

// Close disposes of the database. It is safe to call more than once.
func (s *ShadowDB) Close() error {
	if s.conn == nil {
		return nil
	}
	err := errors.Join(s.conn.Close(), s.db.Close())
	s.conn = nil
	s.db = nil
	debug.Debug("Shadow database closed")
	return err
}
