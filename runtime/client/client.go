// Package client is the runtime that generated query functions call. It
// binds arguments by name, decodes rows into generated records and controls
// transactions on a single SQLite connection.
package client

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/satishbabariya/staticsql/query/cache"
)

// DefaultStatementCacheSize is the number of prepared statements kept per
// database unless WithStatementCache says otherwise.
const DefaultStatementCacheSize = 64

// Querier runs generated statements. *DB implements it.
type Querier interface {
	run(ctx context.Context, st *Statement, fn func(*sql.Stmt) error) error
	prepare(ctx context.Context, st *Statement) (*sql.Stmt, error)
}

// Option configures Open.
type Option func(*options)

type options struct {
	cacheSize   int
	pragmas     []string
	busyTimeout time.Duration
	middlewares []Middleware
}

// WithStatementCache keeps up to size prepared statements for reuse. Zero
// disables the cache.
func WithStatementCache(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// WithPragmas runs "PRAGMA <p>" for every p after the connection opens,
// e.g. "journal_mode = WAL".
func WithPragmas(pragmas ...string) Option {
	return func(o *options) {
		o.pragmas = append(o.pragmas, pragmas...)
	}
}

// WithBusyTimeout sets how long the engine waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		o.busyTimeout = d
	}
}

// WithMiddleware adds middleware around every statement execution.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, mw...)
	}
}

// DB is an open SQLite database. Every call runs on one pinned connection,
// so BEGIN, COMMIT and ROLLBACK apply to everything issued through it.
type DB struct {
	db          *sql.DB
	conn        *sql.Conn
	stmts       *cache.LRUCache[string, *cachedStmt]
	middlewares []Middleware
	closed      atomic.Bool
}

// cachedStmt is a prepared statement shared through the cache. mu is held
// for a whole execution, including draining the rows.
type cachedStmt struct {
	mu     sync.Mutex
	stmt   *sql.Stmt
	closed bool
}

func (cs *cachedStmt) close() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.closed = true
	cs.stmt.Close()
}

// Open opens the database at path, which may be ":memory:".
func Open(path string, opts ...Option) (*DB, error) {
	o := options{cacheSize: DefaultStatementCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pragmas := o.pragmas
	if o.busyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout = %d", o.busyTimeout.Milliseconds()))
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, "PRAGMA "+p); err != nil {
			conn.Close()
			sqlDB.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", p, err)
		}
	}

	db := &DB{
		db:          sqlDB,
		conn:        conn,
		middlewares: o.middlewares,
	}
	if o.cacheSize > 0 {
		db.stmts = cache.NewLRUCache(o.cacheSize, func(_ string, cs *cachedStmt) {
			cs.close()
		})
	}
	return db, nil
}

// Close releases cached statements and the connection. Open Rows must be
// closed first.
func (db *DB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return nil
	}
	if db.stmts != nil {
		db.stmts.Clear()
	}
	connErr := db.conn.Close()
	if err := db.db.Close(); err != nil {
		return err
	}
	return connErr
}

// CacheStats reports statement cache usage. It is zero when the cache is
// disabled.
func (db *DB) CacheStats() cache.Stats {
	if db.stmts == nil {
		return cache.Stats{}
	}
	return db.stmts.GetStats()
}

func (db *DB) prepare(ctx context.Context, st *Statement) (*sql.Stmt, error) {
	if db.closed.Load() {
		return nil, execError(st, ErrClosed)
	}
	stmt, err := db.conn.PrepareContext(ctx, st.SQL)
	if err != nil {
		return nil, execError(st, err)
	}
	return stmt, nil
}

// run hands fn a prepared statement for st, from the cache when enabled.
func (db *DB) run(ctx context.Context, st *Statement, fn func(*sql.Stmt) error) error {
	return db.executeWithMiddleware(ctx, st, func() error {
		if db.stmts == nil {
			stmt, err := db.prepare(ctx, st)
			if err != nil {
				return err
			}
			defer stmt.Close()
			return fn(stmt)
		}

		for {
			cs, err := db.cached(ctx, st)
			if err != nil {
				return err
			}
			cs.mu.Lock()
			if cs.closed {
				// evicted between lookup and lock
				cs.mu.Unlock()
				continue
			}
			err = fn(cs.stmt)
			cs.mu.Unlock()
			return err
		}
	})
}

func (db *DB) cached(ctx context.Context, st *Statement) (*cachedStmt, error) {
	if cs, ok := db.stmts.Get(st.SQL); ok {
		return cs, nil
	}
	stmt, err := db.prepare(ctx, st)
	if err != nil {
		return nil, err
	}
	cs, loaded := db.stmts.Add(st.SQL, &cachedStmt{stmt: stmt})
	if loaded {
		stmt.Close()
	}
	return cs, nil
}

// exec runs a statement that is not generated, such as BEGIN.
func (db *DB) exec(ctx context.Context, query string) error {
	st := &Statement{Name: query, SQL: query}
	_, err := await(ctx, func(ctx context.Context) (struct{}, error) {
		if db.closed.Load() {
			return struct{}{}, execError(st, ErrClosed)
		}
		return struct{}{}, db.executeWithMiddleware(ctx, st, func() error {
			if _, err := db.conn.ExecContext(ctx, query); err != nil {
				return execError(st, err)
			}
			return nil
		})
	}, nil)
	return err
}
