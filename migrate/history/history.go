// Package history tracks which migration statements a database has applied.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// TableName is the bookkeeping table created in every migrated database.
const TableName = "__migrations__"

// DB is the subset of *sql.DB, *sql.Conn and *sql.Tx the manager needs.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// MigrationRecord is one applied migration statement.
type MigrationRecord struct {
	// Key is the statement with all whitespace removed.
	Key           string
	Checksum      string
	AppliedAt     time.Time
	ExecutionTime int64 // milliseconds
}

// Manager reads and writes the migration history table.
type Manager struct {
	db DB
}

// NewManager creates a new migration history manager
func NewManager(db DB) *Manager {
	return &Manager{db: db}
}

// InitTable creates the migrations history table
func (m *Manager) InitTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+TableName+` (
			sql TEXT PRIMARY KEY NOT NULL,
			checksum TEXT NOT NULL,
			applied_at TEXT NOT NULL,
			execution_time INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// Claim records stmt as applied unless it already is. It reports whether the
// caller should execute the statement.
func (m *Manager) Claim(ctx context.Context, stmt string) (bool, error) {
	res, err := m.db.ExecContext(ctx,
		`INSERT INTO `+TableName+` (sql, checksum, applied_at) VALUES (?, ?, ?) ON CONFLICT (sql) DO NOTHING`,
		Key(stmt),
		CalculateChecksum(stmt),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("failed to record migration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to record migration: %w", err)
	}
	return n > 0, nil
}

// SetExecutionTime stores how long a claimed statement took to run.
func (m *Manager) SetExecutionTime(ctx context.Context, stmt string, d time.Duration) error {
	_, err := m.db.ExecContext(ctx,
		`UPDATE `+TableName+` SET execution_time = ? WHERE sql = ?`,
		d.Milliseconds(), Key(stmt))
	return err
}

// GetAll returns all migration records in the order they were applied
func (m *Manager) GetAll(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT sql, checksum, applied_at, execution_time FROM `+TableName+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var (
			record    MigrationRecord
			appliedAt string
		)
		if err := rows.Scan(&record.Key, &record.Checksum, &appliedAt, &record.ExecutionTime); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		if record.AppliedAt, err = time.Parse(time.RFC3339Nano, appliedAt); err != nil {
			return nil, fmt.Errorf("failed to parse applied_at of migration: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// GetPending returns the statements whose keys are not recorded yet.
func (m *Manager) GetPending(ctx context.Context, statements []string) ([]string, error) {
	records, err := m.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	applied := make(map[string]bool, len(records))
	for _, r := range records {
		applied[r.Key] = true
	}

	var pending []string
	for _, stmt := range statements {
		if !applied[Key(stmt)] {
			pending = append(pending, stmt)
		}
	}
	return pending, nil
}

// Key identifies a migration statement independently of its formatting.
func Key(stmt string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, stmt)
}

// CalculateChecksum calculates a checksum for migration SQL
func CalculateChecksum(migrationSQL string) string {
	hash := sha256.Sum256([]byte(migrationSQL))
	return hex.EncodeToString(hash[:])
}
