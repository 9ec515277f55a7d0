package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/seatcheck/go/internal/sqlutil"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS seat_roster (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	seats      TEXT    NOT NULL,
	updated_at TEXT    NOT NULL
)`

// SQLiteBackend keeps the roster document in a single-row SQLite table
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path and prepares the schema
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serialises writers anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create seat_roster table: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func (b *SQLiteBackend) Read(ctx context.Context) ([]byte, error) {
	var seats string
	err := b.db.QueryRowContext(ctx, `SELECT seats FROM seat_roster WHERE id = 1`).Scan(&seats)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRoster
	}
	if err != nil {
		return nil, err
	}
	return []byte(seats), nil
}

func (b *SQLiteBackend) Write(ctx context.Context, data []byte) error {
	return sqlutil.Run(ctx, b.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO seat_roster (id, seats, updated_at) VALUES (1, ?, ?)
			ON CONFLICT (id) DO UPDATE SET seats = excluded.seats, updated_at = excluded.updated_at`,
			string(data), time.Now().UTC().Format(time.RFC3339Nano),
		)
		return err
	})
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

var _ Backend = (*SQLiteBackend)(nil)
