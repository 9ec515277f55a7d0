package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS seat_roster (
	id         SMALLINT    PRIMARY KEY CHECK (id = 1),
	seats      JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresBackend keeps the roster document in a single-row JSONB table
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn, verifies the connection and prepares the schema
func OpenPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create seat_roster table: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (b *PostgresBackend) Name() string { return "postgres" }

func (b *PostgresBackend) Read(ctx context.Context) ([]byte, error) {
	var seats string
	err := b.pool.QueryRow(ctx, `SELECT seats::text FROM seat_roster WHERE id = 1`).Scan(&seats)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRoster
	}
	if err != nil {
		return nil, err
	}
	return []byte(seats), nil
}

func (b *PostgresBackend) Write(ctx context.Context, data []byte) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO seat_roster (id, seats, updated_at) VALUES (1, $1::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET seats = EXCLUDED.seats, updated_at = EXCLUDED.updated_at`,
		string(data),
	)
	return err
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}

var _ Backend = (*PostgresBackend)(nil)
