package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/seatcheck/go/internal/seats/store"
	"github.com/rs/zerolog/log"
)

func setupBackend(ctx context.Context, cfg StoreConfig) (store.Backend, error) {
	var (
		backend store.Backend
		err     error
	)
	switch cfg.Backend {
	case BackendFile:
		backend = store.NewFileBackend(cfg.File)
	case BackendSQLite:
		backend, err = store.OpenSQLite(ctx, cfg.SQLitePath)
	case BackendPostgres:
		backend, err = store.OpenPostgres(ctx, cfg.Postgres.DSN())
	case BackendRedis:
		backend, err = store.OpenRedis(ctx, store.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
	case BackendMemory:
		backend = store.NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}

	event := log.Info().Str("backend", backend.Name())
	switch cfg.Backend {
	case BackendFile:
		event = event.Str("path", cfg.File)
	case BackendSQLite:
		event = event.Str("path", cfg.SQLitePath)
	case BackendPostgres:
		event = event.Str("host", cfg.Postgres.Host).Str("database", cfg.Postgres.Database)
	case BackendRedis:
		event = event.Str("addr", cfg.Redis.Addr).Str("key", cfg.Redis.Key)
	}
	event.Msg("roster backend ready")

	return backend, nil
}
