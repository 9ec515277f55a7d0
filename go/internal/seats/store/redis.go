package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions selects the Redis server and key holding the roster
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisBackend keeps the roster document under a single string key
type RedisBackend struct {
	client *redis.Client
	key    string
}

// OpenRedis connects to the server described by opts and pings it with a short timeout
func OpenRedis(ctx context.Context, opts RedisOptions) (*RedisBackend, error) {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	if opts.Key == "" {
		opts.Key = "seats:roster"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}
	return &RedisBackend{client: client, key: opts.Key}, nil
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Read(ctx context.Context) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoRoster
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write uses a single SET, which Redis applies atomically
func (b *RedisBackend) Write(ctx context.Context, data []byte) error {
	return b.client.Set(ctx, b.key, data, 0).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

var _ Backend = (*RedisBackend)(nil)
