package store

import (
	"context"
	"os"
	"testing"

	"github.com/mcdev12/seatcheck/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseBackend runs the load/heal/save cycle against a live backend
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	// Start from a corrupt document so the heal path runs regardless of prior state
	require.NoError(t, b.Write(ctx, []byte(`[{"number": 1}]`)))

	s := New(b, 3)
	roster, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.NewEmptyRoster(3), roster)

	roster[0] = models.Seat{Number: 1, Name: "Alice", Checked: true}
	require.NoError(t, s.Save(ctx, roster))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, roster, got)
}

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("SEATS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SEATS_TEST_POSTGRES_DSN not set")
	}
	b, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("SEATS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SEATS_TEST_REDIS_ADDR not set")
	}
	b, err := OpenRedis(context.Background(), RedisOptions{Addr: addr, Key: "seats:test:roster"})
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
}
