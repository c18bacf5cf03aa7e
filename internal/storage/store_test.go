package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyhutmarket/storefront/internal/config"
	"github.com/oyhutmarket/storefront/internal/storage"
)

func testStore(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "cart")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, "cart", []byte(`{"items":[]}`)))
	got, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(got))

	require.NoError(t, s.Put(ctx, "cart", []byte(`{"items":[{"id":"a"}]}`)))
	got, err = s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"id":"a"}]}`, string(got))

	require.NoError(t, s.Delete(ctx, "cart"))
	_, err = s.Get(ctx, "cart")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting a missing key is not an error.
	require.NoError(t, s.Delete(ctx, "cart"))

	require.ErrorIs(t, s.Put(ctx, "", []byte(`{}`)), storage.ErrEmptyKey)
}

func TestMemory(t *testing.T) {
	s := storage.NewMemory()
	testStore(t, s)
	require.NoError(t, s.Close())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemory()

	value := []byte(`{"a":1}`)
	require.NoError(t, s.Put(ctx, "k", value))
	value[2] = 'b'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := storage.OpenBolt(path)
	require.NoError(t, err)
	testStore(t, s)

	require.NoError(t, s.Put(context.Background(), "guestOrders", []byte(`[]`)))
	require.NoError(t, s.Close())

	reopened, err := storage.OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), "guestOrders")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestOpen(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	s, err := storage.Open(context.Background(), &cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.Memory{}, s)

	cfg.Storage.Driver = "redis"
	_, err = storage.Open(context.Background(), &cfg)
	require.Error(t, err)
}

// TestPostgres needs a reachable database, for example the one from
// docker-compose, and is skipped otherwise.
func TestPostgres(t *testing.T) {
	if os.Getenv("STOREFRONT_TEST_POSTGRES") == "" {
		t.Skip("STOREFRONT_TEST_POSTGRES not set")
	}

	cfg := config.Default()
	cfg.Postgres.Host = envOr("DB_HOST", "localhost")
	cfg.Postgres.Port = envOr("DB_PORT", "5432")
	cfg.Postgres.User = envOr("DB_USER", "postgres")
	cfg.Postgres.Password = envOr("DB_PASSWORD", "postgres")
	cfg.Postgres.Name = envOr("DB_NAME", "storefront")

	require.NoError(t, storage.Migrate(cfg.Postgres))

	s, err := storage.NewPostgres(context.Background(), cfg.Postgres)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Pool.Exec(context.Background(), "TRUNCATE TABLE storefront.client_state")
	require.NoError(t, err)

	testStore(t, s)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
