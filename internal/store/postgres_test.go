package store

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/postgres"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	cfg := config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "soorch_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "soorch"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}
	db, err := postgres.New(cfg)
	if err != nil {
		t.Skipf("skipping: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func TestPostgresSaveLoad(t *testing.T) {
	client := skipIfNoPostgres(t)
	ctx := context.Background()
	pg := NewPostgres(client)
	require.NoError(t, pg.Migrate(ctx))

	want := sampleIndex()
	require.NoError(t, pg.Save(ctx, want))

	got, err := pg.Load(ctx)
	require.NoError(t, err)
	assert.True(t, want.Equal(got), "got %v", got)

	smaller := sampleIndex()
	delete(smaller, "docs/a.txt")
	require.NoError(t, pg.Save(ctx, smaller))

	got, err = pg.Load(ctx)
	require.NoError(t, err)
	assert.True(t, smaller.Equal(got), "save replaces the previous index")
}
