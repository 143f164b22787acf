package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/core"
)

// exerciseStore runs the behaviour every feedback store must share
func exerciseStore(t *testing.T, store core.CorpusStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, spam("win big now")))
	require.NoError(t, store.Add(ctx, legit("notes from the call")))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	samples, err := store.Samples(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Sample{spam("win big now"), legit("notes from the call")}, samples)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(zap.NewNop(), 0, 0)
	defer store.Close()
	exerciseStore(t, store)
	assert.Equal(t, "feedback:memory", store.Name())
}

func TestMemoryStoreRetention(t *testing.T) {
	store := NewMemoryStore(zap.NewNop(), time.Hour, 0)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, spam("old")))
	require.NoError(t, store.Add(ctx, spam("new")))
	store.mu.Lock()
	store.entries[0].addedAt = time.Now().Add(-2 * time.Hour)
	store.mu.Unlock()

	require.NoError(t, store.Cleanup(ctx))
	samples, err := store.Samples(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Sample{spam("new")}, samples)
}

func TestMemoryStoreCloseTwice(t *testing.T) {
	store := NewMemoryStore(zap.NewNop(), time.Hour, time.Minute)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.db")
	store, err := NewSQLiteStore(path, zap.NewNop(), 0, 0)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)

	// retention disabled leaves everything in place
	require.NoError(t, store.Cleanup(context.Background()))
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteStoreRetention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.db")
	store, err := NewSQLiteStore(path, zap.NewNop(), time.Hour, 0)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, spam("fresh")))
	old := time.Now().Add(-3 * time.Hour).UTC().Format(time.RFC3339)
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO feedback_samples (text, label, created_at) VALUES (?, ?, ?)`, "stale", "spam", old)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO feedback_samples (text, label, created_at) VALUES (?, ?, ?)`, "bogus", "nonsense", time.Now().UTC().Format(time.RFC3339))
	require.NoError(t, err)

	require.NoError(t, store.Cleanup(ctx))
	samples, err := store.Samples(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Sample{spam("fresh")}, samples)
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("MAILGUARD_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("MAILGUARD_TEST_MYSQL_DSN not set")
	}
	store, err := NewMySQLStore(dsn, zap.NewNop(), 0, 0)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.db.Exec(`DELETE FROM feedback_samples`)
	require.NoError(t, err)

	exerciseStore(t, store)
}

func TestPostgresStore(t *testing.T) {
	connStr := os.Getenv("MAILGUARD_TEST_POSTGRES_DSN")
	if connStr == "" {
		t.Skip("MAILGUARD_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	store, err := NewPostgresStore(ctx, connStr, 4, zap.NewNop(), 0, 0)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.pool.Exec(ctx, `DELETE FROM feedback_samples`)
	require.NoError(t, err)

	exerciseStore(t, store)
}

func TestPostgresStoreBadURL(t *testing.T) {
	_, err := NewPostgresStore(context.Background(), "://not a url", 0, zap.NewNop(), 0, 0)
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("MAILGUARD_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MAILGUARD_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	key := "mailguard:test:" + time.Now().Format("150405.000000")
	store, err := NewRedisStore(ctx, url, key, zap.NewNop(), 0, 0)
	require.NoError(t, err)
	defer func() {
		store.client.Del(ctx, key)
		store.Close()
	}()

	exerciseStore(t, store)
}

func TestRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "http://nope", "", zap.NewNop(), 0, 0)
	assert.Error(t, err)
}
