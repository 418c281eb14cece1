package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
	"github.com/target/mmk-product-admin/internal/ports"
	"github.com/target/mmk-product-admin/internal/testutil"
)

// setupTestRedis returns a client on an isolated test DB or skips.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func testSession(id string, ttl time.Duration) domainauth.Session {
	now := time.Now()
	return domainauth.Session{
		ID:        id,
		Subject:   "jdoe",
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Role:      domainauth.RoleViewer,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestSessionStore_SaveGetDelete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client, "")
	ctx := context.Background()
	sess := testSession("sess-1", 30*time.Minute)

	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sess.Subject, got.Subject)
	assert.Equal(t, sess.Role, got.Role)
	assert.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)

	ttl, err := client.TTL(ctx, defaultSessionPrefix+"sess-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 29*time.Minute)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_CustomPrefix(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client, "custom:")
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testSession("sess-2", time.Minute)))

	n, err := client.Exists(ctx, "custom:sess-2").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSessionStore_Errors(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client, "")
	ctx := context.Background()

	require.Error(t, store.Save(ctx, testSession("", time.Minute)))
	require.Error(t, store.Save(ctx, testSession("old", -time.Minute)))

	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	assert.NoError(t, store.Delete(ctx, ""))
}
