package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-product-admin/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildAuthService(t *testing.T) {
	ctx := context.Background()

	t.Run("none disables auth", func(t *testing.T) {
		bundle, err := BuildAuthService(ctx, AuthConfig{
			Auth:   config.AuthConfig{Mode: config.AuthModeNone},
			Logger: testLogger(),
		})
		require.NoError(t, err)
		assert.Nil(t, bundle.Service)
		assert.Nil(t, bundle.MemorySessions)
	})

	t.Run("mock with memory sessions", func(t *testing.T) {
		bundle, err := BuildAuthService(ctx, AuthConfig{
			Auth: config.AuthConfig{
				Mode:           config.AuthModeMock,
				AdminGroups:    []string{"admins"},
				SessionBackend: config.BackendMemory,
				SessionMaxAge:  time.Hour,
				DevAuth: config.DevAuthConfig{
					UserID: "dev",
					Email:  "dev@example.com",
					Groups: []string{"admins"},
				},
			},
			Logger: testLogger(),
		})
		require.NoError(t, err)
		require.NotNil(t, bundle.Service)
		require.NotNil(t, bundle.MemorySessions)

		ch, err := bundle.Service.BeginLogin(ctx, "/products")
		require.NoError(t, err)
		assert.NotEmpty(t, ch.State)
	})

	t.Run("mock requires an email", func(t *testing.T) {
		_, err := BuildAuthService(ctx, AuthConfig{
			Auth: config.AuthConfig{
				Mode:           config.AuthModeMock,
				SessionBackend: config.BackendMemory,
				DevAuth:        config.DevAuthConfig{UserID: "dev"},
			},
			Logger: testLogger(),
		})
		require.Error(t, err)
	})

	t.Run("redis sessions without a client", func(t *testing.T) {
		_, err := BuildAuthService(ctx, AuthConfig{
			Auth: config.AuthConfig{
				Mode:           config.AuthModeMock,
				SessionBackend: config.BackendRedis,
				DevAuth:        config.DevAuthConfig{UserID: "dev", Email: "dev@example.com"},
			},
			Logger: testLogger(),
		})
		require.Error(t, err)
	})

	t.Run("oauth without discovery fails", func(t *testing.T) {
		_, err := BuildAuthService(ctx, AuthConfig{
			Auth: config.AuthConfig{
				Mode:           config.AuthModeOAuth,
				SessionBackend: config.BackendMemory,
				OAuth: config.OAuthConfig{
					ClientID:     "client-id",
					ClientSecret: "client-secret",
					RedirectURL:  "https://app.example.com/auth/callback",
				},
			},
			Logger: testLogger(),
		})
		require.Error(t, err)
	})
}
