package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/mmk-product-admin/config"
	"github.com/target/mmk-product-admin/internal/adapters/authroles"
	"github.com/target/mmk-product-admin/internal/adapters/devauth"
	"github.com/target/mmk-product-admin/internal/adapters/oidc"
	redisadapter "github.com/target/mmk-product-admin/internal/adapters/redis"
	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/ports"
	"github.com/target/mmk-product-admin/internal/service"
)

const sessionKeyPrefix = "product-admin:session:"

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// AuthBundle is the built auth service plus the in-memory session store, when
// one was chosen, so the reaper can sweep it.
type AuthBundle struct {
	Service        *service.AuthService
	MemorySessions *core.MemorySessionStore
}

// BuildAuthService creates an auth service based on the configured auth mode.
// AUTH_MODE=none yields an empty bundle and no error.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (AuthBundle, error) {
	if !cfg.Auth.Mode.Enabled() {
		if cfg.Logger != nil {
			cfg.Logger.WarnContext(ctx, "authentication disabled; every route is public")
		}
		return AuthBundle{}, nil
	}

	var bundle AuthBundle
	sessions, err := buildSessionStore(cfg, &bundle)
	if err != nil {
		return AuthBundle{}, err
	}

	roles := authroles.StaticRoleMapper{
		AdminGroups:  cfg.Auth.AdminGroups,
		ViewerGroups: cfg.Auth.UserGroups,
	}

	var provider ports.AuthProvider
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		provider, err = buildDevAuthProvider(cfg)
	case config.AuthModeOAuth:
		provider, err = buildOIDCProvider(ctx, cfg)
	default:
		err = fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
	if err != nil {
		return AuthBundle{}, err
	}

	bundle.Service = service.NewAuthService(service.AuthServiceOptions{
		Provider:      provider,
		Sessions:      sessions,
		Roles:         roles,
		MaxSessionAge: cfg.Auth.SessionMaxAge,
	})
	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "authentication enabled",
			"mode", cfg.Auth.Mode,
			"session_backend", cfg.Auth.SessionBackend,
		)
	}
	return bundle, nil
}

//nolint:ireturn // the session backend is chosen at runtime.
func buildSessionStore(cfg AuthConfig, bundle *AuthBundle) (ports.SessionStore, error) {
	if cfg.Auth.SessionBackend == config.BackendRedis {
		if cfg.RedisClient == nil {
			return nil, errors.New("SESSION_BACKEND=redis requires a redis client")
		}
		return redisadapter.NewSessionStore(cfg.RedisClient, sessionKeyPrefix), nil
	}
	mem := core.NewMemorySessionStore()
	bundle.MemorySessions = mem
	return mem, nil
}

func buildDevAuthProvider(cfg AuthConfig) (*devauth.Provider, error) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("AUTH_MODE=mock signs every visitor in as the dev identity",
			"subject", cfg.Auth.DevAuth.UserID,
			"groups", cfg.Auth.DevAuth.Groups,
		)
	}
	prov, err := devauth.NewProvider(devauth.Config{
		Subject:         cfg.Auth.DevAuth.UserID,
		Name:            cfg.Auth.DevAuth.Name,
		Email:           cfg.Auth.DevAuth.Email,
		Groups:          cfg.Auth.DevAuth.Groups,
		SessionDuration: cfg.Auth.SessionMaxAge,
	})
	if err != nil {
		return nil, fmt.Errorf("create dev auth provider: %w", err)
	}
	return prov, nil
}

func buildOIDCProvider(ctx context.Context, cfg AuthConfig) (*oidc.Provider, error) {
	oauth := cfg.Auth.OAuth
	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		IssuerURL:    oauth.DiscoveryURL,
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scopes:       oauth.Scopes(),
		GroupsClaim:  oauth.GroupsClaim,
	})
	if err != nil {
		return nil, fmt.Errorf("create OIDC provider: %w", err)
	}
	return prov, nil
}
