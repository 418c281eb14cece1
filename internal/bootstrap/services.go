package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/mmk-product-admin/config"
	"github.com/target/mmk-product-admin/internal/adapters/productsapi"
	"github.com/target/mmk-product-admin/internal/adapters/reaper"
	redisadapter "github.com/target/mmk-product-admin/internal/adapters/redis"
	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/data"
	httpx "github.com/target/mmk-product-admin/internal/http"
	"github.com/target/mmk-product-admin/internal/http/ui/columns"
	"github.com/target/mmk-product-admin/internal/observability/metrics"
	"github.com/target/mmk-product-admin/internal/observability/statsd"
	"github.com/target/mmk-product-admin/internal/service"
)

const userAgent = "mmk-product-admin"

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Listing *service.ProductListing
	// Catalog is the database-backed listing; nil when a remote API serves the listing.
	Catalog      *service.ProductService
	Auth         *service.AuthService
	Columns      columns.Set
	ViewStates   core.ViewStateStore
	HealthChecks map[string]httpx.HealthCheck
	// Memory stores the reaper sweeps; nil for Redis-backed stores.
	MemoryViewStates *core.MemoryViewStateStore
	MemorySessions   *core.MemorySessionStore
	Observability    ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	Sink          statsd.Sink
	Prometheus    *metrics.PrometheusSink
	Statsd        *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// Close flushes the StatsD client.
func (o ObservabilityContainer) Close() error {
	if o.Statsd == nil {
		return nil
	}
	return o.Statsd.Close()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) (ObservabilityContainer, error) {
	obs := ObservabilityContainer{MetricsConfig: cfg.Metrics}
	var sinks []statsd.Sink

	if cfg.Metrics.PrometheusEnabled {
		prom, err := metrics.NewPrometheusSink(metrics.PrometheusOptions{
			Namespace:   cfg.Metrics.Namespace,
			Definitions: metrics.AllDefinitions(),
			Logger:      logger,
			WithRuntime: true,
		})
		if err != nil {
			return ObservabilityContainer{}, fmt.Errorf("prometheus sink: %w", err)
		}
		obs.Prometheus = prom
		sinks = append(sinks, prom)
	}

	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Namespace,
			Logger:  logger,
		})
		if err != nil {
			// StatsD is best effort; Prometheus still serves /metrics.
			logger.Error("failed to initialise statsd client", "error", err)
		} else {
			obs.Statsd = client
			sinks = append(sinks, client)
		}
	}

	switch len(sinks) {
	case 0:
	case 1:
		obs.Sink = sinks[0]
	default:
		obs.Sink = metrics.NewFanout(sinks...)
	}
	return obs, nil
}

// parseColumns rejects bad column expressions at startup rather than on first render.
func parseColumns(spec string) (columns.Set, error) {
	if spec == "" {
		spec = columns.Default
	}
	set, err := columns.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("PRODUCTS_TABLE_COLUMNS: %w", err)
	}
	return set, nil
}

// listingBackend is either the remote API client or the database-backed service.
type listingBackend struct {
	backend core.ListingBackend
	catalog *service.ProductService
}

func buildListingBackend(ctx context.Context, deps *ServiceDeps) (listingBackend, error) {
	cfg := deps.Config
	if cfg.Products.UseRemoteAPI() {
		client, err := productsapi.NewClient(ctx, productsapi.Config{
			BaseURL:      cfg.Products.APIURL,
			Timeout:      cfg.Products.APITimeout,
			UserAgent:    userAgent,
			TokenURL:     cfg.Products.TokenURL,
			ClientID:     cfg.Products.ClientID,
			ClientSecret: cfg.Products.ClientSecret,
			Scopes:       cfg.Products.Scopes,
		})
		if err != nil {
			return listingBackend{}, fmt.Errorf("products api client: %w", err)
		}
		deps.Logger.InfoContext(ctx, "listing served from remote API", "url", cfg.Products.APIURL)
		return listingBackend{backend: client}, nil
	}

	if deps.DB == nil {
		return listingBackend{}, errors.New("a database connection is required when PRODUCTS_API_URL is empty")
	}
	svc := service.NewProductService(service.ProductServiceOptions{
		Products:  data.NewProductRepo(deps.DB),
		Contacts:  data.NewContactRepo(deps.DB),
		ListURL:   strings.TrimRight(cfg.HTTP.BaseURL, "/") + "/api/products",
		PageLimit: cfg.Products.PageLimit,
	})
	deps.Logger.InfoContext(ctx, "listing served from database", "page_limit", cfg.Products.PageLimit)
	return listingBackend{backend: svc, catalog: svc}, nil
}

//nolint:ireturn // the view state backend is chosen at runtime.
func buildViewStateStore(deps *ServiceDeps) (core.ViewStateStore, *core.MemoryViewStateStore, error) {
	cfg := core.ViewStateConfig{
		TTL:       deps.Config.ViewState.TTL,
		PageLimit: deps.Config.Products.PageLimit,
	}
	if deps.Config.ViewState.Backend == config.BackendRedis {
		if deps.RedisClient == nil {
			return nil, nil, errors.New("VIEW_STATE_BACKEND=redis requires a redis client")
		}
		return redisadapter.NewViewStateStore(deps.RedisClient, cfg), nil, nil
	}
	mem := core.NewMemoryViewStateStore(cfg)
	return mem, mem, nil
}

func buildHealthChecks(db *sql.DB, rdb redis.UniversalClient) map[string]httpx.HealthCheck {
	checks := make(map[string]httpx.HealthCheck, 2)
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

// NewServices builds every service the enabled modes need.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	obs, err := buildObservability(deps.Logger, deps.Config.Observability)
	if err != nil {
		return ServiceContainer{}, err
	}

	cols, err := parseColumns(deps.Config.Products.TableColumns)
	if err != nil {
		return ServiceContainer{}, err
	}

	backend, err := buildListingBackend(ctx, deps)
	if err != nil {
		return ServiceContainer{}, err
	}

	states, memStates, err := buildViewStateStore(deps)
	if err != nil {
		return ServiceContainer{}, err
	}

	listing, err := service.NewProductListing(service.ProductListingOptions{
		Products:            backend.backend,
		Contacts:            backend.backend,
		States:              states,
		Metrics:             obs.Sink,
		Logger:              deps.Logger,
		ContactOptionsLimit: deps.Config.Products.ContactOptionsLimit,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("product listing: %w", err)
	}

	auth, err := BuildAuthService(ctx, AuthConfig{
		Auth:        deps.Config.Auth,
		RedisClient: deps.RedisClient,
		Logger:      deps.Logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("auth: %w", err)
	}

	return ServiceContainer{
		Listing:          listing,
		Catalog:          backend.catalog,
		Auth:             auth.Service,
		Columns:          cols,
		ViewStates:       states,
		HealthChecks:     buildHealthChecks(deps.DB, deps.RedisClient),
		MemoryViewStates: memStates,
		MemorySessions:   auth.MemorySessions,
		Observability:    obs,
	}, nil
}

// ServiceOrchestrationConfig groups what RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown runs every enabled service until ctx is cancelled or one fails.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeHTTP] {
		server := BuildHTTPServer(&HTTPServerConfig{Config: cfg.Config, Services: cfg.Services, Logger: logger})
		g.Go(func() error {
			return ServeHTTP(gctx, server, ServeOptions{
				ShutdownTimeout: cfg.Config.HTTP.ShutdownTimeout,
				MaxConnections:  cfg.Config.HTTP.MaxConnections,
			}, logger)
		})
	}

	if enabled[config.ServiceModeReaper] {
		if err := startReaper(gctx, g, cfg, logger); err != nil {
			return err
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("all services stopped")
	return nil
}

func startReaper(ctx context.Context, g *errgroup.Group, cfg *ServiceOrchestrationConfig, logger *slog.Logger) error {
	opts := reaper.RunnerOptions{
		Config:  cfg.Config.Reaper,
		Logger:  logger,
		Metrics: cfg.Services.Observability.Sink,
	}
	if cfg.Services.MemoryViewStates != nil {
		opts.ViewStates = cfg.Services.MemoryViewStates
	}
	if cfg.Services.MemorySessions != nil {
		opts.Sessions = cfg.Services.MemorySessions
	}

	runner, err := reaper.NewRunner(opts)
	if errors.Is(err, reaper.ErrNothingToReap) {
		logger.InfoContext(ctx, "reaper has nothing to sweep; every store expires keys in redis")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reaper: %w", err)
	}

	g.Go(func() error {
		if runErr := runner.Run(ctx); runErr != nil {
			return fmt.Errorf("reaper failed: %w", runErr)
		}
		return nil
	})
	return nil
}
