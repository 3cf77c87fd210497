// Package app wires configuration, storage, caches and services into a runnable
// wallet API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"denomination-wallet/config"
	httpHandler "denomination-wallet/internal/adapter/http/handler"
	"denomination-wallet/internal/adapter/http/middleware"
	memStorage "denomination-wallet/internal/adapter/storage/memory"
	pgStorage "denomination-wallet/internal/adapter/storage/postgres"
	redisStorage "denomination-wallet/internal/adapter/storage/redis"
	"denomination-wallet/internal/core/ports"
	"denomination-wallet/internal/service"

	"github.com/rs/zerolog"
)

// App holds the wired components of one wallet process.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	Events     ports.EventStore
	Snapshots  ports.SnapshotStore
	ReadModels ports.ReadModelStore
	Projector  *service.Projector
	Commands   *service.WalletCommandServiceImpl
	Queries    *service.WalletQueryServiceImpl
	Auth       *service.AuthServiceImpl
	Tokens     *service.JWTTokenService

	limiter  middleware.Limiter
	checkers []ports.HealthChecker
	durable  ports.IdempotencyCache // postgres fallback when redis is off
	async    *service.AsyncPublisher
	closers  []func()
}

// New connects the configured backends and builds the services. The caller must
// Close the returned App.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt.secret is required")
	}

	a := &App{cfg: cfg, log: log}
	if err := a.openStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var (
		listings   *redisStorage.ListingCache
		idempCache ports.IdempotencyCache
	)
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })

		listings = redisStorage.NewListingCache(rdb, cfg.Cache.TransactionsTTL)
		idempCache = redisStorage.NewIdempotencyCache(rdb)
		a.limiter = redisStorage.NewRateLimitStore(rdb)
		a.checkers = append(a.checkers, redisStorage.NewHealthCheck(rdb))
	} else {
		idempCache = a.durable
		log.Warn().Bool("idempotency", idempCache != nil).Msg("redis disabled: no listing cache or rate limiting")
	}

	// Typed nils must not leak into the optional interface fields.
	var (
		invalidator ports.CacheInvalidator
		listCache   ports.TransactionListCache
		walletCache ports.WalletListCache
	)
	if listings != nil {
		invalidator, listCache, walletCache = listings, listings, listings
	}

	a.Projector = service.NewProjector(a.Events, a.ReadModels, log.With().Str("component", "projector").Logger())

	var publisher ports.EventPublisher
	switch cfg.Projector.Mode {
	case config.ProjectorModeAsync:
		a.async = service.NewAsyncPublisher(a.Projector, invalidator, cfg.Projector.Workers, cfg.Projector.Buffer, log)
		a.async.Start(ctx)
		publisher = a.async
	default:
		publisher = service.NewSyncPublisher(a.Projector)
	}

	policy := service.NewOwnerPolicy()
	a.Tokens = service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	a.Auth = service.NewAuthService(a.Events, service.NewArgon2HashService(service.Argon2Params{}), a.Tokens,
		log.With().Str("component", "auth").Logger())

	a.Commands = service.NewWalletCommandService(
		a.Events,
		a.Snapshots,
		publisher,
		invalidator,
		idempCache,
		policy,
		service.CommandOptions{
			MaxAttempts:    cfg.Command.MaxAttempts,
			RetryBackoff:   cfg.Command.RetryBackoff,
			Timeout:        cfg.Command.Timeout,
			SnapshotEvery:  cfg.Snapshot.Every,
			IdempotencyTTL: cfg.Cache.IdempotencyTTL,
		},
		log.With().Str("component", "commands").Logger(),
	)
	a.Queries = service.NewWalletQueryService(a.ReadModels, listCache, walletCache, policy, log.With().Str("component", "queries").Logger())

	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case config.DriverMemory:
		a.Events = memStorage.NewEventStore()
		a.Snapshots = memStorage.NewSnapshotStore()
		a.ReadModels = memStorage.NewReadModelStore()
		a.log.Warn().Msg("using in-memory storage, state is lost on exit")
		return nil
	case config.DriverPostgres:
		pool, err := pgStorage.NewPool(ctx, a.cfg.Database, a.log)
		if err != nil {
			return fmt.Errorf("connecting postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		if a.cfg.Database.Migrate {
			if err := pgStorage.Migrate(ctx, pool, a.log); err != nil {
				return fmt.Errorf("migrating schema: %w", err)
			}
		}
		a.Events = pgStorage.NewEventStore(pool)
		a.Snapshots = pgStorage.NewSnapshotStore(pool)
		a.ReadModels = pgStorage.NewReadModelStore(pool)
		a.durable = pgStorage.NewIdempotencyStore(pool)
		a.checkers = append(a.checkers, pgStorage.NewHealthCheck(pool))
		return nil
	default:
		return fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
}

// Handler builds the HTTP router.
func (a *App) Handler() http.Handler {
	return httpHandler.SetupRouter(httpHandler.RouterDeps{
		Commands:          a.Commands,
		Queries:           a.Queries,
		Auth:              a.Auth,
		TokenSvc:          a.Tokens,
		RateLimiter:       a.limiter,
		RequestsPerMinute: a.cfg.RateLimit.RequestsPerMinute,
		HealthCheckers:    a.checkers,
		Logger:            a.log,
	})
}

// Close drains queued projections and releases connections in reverse order.
func (a *App) Close() {
	if a.async != nil {
		if err := a.async.Close(); err != nil {
			a.log.Error().Err(err).Msg("projection workers stopped with error")
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
