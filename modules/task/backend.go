package task

import (
	"context"
	"fmt"

	"github.com/example/task-quota-service/config"
	domain "github.com/example/task-quota-service/domain/task"
	"github.com/example/task-quota-service/storage/breaker"
	"github.com/example/task-quota-service/storage/cached"
	"github.com/example/task-quota-service/storage/memory"
	"github.com/example/task-quota-service/storage/orm"
	"github.com/example/task-quota-service/storage/postgres"
	"github.com/go-monolith/mono/pkg/types"
)

// backend is the assembled repository stack and the resources behind it.
type backend struct {
	repo    domain.Repository
	breaker *breaker.Repository
	cache   *cached.Cache
	ping    func(ctx context.Context) error
	closers []func() error
}

// openBackend opens the configured storage and wraps it with the circuit
// breaker and the Redis cache when those are enabled. The memory backend
// never gets a breaker since it cannot fail transiently.
func openBackend(ctx context.Context, cfg *config.Config, clock domain.Clock, logger types.Logger) (*backend, error) {
	b := &backend{}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		b.repo = memory.NewRepository(memory.WithClock(clock))
		b.ping = func(context.Context) error { return nil }

	case config.BackendSQL:
		pool, err := postgres.OpenPool(ctx, cfg.Storage.DatabaseURL, cfg.Storage.MaxConns)
		if err != nil {
			return nil, err
		}
		repo := postgres.NewRepository(pool, postgres.WithClock(clock))
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		b.repo = repo
		b.ping = repo.Ping
		b.closers = append(b.closers, func() error {
			pool.Close()
			return nil
		})
		logger.Info("Connected to PostgreSQL", "max_conns", cfg.Storage.MaxConns)

	case config.BackendORM:
		db, err := orm.Open(cfg.Storage.Path, cfg.Storage.Debug)
		if err != nil {
			return nil, err
		}
		repo := orm.NewRepository(db, orm.WithClock(clock))
		if err := repo.Migrate(); err != nil {
			_ = repo.Close()
			return nil, err
		}
		if err := repo.SeedOwners(ctx, cfg.Storage.SeedOwners...); err != nil {
			_ = repo.Close()
			return nil, err
		}
		b.repo = repo
		b.ping = repo.Ping
		b.closers = append(b.closers, repo.Close)
		logger.Info("Opened SQLite database", "path", cfg.Storage.Path, "owners", len(cfg.Storage.SeedOwners))

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Breaker.Enabled && cfg.Storage.Backend != config.BackendMemory {
		b.breaker = breaker.NewRepository(b.repo, breaker.Settings{
			MaxFailures: cfg.Breaker.MaxFailures,
			OpenTimeout: cfg.Breaker.OpenTimeout,
		}, logger)
		b.repo = b.breaker
	}

	if cfg.Cache.Enabled {
		client, err := cached.NewClient(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			b.close()
			return nil, err
		}
		b.cache = cached.NewCache(client, cfg.Cache.Prefix, cfg.Cache.TTL)
		b.repo = cached.NewRepository(b.repo, b.cache, logger)
		b.closers = append(b.closers, b.cache.Close)
		logger.Info("Connected to Redis", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)
	}

	return b, nil
}

// close runs the closers in reverse order and ignores their errors.
func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}
