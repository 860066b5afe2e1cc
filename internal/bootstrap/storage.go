package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/salinaworks/salina-go/config"
	"github.com/salinaworks/salina-go/internal/ports"
	"github.com/salinaworks/salina-go/internal/store"
)

// OpenKV builds the session key/value backend selected by configuration.
// The returned close function releases backend connections; it is a no-op
// for the memory and file backends.
//
//nolint:ireturn // the backend is chosen at runtime
func OpenKV(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (ports.KV, func(), error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return store.NewMemory(), func() {}, nil

	case config.StorageFile:
		path := cfg.File.Path
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, nil, fmt.Errorf("resolve home dir for session file: %w", err)
			}
			path = filepath.Join(home, ".salina", "session.json")
		}
		return store.NewFile(path), func() {}, nil

	case config.StorageRedis:
		client, err := connectRedis(cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("close redis client", "error", err)
			}
		}
		return store.NewRedis(client), closeFn, nil

	case config.StoragePostgres:
		pool, err := connectPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		kv := store.NewPostgres(pool, cfg.Postgres.Table)
		if err := kv.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure session table: %w", err)
		}
		return kv, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}

// connectRedis builds a universal client: a direct client for a single
// address, a sentinel failover client when MasterName is set.
//
//nolint:ireturn // redis.UniversalClient lets us pick single or sentinel clients at runtime
func connectRedis(cfg config.RedisStorageConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis storage requires at least one address")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:      cfg.Addrs,
		Password:   cfg.Password,
		DB:         cfg.DB,
		MasterName: cfg.MasterName,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	logger.Info("redis connected", "addrs", cfg.Addrs)
	return client, nil
}

func connectPostgres(ctx context.Context, cfg config.PostgresStorageConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if pingErr := pool.Ping(pingCtx); pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", pingErr)
	}

	logger.Info("postgres connected", "host", cfg.Host, "port", cfg.Port, "database", cfg.Name)
	return pool, nil
}
