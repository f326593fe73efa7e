package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/ghostlink/internal/shortener"
	"github.com/serroba/ghostlink/internal/store"
	"go.uber.org/zap"
)

// RedisConn is the shared Redis client. It is closed on injector shutdown.
type RedisConn struct {
	*redis.Client
}

// Shutdown closes the client.
func (c *RedisConn) Shutdown() error {
	return c.Close()
}

// RedisPackage provides the Redis client. The client connects lazily, so
// it is only dialled when a component using Redis is invoked.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisConn, error) {
		opts := do.MustInvoke[*Options](i)

		return &RedisConn{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// StorePackage provides the link store selected by Options.Store, wrapped in
// the terminal-state cache and the in-memory failover when enabled.
func StorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.PostgresStore, error) {
		opts := do.MustInvoke[*Options](i)
		ctx := context.Background()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}

		s := store.NewPostgresStore(pool)
		if err = s.Migrate(ctx); err != nil {
			pool.Close()

			return nil, err
		}

		return s, nil
	})

	do.Provide(i, func(i *do.Injector) (*store.SQLiteStore, error) {
		opts := do.MustInvoke[*Options](i)

		return store.OpenSQLite(context.Background(), opts.SQLiteDSN)
	})

	do.Provide(i, func(i *do.Injector) (*store.RedisStore, error) {
		conn := do.MustInvoke[*RedisConn](i)

		return store.NewRedisStore(conn.Client), nil
	})

	do.Provide(i, newRepository)
}

func newRepository(i *do.Injector) (shortener.Repository, error) {
	opts := do.MustInvoke[*Options](i)
	logger := do.MustInvoke[*zap.Logger](i)

	var (
		primary shortener.Repository
		err     error
	)

	switch opts.Store {
	case StoreMemory:
		logger.Info("using in-memory link store")

		return store.NewMemoryStore(), nil
	case StorePostgres:
		primary, err = do.Invoke[*store.PostgresStore](i)
	case StoreRedis:
		primary, err = do.Invoke[*store.RedisStore](i)
	case StoreSQLite:
		primary, err = do.Invoke[*store.SQLiteStore](i)
	default:
		return nil, fmt.Errorf("unknown store %q", opts.Store)
	}

	if err != nil {
		if !opts.Failover {
			return nil, err
		}

		logger.Error("link store unavailable, using in-memory store",
			zap.String("store", opts.Store),
			zap.Error(err),
		)

		return store.NewMemoryStore(), nil
	}

	logger.Info("using link store", zap.String("store", opts.Store))

	if ttl := opts.terminalCacheTTL(); ttl > 0 {
		primary = store.NewTerminalCacheRepository(primary, ttl)
	}

	if opts.Failover {
		return store.NewFailoverRepository(primary, store.NewMemoryStore(), logger), nil
	}

	return primary, nil
}
