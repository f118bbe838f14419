package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/questsupremacy/questd/internal/api/handler"
	"github.com/questsupremacy/questd/internal/core/ports"
	"github.com/questsupremacy/questd/internal/infrastructure/config"
	mongostore "github.com/questsupremacy/questd/internal/infrastructure/db/mongo"
	redislock "github.com/questsupremacy/questd/internal/infrastructure/db/redis"
	"github.com/questsupremacy/questd/internal/infrastructure/store/file"
	"github.com/questsupremacy/questd/pkg/logger"
)

const lockName = "questd:document"

// backend is the opened record store together with what the readiness probe
// should check and what must be closed on exit.
type backend struct {
	store  ports.RecordStore
	file   *file.Store
	checks map[string]handler.Check
	close  func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	b := &backend{checks: map[string]handler.Check{}}
	var closers []func()
	b.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Store.Backend {
	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "questd",
			Timeout:  cfg.Store.IOTimeout,
		})
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { _ = client.Disconnect(context.Background()) })

		store := mongostore.NewDocumentStore(db, cfg.Store.Backups, logger.Component("mongo_store"))
		if err := store.EnsureIndexes(ctx); err != nil {
			b.close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		b.store = store
		b.checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	case config.BackendFile:
		var locker ports.Locker
		rcfg := redislock.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
		if rcfg.Enabled() {
			client, err := redislock.Connect(ctx, rcfg)
			if err != nil {
				return nil, err
			}
			closers = append(closers, func() { _ = client.Close() })
			locker = redislock.NewStoreLock(client, lockName, 0, cfg.Store.LockTimeout, logger.Component("store_lock"))
			b.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}

		store, err := file.New(file.Config{
			Path:      cfg.Store.Path,
			Backups:   cfg.Store.Backups,
			IOTimeout: cfg.Store.IOTimeout,
		}, locker, logger.Component("file_store"))
		if err != nil {
			b.close()
			return nil, err
		}
		b.store = store
		b.file = store

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	store := b.store
	b.checks["store"] = func(ctx context.Context) error {
		_, err := store.Load(ctx)
		return err
	}
	return b, nil
}

var errFileBackendOnly = errors.New("this command only supports STORE_BACKEND=file")
