// Package kvstore persists JSON-encoded values under string keys. It backs
// the user, question and attempt collections with either a relational table
// (sqlite, mysql, postgres) or redis.
package kvstore

import (
	"context"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/pkg/database"

	"github.com/pkg/errors"
)

type Store interface {
	// Get decodes the value stored under key into dst. It reports false,
	// leaving dst untouched, when the key is absent.
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Put(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the store selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case "redis":
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			return nil, errors.Wrap(err, "kvstore: connect redis")
		}
		return NewRedisStore(rdb, cfg.Redis.KeyPrefix), nil
	case "memory":
		return NewInMemory()
	default:
		db, err := database.InitDB(&cfg.Store, cfg.Server.Mode == "debug")
		if err != nil {
			return nil, errors.Wrapf(err, "kvstore: open %s", cfg.Store.Driver)
		}
		return NewGormStore(ctx, db, cfg.Store.Table)
	}
}
