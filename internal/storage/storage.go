// Package storage provides key/value backends for persisting engine state.
package storage

import (
	"context"

	"github.com/pkg/errors"
)

// KV is implemented by every backend in this package.
type KV interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Close() error
}

var (
	_ KV = (*DB)(nil)
	_ KV = (*Redis)(nil)
	_ KV = (*Memory)(nil)
)

// Open returns the backend named by driver: "sqlite", "redis" or "memory".
// For sqlite dsn is the database path; for redis it is the server address.
func Open(ctx context.Context, driver, dsn string, redisCfg RedisConfig) (KV, error) {
	switch driver {
	case "sqlite", "":
		return OpenSQLite(dsn)
	case "redis":
		if dsn != "" {
			redisCfg.Addr = dsn
		}
		return OpenRedis(ctx, redisCfg)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.Errorf("unknown store driver %q", driver)
	}
}
