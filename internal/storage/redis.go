package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Redis is a key/value store backed by a Redis server. Keys are stored
// under KeyPrefix so several engines can share one database.
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to Redis and verifies the connection with a PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", cfg.Addr)
	}
	return &Redis{client: client, prefix: cfg.KeyPrefix}, nil
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to load key %s", key)
	}
	return v, nil
}

func (r *Redis) Save(ctx context.Context, key string, blob []byte) error {
	if err := r.client.Set(ctx, r.key(key), blob, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to save key %s", key)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
