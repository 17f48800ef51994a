package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"blog/internal/app"
)

const scanBatch = 100

// RedisCache is a PageCache shared by every server process pointing at the
// same Redis. Keys live under prefix so InvalidateAll leaves other data
// alone.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(ctx context.Context, addr, prefix string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", addr)
	}
	return &RedisCache{client: client, prefix: prefix}, nil
}

func (c *RedisCache) Close() error { return c.client.Close() }

func (c *RedisCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func() ([]byte, error)) ([]byte, error) {
	full := c.prefix + key
	v, err := c.client.Get(ctx, full).Bytes()
	if err == nil {
		return v, nil
	}
	if err != redis.Nil {
		// an unreachable cache must not take pages down with it
		app.Log.WithError(err).WithField("key", full).Warn("page cache read failed")
	}

	v, err = compute()
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, full, v, ttl).Err(); err != nil {
		app.Log.WithError(err).WithField("key", full).Warn("page cache write failed")
	}
	return v, nil
}

func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", scanBatch).Result()
		if err != nil {
			return errors.Wrap(err, "scan page cache")
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return errors.Wrap(err, "delete page cache keys")
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	app.Log.WithField("prefix", c.prefix).WithField("keys", deleted).Info("page cache flushed")
	return nil
}
