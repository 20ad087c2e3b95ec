package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 5 * time.Second

// Redis is a store backed by a shared Redis instance, for deployments that
// keep session state out of the local filesystem. Keys are namespaced so
// several clients can share one database.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. The prefix is prepended to every key;
// empty means "wirectl:kv:".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "wirectl:kv:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: redis get %q: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("kvstore: redis set %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("kvstore: redis delete %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Erase() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("kvstore: redis erase %q: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("kvstore: redis erase scan: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
