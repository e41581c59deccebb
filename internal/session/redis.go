package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis stores the session under prefix+key. A zero ttl keeps keys until cleared.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *KV {
	return &KV{name: "redis", b: &redisBackend{client: client, prefix: prefix, ttl: ttl}}
}

func (r *redisBackend) get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *redisBackend) set(ctx context.Context, pairs map[string]string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range pairs {
			pipe.Set(ctx, r.prefix+k, v, r.ttl)
		}
		return nil
	})
	return err
}

func (r *redisBackend) del(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	return r.client.Del(ctx, full...).Err()
}
