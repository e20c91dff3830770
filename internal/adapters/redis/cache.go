package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"travelly_stays/internal/adapters/observability"
)

// Store keeps booking sessions as JSON values with a TTL. Keys are
// namespaced so the instance can share a Redis database.
type Store struct {
	c      *redis.Client
	prefix string
}

func New(addr, pass string, db int) *Store {
	return NewFromClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewFromClient(c *redis.Client) *Store {
	return &Store{c: c, prefix: "stays:"}
}

func (r *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache("miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveCache("hit")
	return true, json.Unmarshal(v, dst)
}

func (r *Store) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache("set")
	return r.c.Set(ctx, r.prefix+key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Store) Del(ctx context.Context, key string) error {
	observability.ObserveCache("del")
	return r.c.Del(ctx, r.prefix+key).Err()
}

func (r *Store) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

func (r *Store) Close() error { return r.c.Close() }
