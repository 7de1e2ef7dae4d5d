package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the small JSON cache used for read-heavy listings.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// RedisCache implements Cache on go-redis. Errors are logged and treated as misses.
type RedisCache struct {
	rc *redis.Client
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{rc: redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rc.Ping(ctx).Err()
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		}
		return false
	}
	return json.Unmarshal(b, dst) == nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rc.Set(ctx, key, b, ttl).Err(); err != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.rc.Del(ctx, keys...).Err(); err != nil {
		Sugar.Warnf("cache delete failed keys=%v err=%v", keys, err)
	}
}

func (c *RedisCache) Close() error {
	return c.rc.Close()
}

// NopCache never stores anything; used when REDIS_ADDR is empty.
type NopCache struct{}

func (NopCache) GetJSON(context.Context, string, interface{}) bool             { return false }
func (NopCache) SetJSON(context.Context, string, interface{}, time.Duration) {}
func (NopCache) Delete(context.Context, ...string)                            {}
