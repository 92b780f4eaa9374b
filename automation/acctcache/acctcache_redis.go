package acctcache

import (
	"context"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"github.com/replyflow/replyflow/automation/rulestore"
)

type RedisAccountCache struct {
	data *cache.Cache
	ttl  time.Duration
}

var _ AccountCache = (*RedisAccountCache)(nil)

func NewRedisAccountCache(redisURL string, ttl time.Duration) (*RedisAccountCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	data := cache.New(&cache.Options{
		Redis:      rdb,
		LocalCache: cache.NewTinyLFU(10_000, ttl),
	})
	return &RedisAccountCache{
		data: data,
		ttl:  ttl,
	}, nil
}

func redisAcctKey(platformID string) string {
	return "acct/" + platformID
}

func (c *RedisAccountCache) Get(ctx context.Context, platformID string) (*rulestore.AccountRecord, error) {
	var acct rulestore.AccountRecord
	err := c.data.Get(ctx, redisAcctKey(platformID), &acct)
	if err == cache.ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (c *RedisAccountCache) Set(ctx context.Context, platformID string, acct *rulestore.AccountRecord) error {
	return c.data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisAcctKey(platformID),
		Value: acct,
		TTL:   c.ttl,
	})
}

func (c *RedisAccountCache) Purge(ctx context.Context, platformID string) error {
	err := c.data.Delete(ctx, redisAcctKey(platformID))
	if err == cache.ErrCacheMiss {
		return nil
	}
	return err
}
