package acctcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/replyflow/replyflow/automation/rulestore"
)

type MemAccountCache struct {
	data *expirable.LRU[string, rulestore.AccountRecord]
}

var _ AccountCache = (*MemAccountCache)(nil)

func NewMemAccountCache(capacity int, ttl time.Duration) *MemAccountCache {
	return &MemAccountCache{
		data: expirable.NewLRU[string, rulestore.AccountRecord](capacity, nil, ttl),
	}
}

func (c *MemAccountCache) Get(ctx context.Context, platformID string) (*rulestore.AccountRecord, error) {
	acct, ok := c.data.Get(platformID)
	if !ok {
		return nil, nil
	}
	return &acct, nil
}

func (c *MemAccountCache) Set(ctx context.Context, platformID string, acct *rulestore.AccountRecord) error {
	c.data.Add(platformID, *acct)
	return nil
}

func (c *MemAccountCache) Purge(ctx context.Context, platformID string) error {
	c.data.Remove(platformID)
	return nil
}
