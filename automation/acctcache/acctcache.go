// Read-through cache for account records, keyed by the Instagram account id
// that appears in webhook payloads.
//
// Every comment event triggers an account lookup, and a single popular media
// item can produce bursts of events for the same account, so the engine
// checks here before hitting the record store. Entries expire on a TTL and
// are purged explicitly when the authoring surface mutates an account.
package acctcache

import (
	"context"

	"github.com/replyflow/replyflow/automation/rulestore"
)

type AccountCache interface {
	Get(ctx context.Context, platformID string) (*rulestore.AccountRecord, error)
	Set(ctx context.Context, platformID string, acct *rulestore.AccountRecord) error
	Purge(ctx context.Context, platformID string) error
}
