package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/replyflow/replyflow/automation/acctcache"
	"github.com/replyflow/replyflow/automation/countstore"
	"github.com/replyflow/replyflow/automation/rulestore"
	"github.com/replyflow/replyflow/automation/webhook"
)

// Messaging capability of the platform API. Implemented by graph.Client;
// mocked in tests.
type PlatformClient interface {
	SendDirectMessage(ctx context.Context, recipientID, body, accessToken string) error
	ReplyToComment(ctx context.Context, commentID, body, accessToken string) error
}

// Runtime for processing webhook deliveries: normalizes entries, matches
// automation rules, and executes their actions.
//
// Holds no mutable state between deliveries; multiple deliveries may be
// processed concurrently without locking at this layer.
type Engine struct {
	Logger   *slog.Logger
	Store    rulestore.Store
	Platform PlatformClient
	Cache    acctcache.AccountCache
	Counters countstore.CountStore
}

// Processes one inbound webhook delivery. Never fails the caller: the
// webhook acknowledgment contract requires a success response even when
// business logic faults, otherwise the platform backs off and re-delivers
// the whole delivery.
func (eng *Engine) ProcessDelivery(ctx context.Context, body []byte) {
	deliveriesReceived.Inc()

	d, err := webhook.ParseDelivery(body)
	if err != nil {
		deliveriesMalformed.Inc()
		eng.Logger.Warn("dropping malformed webhook delivery", "err", err)
		return
	}

	// entries are independent; process sequentially so action order stays
	// deterministic, and contain faults per entry
	for _, entry := range d.Entry {
		eng.processEntry(ctx, d.Object, entry)
	}
}

func (eng *Engine) processEntry(ctx context.Context, object string, entry webhook.Entry) {
	// similar to an HTTP server, we want to recover any panics from event processing
	defer func() {
		if r := recover(); r != nil {
			entriesFailed.Inc()
			eng.Logger.Error("webhook entry processing exception", "err", r, "entry", entry.ID)
		}
	}()

	for _, change := range entry.Changes {
		evt, skip := webhook.NormalizeChange(object, change)
		if skip != nil {
			eventsSkipped.Inc()
			eng.Logger.Debug("skipping webhook change", "entry", entry.ID, "reason", skip.Reason)
			continue
		}
		if err := eng.processEvent(ctx, evt); err != nil {
			eventErrors.Inc()
			eng.Logger.Error("failed processing comment event", "comment", evt.CommentID, "err", err)
			continue
		}
		eventsProcessed.Inc()
	}
}

// Handles a single normalized comment event: candidate resolution, trigger
// matching, and action execution per fired rule.
//
// Unknown accounts and empty rule sets are expected traffic and terminate
// silently. Store faults are returned as errors; they are not the same as
// "legitimately no match".
func (eng *Engine) processEvent(ctx context.Context, evt *webhook.CommentEvent) error {
	logger := eng.Logger.With("comment", evt.CommentID, "media", evt.MediaID, "account", evt.OwnerAccountID)

	acct, err := eng.resolveAccount(ctx, evt.OwnerAccountID)
	if err != nil {
		return fmt.Errorf("resolving account: %w", err)
	}
	if acct == nil {
		// business not managed by this service
		logger.Debug("comment for unmanaged account, skipping")
		return nil
	}

	candidates, err := eng.Store.GetActiveRules(ctx, acct.ID, evt.MediaID)
	if err != nil {
		return fmt.Errorf("fetching active rules: %w", err)
	}
	if len(candidates) == 0 {
		logger.Debug("no active rules for media, skipping")
		return nil
	}

	fired := MatchRules(evt, candidates)
	if len(fired) == 0 {
		logger.Debug("no rules fired", "candidates", len(candidates))
		return nil
	}
	rulesFired.Add(float64(len(fired)))

	for _, rule := range fired {
		outcomes := eng.executeRuleActions(ctx, acct, evt, &rule)
		eng.recordOutcomes(ctx, logger, acct, evt, &rule, outcomes)
	}
	return nil
}

// Looks up the account record for a platform account id, via cache then
// store. Returns (nil, nil) when the account is not managed here.
func (eng *Engine) resolveAccount(ctx context.Context, platformID string) (*rulestore.AccountRecord, error) {
	if eng.Cache != nil {
		acct, err := eng.Cache.Get(ctx, platformID)
		if err != nil {
			// cache trouble is not fatal, fall through to the store
			eng.Logger.Warn("account cache read failed", "account", platformID, "err", err)
		} else if acct != nil {
			return acct, nil
		}
	}

	acct, err := eng.Store.GetAccountByPlatformID(ctx, platformID)
	if err != nil {
		return nil, err
	}
	if acct != nil && eng.Cache != nil {
		if err := eng.Cache.Set(ctx, platformID, acct); err != nil {
			eng.Logger.Warn("account cache write failed", "account", platformID, "err", err)
		}
	}
	return acct, nil
}

// Logs and counts the per-action outcomes for one fired rule. Failures were
// already isolated during execution; here they only feed observability.
func (eng *Engine) recordOutcomes(ctx context.Context, logger *slog.Logger, acct *rulestore.AccountRecord, evt *webhook.CommentEvent, rule *rulestore.AutomationRule, outcomes []ActionOutcome) {
	for _, out := range outcomes {
		if !out.Succeeded() {
			actionCount.WithLabelValues(string(out.Kind), "error").Inc()
			logger.Warn("automation action failed", "rule", rule.ID, "action", out.Kind, "err", out.Err)
			continue
		}
		actionCount.WithLabelValues(string(out.Kind), "ok").Inc()
		logger.Info("automation action executed", "rule", rule.ID, "action", out.Kind)

		if eng.Counters == nil {
			continue
		}
		var name string
		switch out.Kind {
		case ActionDirectMessage:
			name = "dm-sent"
		case ActionCommentReply:
			name = "reply-sent"
		}
		if err := eng.Counters.Increment(ctx, name, acct.PlatformID); err != nil {
			logger.Warn("incrementing action counter failed", "err", err)
		}
		if out.Kind == ActionDirectMessage {
			if err := eng.Counters.IncrementDistinct(ctx, "commenter-reached", acct.PlatformID, evt.CommenterID); err != nil {
				logger.Warn("incrementing distinct counter failed", "err", err)
			}
		}
	}
}
