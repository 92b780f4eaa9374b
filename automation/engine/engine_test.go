package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyflow/replyflow/automation/countstore"
	"github.com/replyflow/replyflow/automation/rulestore"
)

func commentDelivery(commentID, mediaID, ownerID, commenterID, text string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "instagram",
		"entry": [{"id": %q, "time": 1700000000, "changes": [
			{"field": "comments", "value": {
				"id": %q, "text": %q,
				"from": {"id": %q},
				"media": {"id": %q, "owner": {"id": %q}}
			}}
		]}]
	}`, ownerID, commentID, text, commenterID, mediaID, ownerID))
}

func seedAccount(t *testing.T, eng *Engine, platformID string) *rulestore.AccountRecord {
	t.Helper()
	acct := &rulestore.AccountRecord{
		PlatformID:  platformID,
		Username:    "shopcat",
		AccessToken: "tok",
		PageID:      "page1",
	}
	require.NoError(t, eng.Store.UpsertAccount(context.Background(), acct))
	return acct
}

func TestEngineKeywordScenario(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	platform := eng.Platform.(*MockPlatform)
	acct := seedAccount(t, eng, "acct1")

	require.NoError(t, eng.Store.CreateRule(ctx, &rulestore.AutomationRule{
		OwnerID:      acct.ID,
		MediaID:      "media1",
		Active:       true,
		TriggerKind:  rulestore.TriggerKeyword,
		Keyword:      "info",
		DMMessage:    "Here's the info",
		CommentReply: "Sent you a DM!",
	}))

	eng.ProcessDelivery(ctx, commentDelivery("cmt1", "media1", "acct1", "user1", "please send INFO"))

	calls := platform.CallLog()
	require.Len(t, calls, 2)
	assert.Equal(ActionDirectMessage, calls[0].Kind)
	assert.Equal("user1", calls[0].TargetID)
	assert.Equal("Here's the info", calls[0].Body)
	assert.Equal(ActionCommentReply, calls[1].Kind)
	assert.Equal("cmt1", calls[1].TargetID)
	assert.Equal("Sent you a DM!", calls[1].Body)

	// activity counters were persisted
	c, err := eng.Counters.GetCount(ctx, "dm-sent", "acct1", countstore.PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, c)
	c, err = eng.Counters.GetCountDistinct(ctx, "commenter-reached", "acct1", countstore.PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, c)
}

func TestEngineMultipleRulesFireInFetchOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	platform := eng.Platform.(*MockPlatform)
	acct := seedAccount(t, eng, "acct1")

	require.NoError(t, eng.Store.CreateRule(ctx, &rulestore.AutomationRule{
		OwnerID: acct.ID, MediaID: "media1", Active: true,
		TriggerKind: rulestore.TriggerAlways,
		DMMessage:   "first dm",
	}))
	require.NoError(t, eng.Store.CreateRule(ctx, &rulestore.AutomationRule{
		OwnerID: acct.ID, MediaID: "media1", Active: true,
		TriggerKind: rulestore.TriggerKeyword, Keyword: "sale",
		DMMessage: "second dm", CommentReply: "second reply",
	}))

	eng.ProcessDelivery(ctx, commentDelivery("cmt1", "media1", "acct1", "user1", "no sale here"))

	// both rules fire; action sets execute in fetch order
	calls := platform.CallLog()
	require.Len(t, calls, 3)
	assert.Equal("first dm", calls[0].Body)
	assert.Equal("second dm", calls[1].Body)
	assert.Equal("second reply", calls[2].Body)
}

func TestEngineRuleFailureDoesNotBlockSiblingRules(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	platform := eng.Platform.(*MockPlatform)
	platform.DMErrs["first dm"] = errors.New("boom")
	acct := seedAccount(t, eng, "acct1")

	require.NoError(t, eng.Store.CreateRule(ctx, &rulestore.AutomationRule{
		OwnerID: acct.ID, MediaID: "media1", Active: true,
		TriggerKind: rulestore.TriggerAlways,
		DMMessage:   "first dm", CommentReply: "first reply",
	}))
	require.NoError(t, eng.Store.CreateRule(ctx, &rulestore.AutomationRule{
		OwnerID: acct.ID, MediaID: "media1", Active: true,
		TriggerKind: rulestore.TriggerAlways,
		DMMessage:   "second dm",
	}))

	eng.ProcessDelivery(ctx, commentDelivery("cmt1", "media1", "acct1", "user1", "anything"))

	// all three actions attempted despite the first DM failing
	calls := platform.CallLog()
	require.Len(t, calls, 3)
	assert.Equal("first dm", calls[0].Body)
	assert.Equal("first reply", calls[1].Body)
	assert.Equal("second dm", calls[2].Body)
}

func TestEngineIgnoresIrrelevantTraffic(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	platform := eng.Platform.(*MockPlatform)
	acct := seedAccount(t, eng, "acct1")
	require.NoError(t, eng.Store.CreateRule(ctx, &rulestore.AutomationRule{
		OwnerID: acct.ID, MediaID: "media1", Active: true,
		TriggerKind: rulestore.TriggerAlways, DMMessage: "hi",
	}))

	// non-comment change field
	eng.ProcessDelivery(ctx, []byte(`{
		"object": "instagram",
		"entry": [{"id": "acct1", "changes": [{"field": "story_insights", "value": {"impressions": 3}}]}]
	}`))
	assert.Len(platform.CallLog(), 0)

	// unknown account
	eng.ProcessDelivery(ctx, commentDelivery("cmt1", "media1", "acct-unknown", "user1", "hello"))
	assert.Len(platform.CallLog(), 0)

	// known account, media without rules
	eng.ProcessDelivery(ctx, commentDelivery("cmt1", "media-other", "acct1", "user1", "hello"))
	assert.Len(platform.CallLog(), 0)

	// malformed body never panics or errors the caller
	eng.ProcessDelivery(ctx, []byte(`{"object": [`))
	assert.Len(platform.CallLog(), 0)
}

func TestEngineRedeliveryReExecutes(t *testing.T) {
	ctx := context.Background()

	eng := EngineTestFixture()
	platform := eng.Platform.(*MockPlatform)
	acct := seedAccount(t, eng, "acct1")
	require.NoError(t, eng.Store.CreateRule(ctx, &rulestore.AutomationRule{
		OwnerID: acct.ID, MediaID: "media1", Active: true,
		TriggerKind: rulestore.TriggerAlways, DMMessage: "hi", CommentReply: "yo",
	}))

	// no dedup by comment id: the same payload processed twice yields two
	// full executions
	body := commentDelivery("cmt1", "media1", "acct1", "user1", "hello")
	eng.ProcessDelivery(ctx, body)
	eng.ProcessDelivery(ctx, body)

	require.Len(t, platform.CallLog(), 4)
}

// store wrapper which panics when fetching rules for a specific media id
type panickyStore struct {
	rulestore.Store
	panicMedia string
}

func (s *panickyStore) GetActiveRules(ctx context.Context, ownerID uint, mediaID string) ([]rulestore.AutomationRule, error) {
	if mediaID == s.panicMedia {
		panic("store exploded")
	}
	return s.Store.GetActiveRules(ctx, ownerID, mediaID)
}

func TestEngineEntryFaultContained(t *testing.T) {
	ctx := context.Background()

	eng := EngineTestFixture()
	platform := eng.Platform.(*MockPlatform)
	acct := seedAccount(t, eng, "acct1")
	require.NoError(t, eng.Store.CreateRule(ctx, &rulestore.AutomationRule{
		OwnerID: acct.ID, MediaID: "media2", Active: true,
		TriggerKind: rulestore.TriggerAlways, DMMessage: "survived",
	}))
	eng.Store = &panickyStore{Store: eng.Store, panicMedia: "media1"}

	// first entry faults, second entry still processes
	body := []byte(`{
		"object": "instagram",
		"entry": [
			{"id": "acct1", "changes": [{"field": "comments", "value": {
				"id": "c1", "text": "a", "from": {"id": "u1"},
				"media": {"id": "media1", "owner": {"id": "acct1"}}
			}}]},
			{"id": "acct1", "changes": [{"field": "comments", "value": {
				"id": "c2", "text": "b", "from": {"id": "u2"},
				"media": {"id": "media2", "owner": {"id": "acct1"}}
			}}]}
		]
	}`)
	eng.ProcessDelivery(ctx, body)

	calls := platform.CallLog()
	require.Len(t, calls, 1)
	require.Equal(t, "survived", calls[0].Body)
}

// store wrapper which fails account lookups
type failingStore struct {
	rulestore.Store
}

func (s *failingStore) GetAccountByPlatformID(ctx context.Context, platformID string) (*rulestore.AccountRecord, error) {
	return nil, errors.New("connection refused")
}

func TestEngineStoreFaultIsNotNoMatch(t *testing.T) {
	ctx := context.Background()

	eng := EngineTestFixture()
	platform := eng.Platform.(*MockPlatform)
	eng.Store = &failingStore{Store: eng.Store}
	eng.Cache = nil

	// a store fault terminates the event without reaching the platform,
	// and without panicking the delivery
	eng.ProcessDelivery(ctx, commentDelivery("cmt1", "media1", "acct1", "user1", "hello"))
	require.Len(t, platform.CallLog(), 0)
}

func TestEngineAccountCacheUsed(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	acct := seedAccount(t, eng, "acct1")
	require.NoError(t, eng.Store.CreateRule(ctx, &rulestore.AutomationRule{
		OwnerID: acct.ID, MediaID: "media1", Active: true,
		TriggerKind: rulestore.TriggerAlways, DMMessage: "hi",
	}))

	// first event populates the cache
	eng.ProcessDelivery(ctx, commentDelivery("cmt1", "media1", "acct1", "user1", "hello"))
	cached, err := eng.Cache.Get(ctx, "acct1")
	assert.NoError(err)
	require.NotNil(t, cached)
	assert.Equal(acct.ID, cached.ID)

	// second event is served from cache even if the store goes away
	eng.Store = &failingStore{Store: eng.Store}
	platform := eng.Platform.(*MockPlatform)
	before := len(platform.CallLog())
	eng.ProcessDelivery(ctx, commentDelivery("cmt2", "media1", "acct1", "user2", "hello"))
	require.Len(t, platform.CallLog(), before+1)
}
