package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/replyflow/replyflow/automation/rulestore"
	"github.com/replyflow/replyflow/automation/webhook"
)

// mirrors the case folding the normalizer applies at construction
func testEvent(text string) *webhook.CommentEvent {
	return &webhook.CommentEvent{
		CommentID:      "cmt1",
		MediaID:        "media1",
		OwnerAccountID: "acct1",
		CommenterID:    "user1",
		Text:           strings.ToLower(text),
	}
}

func keywordRule(id uint, word string) rulestore.AutomationRule {
	r := rulestore.AutomationRule{
		TriggerKind: rulestore.TriggerKeyword,
		Keyword:     word,
		DMMessage:   "hi",
	}
	r.ID = id
	return r
}

func alwaysRule(id uint) rulestore.AutomationRule {
	r := rulestore.AutomationRule{
		TriggerKind: rulestore.TriggerAlways,
		DMMessage:   "hi",
	}
	r.ID = id
	return r
}

func TestMatchKeyword(t *testing.T) {
	assert := assert.New(t)

	// case-insensitive substring, both directions
	fired := MatchRules(testEvent("Great tips!"), []rulestore.AutomationRule{keywordRule(1, "tips")})
	assert.Len(fired, 1)

	fired = MatchRules(testEvent("please send INFO"), []rulestore.AutomationRule{keywordRule(1, "info")})
	assert.Len(fired, 1)

	fired = MatchRules(testEvent("great tips!"), []rulestore.AutomationRule{keywordRule(1, "TIPS")})
	assert.Len(fired, 1)

	// substring, not word-boundary: embedded matches count
	fired = MatchRules(testEvent("multitipster"), []rulestore.AutomationRule{keywordRule(1, "tips")})
	assert.Len(fired, 1)

	// "TIP " with trailing space: substring "tip " is absent
	fired = MatchRules(testEvent("Great tips!"), []rulestore.AutomationRule{keywordRule(1, "TIP ")})
	assert.Len(fired, 0)

	fired = MatchRules(testEvent("nothing relevant"), []rulestore.AutomationRule{keywordRule(1, "sale")})
	assert.Len(fired, 0)

	// keyword trigger with no keyword configured never fires
	fired = MatchRules(testEvent("anything"), []rulestore.AutomationRule{keywordRule(1, "")})
	assert.Len(fired, 0)
}

func TestMatchAlways(t *testing.T) {
	assert := assert.New(t)

	for _, text := range []string{"", "anything at all", "no keywords here"} {
		fired := MatchRules(testEvent(text), []rulestore.AutomationRule{alwaysRule(1)})
		assert.Len(fired, 1)
	}
}

func TestMatchOrderPreserved(t *testing.T) {
	assert := assert.New(t)

	candidates := []rulestore.AutomationRule{
		keywordRule(10, "sale"),
		alwaysRule(11),
		keywordRule(12, "absent"),
		keywordRule(13, "here"),
	}
	fired := MatchRules(testEvent("no sale here"), candidates)
	if assert.Len(fired, 3) {
		assert.Equal(uint(10), fired[0].ID)
		assert.Equal(uint(11), fired[1].ID)
		assert.Equal(uint(13), fired[2].ID)
	}
}

func TestMatchUnknownTrigger(t *testing.T) {
	assert := assert.New(t)

	rule := rulestore.AutomationRule{TriggerKind: "regex", Keyword: ".*"}
	fired := MatchRules(testEvent("anything"), []rulestore.AutomationRule{rule})
	assert.Len(fired, 0)
}
