package engine

import (
	"strings"

	"github.com/replyflow/replyflow/automation/rulestore"
	"github.com/replyflow/replyflow/automation/webhook"
)

// Decides which of the candidate rules fire for a comment event. Pure
// decision function: no store or network access, which is what keeps the
// engine unit-testable.
//
// Candidates are expected to be pre-filtered to the event's media and owning
// account; only trigger logic is evaluated here. Fired rules are returned in
// input order, which governs action-execution order.
func MatchRules(evt *webhook.CommentEvent, candidates []rulestore.AutomationRule) []rulestore.AutomationRule {
	var fired []rulestore.AutomationRule
	for _, rule := range candidates {
		if ruleFires(evt, &rule) {
			fired = append(fired, rule)
		}
	}
	return fired
}

func ruleFires(evt *webhook.CommentEvent, rule *rulestore.AutomationRule) bool {
	switch rule.TriggerKind {
	case rulestore.TriggerAlways:
		return true
	case rulestore.TriggerKeyword:
		if rule.Keyword == "" {
			return false
		}
		// substring match, not word-boundary; event text is already folded
		return strings.Contains(evt.Text, strings.ToLower(rule.Keyword))
	default:
		return false
	}
}
