package engine

import (
	"context"
	"fmt"

	"github.com/replyflow/replyflow/automation/rulestore"
	"github.com/replyflow/replyflow/automation/webhook"
)

type ActionKind string

const (
	ActionDirectMessage ActionKind = "dm"
	ActionCommentReply  ActionKind = "reply"
)

// Result of one action attempt for one fired rule. Ephemeral: used for
// logging and metrics, never persisted.
type ActionOutcome struct {
	Kind ActionKind
	Err  error
}

func (o ActionOutcome) Succeeded() bool {
	return o.Err == nil
}

// Builds the DM body for a fired rule. When both button fields are present
// the button is folded into the text; template cards are not used (see
// graph.Client.SendDirectMessage).
func ComposeDMBody(rule *rulestore.AutomationRule) string {
	if rule.ButtonTitle != "" && rule.ButtonURL != "" {
		return fmt.Sprintf("%s\n\n%s: %s", rule.DMMessage, rule.ButtonTitle, rule.ButtonURL)
	}
	return rule.DMMessage
}

// Runs the action set of one fired rule. The DM is always attempted; the
// comment reply only when configured. DM-before-reply ordering is an
// observable contract.
//
// Failure isolation: each action's outcome is captured independently. A DM
// failure does not prevent the reply attempt, and no failure escalates out
// of this function.
func (eng *Engine) executeRuleActions(ctx context.Context, acct *rulestore.AccountRecord, evt *webhook.CommentEvent, rule *rulestore.AutomationRule) []ActionOutcome {
	outcomes := make([]ActionOutcome, 0, 2)

	err := eng.Platform.SendDirectMessage(ctx, evt.CommenterID, ComposeDMBody(rule), acct.AccessToken)
	outcomes = append(outcomes, ActionOutcome{Kind: ActionDirectMessage, Err: err})

	if rule.CommentReply != "" {
		err := eng.Platform.ReplyToComment(ctx, evt.CommentID, rule.CommentReply, acct.AccessToken)
		outcomes = append(outcomes, ActionOutcome{Kind: ActionCommentReply, Err: err})
	}

	return outcomes
}
