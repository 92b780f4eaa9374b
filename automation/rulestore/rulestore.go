package rulestore

import (
	"context"

	"gorm.io/gorm"
)

// Condition under which a rule fires.
const (
	TriggerAlways  = "always"
	TriggerKeyword = "keyword"
)

// A connected Instagram business account. Owned by the storage layer;
// read-only from the engine's perspective.
type AccountRecord struct {
	gorm.Model
	// Instagram account id, as it appears in webhook payloads
	PlatformID string `gorm:"uniqueIndex"`
	Username   string
	// long-lived Graph API token for this account
	AccessToken string
	// linked Facebook page, used by the messaging API
	PageID string
}

// A registered comment automation rule. Created and toggled by the authoring
// surface; the engine only ever reads these.
type AutomationRule struct {
	gorm.Model
	OwnerID uint   `gorm:"index"`
	MediaID string `gorm:"index"`
	Active  bool

	// TriggerAlways or TriggerKeyword; Keyword is only meaningful for the latter
	TriggerKind string
	Keyword     string

	// DM is mandatory for a fired rule; the comment reply is optional
	DMMessage    string
	ButtonTitle  string
	ButtonURL    string
	CommentReply string
}

// Record store boundary for accounts and automation rules.
//
// "Not found" is an ordinary value, not an error: GetAccountByPlatformID
// returns (nil, nil) for unknown accounts, and GetActiveRules returns an
// empty slice when nothing is registered. Errors are reserved for store
// faults.
type Store interface {
	GetAccountByPlatformID(ctx context.Context, platformID string) (*AccountRecord, error)
	UpsertAccount(ctx context.Context, acct *AccountRecord) error

	// returns only active rules, in insertion order
	GetActiveRules(ctx context.Context, ownerID uint, mediaID string) ([]AutomationRule, error)
	ListRules(ctx context.Context, ownerID uint) ([]AutomationRule, error)
	CreateRule(ctx context.Context, rule *AutomationRule) error
	SetRuleActive(ctx context.Context, id uint, active bool) error
	DeleteRule(ctx context.Context, id uint) error
}
