package rulestore

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// In-memory Store, for engine tests and local hacking.
type MemStore struct {
	lk         sync.Mutex
	accounts   map[string]*AccountRecord
	rules      []AutomationRule
	nextAcctID uint
	nextRuleID uint
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		accounts:   make(map[string]*AccountRecord),
		nextAcctID: 1,
		nextRuleID: 1,
	}
}

func (s *MemStore) GetAccountByPlatformID(ctx context.Context, platformID string) (*AccountRecord, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	acct, ok := s.accounts[platformID]
	if !ok {
		return nil, nil
	}
	out := *acct
	return &out, nil
}

func (s *MemStore) UpsertAccount(ctx context.Context, acct *AccountRecord) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	if prev, ok := s.accounts[acct.PlatformID]; ok {
		acct.ID = prev.ID
	} else {
		acct.ID = s.nextAcctID
		s.nextAcctID++
	}
	cp := *acct
	s.accounts[acct.PlatformID] = &cp
	return nil
}

func (s *MemStore) GetActiveRules(ctx context.Context, ownerID uint, mediaID string) ([]AutomationRule, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	var out []AutomationRule
	for _, r := range s.rules {
		if r.OwnerID == ownerID && r.MediaID == mediaID && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemStore) ListRules(ctx context.Context, ownerID uint) ([]AutomationRule, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	var out []AutomationRule
	for _, r := range s.rules {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemStore) CreateRule(ctx context.Context, rule *AutomationRule) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	rule.ID = s.nextRuleID
	s.nextRuleID++
	s.rules = append(s.rules, *rule)
	return nil
}

func (s *MemStore) SetRuleActive(ctx context.Context, id uint, active bool) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].Active = active
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *MemStore) DeleteRule(ctx context.Context, id uint) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return nil
}
