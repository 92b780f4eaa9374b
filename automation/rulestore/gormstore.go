package rulestore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&AccountRecord{}, &AutomationRule{}); err != nil {
		return nil, fmt.Errorf("migrating rulestore tables: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) GetAccountByPlatformID(ctx context.Context, platformID string) (*AccountRecord, error) {
	var acct AccountRecord
	err := s.db.WithContext(ctx).First(&acct, "platform_id = ?", platformID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (s *GormStore) UpsertAccount(ctx context.Context, acct *AccountRecord) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "platform_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "access_token", "page_id", "updated_at"}),
	}).Create(acct).Error
}

func (s *GormStore) GetActiveRules(ctx context.Context, ownerID uint, mediaID string) ([]AutomationRule, error) {
	var rules []AutomationRule
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND media_id = ? AND active = ?", ownerID, mediaID, true).
		Order("id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *GormStore) ListRules(ctx context.Context, ownerID uint) ([]AutomationRule, error) {
	var rules []AutomationRule
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *GormStore) CreateRule(ctx context.Context, rule *AutomationRule) error {
	return s.db.WithContext(ctx).Create(rule).Error
}

func (s *GormStore) SetRuleActive(ctx context.Context, id uint, active bool) error {
	res := s.db.WithContext(ctx).Model(&AutomationRule{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *GormStore) DeleteRule(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&AutomationRule{}, id).Error
}
