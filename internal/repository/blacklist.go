package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxRulesPerChat caps the blacklist size per chat.
const MaxRulesPerChat = 100

// DefaultMode is the chat-wide fallback action for rules that carry the
// default action: delete the message.
const DefaultMode = 1

var ErrRuleCapExceeded = errors.New("blacklist rule cap exceeded")

type BlacklistRepository interface {
	GetRules(chatID int64) ([]BlacklistRule, error)
	AddRule(chatID int64, trigger string, action int) error
	RemoveRule(chatID int64, trigger string) (bool, error)
	RemoveAllRules(chatID int64) (int64, error)
	CountRules(chatID int64) (int64, error)
	CountAll() (rules int64, chats int64, err error)
	GetMode(chatID int64) (mode int, duration string, err error)
	SetMode(chatID int64, mode int, duration string) error
	Migrate(oldChatID, newChatID int64) error
}

type PostgresBlacklistRepository struct {
	db *gorm.DB
}

func NewBlacklistRepository(db *gorm.DB) BlacklistRepository {
	return &PostgresBlacklistRepository{db: db}
}

// NormalizeTrigger is applied on every write and match: triggers are stored
// lowercased and trimmed so duplicates collapse at input time.
func NormalizeTrigger(trigger string) string {
	return strings.ToLower(strings.TrimSpace(trigger))
}

// GetRules returns the chat's rules in insertion order. Match evaluation
// relies on this order: first matching rule wins.
func (r *PostgresBlacklistRepository) GetRules(chatID int64) ([]BlacklistRule, error) {
	var rules []BlacklistRule
	if err := r.db.Where("chat_id = ?", chatID).Order("id ASC").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to get blacklist rules: %w", err)
	}
	return rules, nil
}

// AddRule inserts a trigger, idempotently by normalized text. Beyond the
// per-chat cap it returns ErrRuleCapExceeded without a partial insert.
func (r *PostgresBlacklistRepository) AddRule(chatID int64, trigger string, action int) error {
	trigger = NormalizeTrigger(trigger)

	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing BlacklistRule
		err := tx.Where("chat_id = ? AND trigger = ?", chatID, trigger).First(&existing).Error
		if err == nil {
			// Re-adding an existing trigger only updates its action.
			if existing.Action != action {
				return tx.Model(&existing).Update("action", action).Error
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing rule: %w", err)
		}

		var count int64
		if err := tx.Model(&BlacklistRule{}).Where("chat_id = ?", chatID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count rules: %w", err)
		}
		if count >= MaxRulesPerChat {
			return ErrRuleCapExceeded
		}

		rule := BlacklistRule{ChatID: chatID, Trigger: trigger, Action: action}
		if err := tx.Create(&rule).Error; err != nil {
			return fmt.Errorf("failed to add rule: %w", err)
		}
		return nil
	})
}

func (r *PostgresBlacklistRepository) RemoveRule(chatID int64, trigger string) (bool, error) {
	trigger = NormalizeTrigger(trigger)
	res := r.db.Where("chat_id = ? AND trigger = ?", chatID, trigger).Delete(&BlacklistRule{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to remove rule: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresBlacklistRepository) RemoveAllRules(chatID int64) (int64, error) {
	res := r.db.Where("chat_id = ?", chatID).Delete(&BlacklistRule{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to remove all rules: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *PostgresBlacklistRepository) CountRules(chatID int64) (int64, error) {
	var count int64
	if err := r.db.Model(&BlacklistRule{}).Where("chat_id = ?", chatID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count rules: %w", err)
	}
	return count, nil
}

func (r *PostgresBlacklistRepository) CountAll() (int64, int64, error) {
	var rules int64
	if err := r.db.Model(&BlacklistRule{}).Count(&rules).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count all rules: %w", err)
	}
	var chats int64
	if err := r.db.Model(&BlacklistRule{}).Distinct("chat_id").Count(&chats).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count rule chats: %w", err)
	}
	return rules, chats, nil
}

func (r *PostgresBlacklistRepository) GetMode(chatID int64) (int, string, error) {
	var setting BlacklistSetting
	err := r.db.First(&setting, "chat_id = ?", chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DefaultMode, "0", nil
		}
		return 0, "", fmt.Errorf("failed to get blacklist mode: %w", err)
	}
	return setting.Mode, setting.Duration, nil
}

func (r *PostgresBlacklistRepository) SetMode(chatID int64, mode int, duration string) error {
	setting := BlacklistSetting{ChatID: chatID, Mode: mode, Duration: duration}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mode", "duration", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to set blacklist mode: %w", err)
	}
	return nil
}

// Migrate re-keys a chat's rows after a group upgrade changes its id.
func (r *PostgresBlacklistRepository) Migrate(oldChatID, newChatID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&BlacklistRule{}).Where("chat_id = ?", oldChatID).
			Update("chat_id", newChatID).Error; err != nil {
			return fmt.Errorf("failed to migrate rules: %w", err)
		}
		if err := tx.Model(&BlacklistSetting{}).Where("chat_id = ?", oldChatID).
			Update("chat_id", newChatID).Error; err != nil {
			return fmt.Errorf("failed to migrate settings: %w", err)
		}
		return nil
	})
}
