package repository

import (
	"fmt"

	"gorm.io/gorm"
)

type WarnRepository interface {
	AddWarn(chatID, userID int64, reason string) (int64, error)
	CountWarns(chatID, userID int64) (int64, error)
	ResetWarns(chatID, userID int64) error
}

type PostgresWarnRepository struct {
	db *gorm.DB
}

func NewWarnRepository(db *gorm.DB) WarnRepository {
	return &PostgresWarnRepository{db: db}
}

// AddWarn records a warning and returns the user's total in the chat.
func (r *PostgresWarnRepository) AddWarn(chatID, userID int64, reason string) (int64, error) {
	warn := Warn{ChatID: chatID, UserID: userID, Reason: reason}
	if err := r.db.Create(&warn).Error; err != nil {
		return 0, fmt.Errorf("failed to add warn: %w", err)
	}
	return r.CountWarns(chatID, userID)
}

func (r *PostgresWarnRepository) CountWarns(chatID, userID int64) (int64, error) {
	var count int64
	if err := r.db.Model(&Warn{}).Where("chat_id = ? AND user_id = ?", chatID, userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count warns: %w", err)
	}
	return count, nil
}

func (r *PostgresWarnRepository) ResetWarns(chatID, userID int64) error {
	if err := r.db.Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&Warn{}).Error; err != nil {
		return fmt.Errorf("failed to reset warns: %w", err)
	}
	return nil
}
