package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ApprovalRepository tracks per-chat approved users: principals exempt from
// automated moderation.
type ApprovalRepository interface {
	IsApproved(chatID, userID int64) (bool, error)
	Approve(chatID, userID int64) error
	Unapprove(chatID, userID int64) (bool, error)
	ListApproved(chatID int64) ([]int64, error)
	Migrate(oldChatID, newChatID int64) error
}

type PostgresApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &PostgresApprovalRepository{db: db}
}

func (r *PostgresApprovalRepository) IsApproved(chatID, userID int64) (bool, error) {
	ids, err := r.ListApproved(chatID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *PostgresApprovalRepository) Approve(chatID, userID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var row ChatApprovals
		err := tx.First(&row, "chat_id = ?", chatID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = ChatApprovals{ChatID: chatID, UserIDs: pq.Int64Array{userID}}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create approvals row: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load approvals: %w", err)
		}
		for _, id := range row.UserIDs {
			if id == userID {
				return nil
			}
		}
		row.UserIDs = append(row.UserIDs, userID)
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to save approvals: %w", err)
		}
		return nil
	})
}

func (r *PostgresApprovalRepository) Unapprove(chatID, userID int64) (bool, error) {
	removed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var row ChatApprovals
		err := tx.First(&row, "chat_id = ?", chatID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load approvals: %w", err)
		}
		kept := row.UserIDs[:0]
		for _, id := range row.UserIDs {
			if id == userID {
				removed = true
				continue
			}
			kept = append(kept, id)
		}
		if !removed {
			return nil
		}
		row.UserIDs = kept
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to save approvals: %w", err)
		}
		return nil
	})
	return removed, err
}

func (r *PostgresApprovalRepository) ListApproved(chatID int64) ([]int64, error) {
	var row ChatApprovals
	err := r.db.First(&row, "chat_id = ?", chatID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list approved users: %w", err)
	}
	return row.UserIDs, nil
}

func (r *PostgresApprovalRepository) Migrate(oldChatID, newChatID int64) error {
	if err := r.db.Model(&ChatApprovals{}).Where("chat_id = ?", oldChatID).
		Update("chat_id", newChatID).Error; err != nil {
		return fmt.Errorf("failed to migrate approvals: %w", err)
	}
	return nil
}
