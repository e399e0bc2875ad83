package repository

import (
	"time"

	"github.com/lib/pq"
)

type BlacklistRule struct {
	ID        uint   `gorm:"primaryKey"`
	ChatID    int64  `gorm:"index:idx_blacklist_chat_trigger,unique;not null"`
	Trigger   string `gorm:"size:512;index:idx_blacklist_chat_trigger,unique;not null"`
	Action    int    `gorm:"default:0"`
	CreatedAt time.Time
}

type BlacklistSetting struct {
	ChatID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Mode      int    `gorm:"default:1"`
	Duration  string `gorm:"size:32;default:'0'"`
	UpdatedAt time.Time
}

type ChatApprovals struct {
	ChatID    int64         `gorm:"primaryKey;autoIncrement:false"`
	UserIDs   pq.Int64Array `gorm:"type:bigint[]"`
	UpdatedAt time.Time
}

type Warn struct {
	ID        uint   `gorm:"primaryKey"`
	ChatID    int64  `gorm:"index:idx_warns_chat_user"`
	UserID    int64  `gorm:"index:idx_warns_chat_user"`
	Reason    string `gorm:"size:512"`
	CreatedAt time.Time
}

type TemporaryMessage struct {
	ID        int64     `gorm:"primaryKey"`
	ChatID    int64     `gorm:"not null"`
	MessageID int       `gorm:"not null"`
	DeleteAt  time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
