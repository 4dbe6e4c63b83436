package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoginLog is an append-only record of successful logins. It does NOT
// use BaseModel because rows are never updated.
type LoginLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Username  string    `json:"username" gorm:"type:varchar(100);not null;index"`
	Location  string    `json:"location" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
}

func (l *LoginLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (LoginLog) TableName() string {
	return "login_logs"
}
