package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is keyed by its generated EventID rather than BaseModel because
// the identifier is part of the media object key scheme.
type Event struct {
	EventID      uuid.UUID `json:"eventId" gorm:"type:uuid;primaryKey"`
	TimelineName string    `json:"timelineName" gorm:"type:varchar(255);not null;index"`
	Date         string    `json:"date" gorm:"type:varchar(64);not null"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	// Object-store keys of the two media slots; empty when the slot has
	// no media. Objects named here are owned exclusively by this event.
	OriginalFileKey string    `json:"originalFileKey" gorm:"type:text;not null;default:''"`
	CroppedFileKey  string    `json:"croppedFileKey" gorm:"type:text;not null;default:''"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (e *Event) BeforeCreate(_ *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}

func (Event) TableName() string {
	return "timeline_events"
}
