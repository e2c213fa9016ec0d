package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EmailNotification is the outbox row for one notification intent.
type EmailNotification struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ApplicationId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	TemplateId      string         `gorm:"type:varchar(60);not null"`
	Recipient       string         `gorm:"type:varchar(255);not null"`
	RecipientUserId *uuid.UUID     `gorm:"type:uuid"`
	EntityType      string         `gorm:"type:varchar(30)"`
	EntityId        uuid.UUID      `gorm:"type:uuid"`
	Personalisation datatypes.JSON `gorm:"type:jsonb"`
	Status          string         `gorm:"type:varchar(20);not null;default:'pending';index"`
	Attempts        int            `gorm:"default:0"`
	LastError       *string        `gorm:"type:text"`
	SentAt          *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (EmailNotification) TableName() string {
	return "email_notifications"
}
