package entity

import (
	"time"

	"github.com/google/uuid"
)

type EmailStatus string

const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
)

// EmailNotification is an email queued by a withdrawal. Rows are written inside the
// withdrawal transaction and delivered after commit.
type EmailNotification struct {
	Id              uuid.UUID
	ApplicationId   uuid.UUID
	TemplateId      string
	Recipient       string
	RecipientUserId *uuid.UUID
	EntityType      string
	EntityId        uuid.UUID
	Personalisation map[string]string
	Status          EmailStatus
	Attempts        int
	LastError       *string
	SentAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Notification struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	ActorId    *uuid.UUID
	TypeCode   string
	EntityType string
	EntityId   *uuid.UUID
	Title      string
	Message    string
	Metadata   map[string]string
	IsRead     bool
	ReadAt     *time.Time
	CreatedAt  time.Time
}
