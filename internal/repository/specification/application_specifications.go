package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByApplicationID selects the rows belonging to one application's tree.
type ByApplicationID struct {
	ApplicationID uuid.UUID
}

func (s ByApplicationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("application_id = ?", s.ApplicationID)
}

// ByUserID selects rows owned by one user.
type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type Unread struct{}

func (s Unread) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_read = ?", false)
}

// Redeliverable selects outbox rows that have not been sent and still have attempts left.
type Redeliverable struct {
	MaxAttempts int
}

func (s Redeliverable) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status <> ? AND attempts < ?", "sent", s.MaxAttempts)
}
