package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification stores the in-app notification history.
type Notification struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1;index:idx_notifications_user_unread,priority:1" json:"user_id"`
	ActorID    *uuid.UUID     `gorm:"type:uuid" json:"actor_id,omitempty"`
	TypeCode   string         `gorm:"type:varchar(60);not null;index:idx_notifications_type" json:"type_code"`
	EntityType string         `gorm:"type:varchar(50);index:idx_notifications_entity,priority:1" json:"entity_type,omitempty"`
	EntityID   *uuid.UUID     `gorm:"type:uuid;index:idx_notifications_entity,priority:2" json:"entity_id,omitempty"`
	Title      string         `gorm:"type:varchar(200);not null" json:"title"`
	Message    string         `gorm:"type:text;not null" json:"message"`
	Metadata   datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	IsRead     bool           `gorm:"default:false;index:idx_notifications_user_unread,priority:2" json:"is_read"`
	ReadAt     *time.Time     `json:"read_at,omitempty"`
	CreatedAt  time.Time      `gorm:"default:CURRENT_TIMESTAMP;index:idx_notifications_user_created,priority:2" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
