package contract

import (
	"context"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/specification"

	"github.com/google/uuid"
)

type EmailNotificationRepository interface {
	CreateBatch(ctx context.Context, emails []*entity.EmailNotification) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EmailNotification, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	FindByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Notification, int64, error)
	CountUnread(ctx context.Context, userId uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, id, userId uuid.UUID, at time.Time) error
	MarkAllAsRead(ctx context.Context, userId uuid.UUID, at time.Time) error
}
