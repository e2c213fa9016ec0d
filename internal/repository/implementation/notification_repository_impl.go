package implementation

import (
	"context"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/mapper"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/model"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/contract"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/scope"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmailNotificationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NotificationMapper
}

func NewEmailNotificationRepository(db *gorm.DB) contract.EmailNotificationRepository {
	return &EmailNotificationRepositoryImpl{
		db:     db,
		mapper: mapper.NewNotificationMapper(),
	}
}

func (r *EmailNotificationRepositoryImpl) CreateBatch(ctx context.Context, emails []*entity.EmailNotification) error {
	if len(emails) == 0 {
		return nil
	}
	models := make([]*model.EmailNotification, len(emails))
	for i, e := range emails {
		models[i] = r.mapper.EmailToModel(e)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*emails[i] = *r.mapper.EmailToEntity(m)
	}
	return nil
}

func (r *EmailNotificationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EmailNotification, error) {
	var models []*model.EmailNotification
	if err := applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedAsc), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.EmailNotification, len(models))
	for i, m := range models {
		out[i] = r.mapper.EmailToEntity(m)
	}
	return out, nil
}

// MarkSent is a no-op for a row already sent, so redelivery never flips it back.
func (r *EmailNotificationRepositoryImpl) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.EmailNotification{}).
		Where("id = ? AND status <> ?", id, string(entity.EmailStatusSent)).
		Updates(map[string]interface{}{
			"status":     string(entity.EmailStatusSent),
			"sent_at":    at,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": nil,
		}).Error
}

func (r *EmailNotificationRepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&model.EmailNotification{}).
		Where("id = ? AND status <> ?", id, string(entity.EmailStatusSent)).
		Updates(map[string]interface{}{
			"status":     string(entity.EmailStatusFailed),
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
}

type NotificationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NotificationMapper
}

func NewNotificationRepository(db *gorm.DB) contract.NotificationRepository {
	return &NotificationRepositoryImpl{
		db:     db,
		mapper: mapper.NewNotificationMapper(),
	}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, notification *entity.Notification) error {
	m := r.mapper.ToModel(notification)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*notification = *r.mapper.ToEntity(m)
	return nil
}

func (r *NotificationRepositoryImpl) FindByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Notification, int64, error) {
	var models []*model.Notification
	var total int64

	owned := specification.ByUserID{UserID: userId}
	if err := applySpecifications(r.db.WithContext(ctx).Model(&model.Notification{}), owned).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedDesc),
		owned,
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*entity.Notification, len(models))
	for i, m := range models {
		out[i] = r.mapper.ToEntity(m)
	}
	return out, total, nil
}

func (r *NotificationRepositoryImpl) CountUnread(ctx context.Context, userId uuid.UUID) (int64, error) {
	var count int64
	err := applySpecifications(r.db.WithContext(ctx).Model(&model.Notification{}),
		specification.ByUserID{UserID: userId},
		specification.Unread{},
	).Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) MarkAsRead(ctx context.Context, id, userId uuid.UUID, at time.Time) error {
	result := applySpecifications(r.db.WithContext(ctx).Model(&model.Notification{}),
		specification.ByID{ID: id},
		specification.ByUserID{UserID: userId},
	).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": at,
	})
	return guarded(result)
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(ctx context.Context, userId uuid.UUID, at time.Time) error {
	return applySpecifications(r.db.WithContext(ctx).Model(&model.Notification{}),
		specification.ByUserID{UserID: userId},
		specification.Unread{},
	).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": at,
	}).Error
}
