package mapper

import (
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/model"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

type NotificationMapper struct{}

func NewNotificationMapper() *NotificationMapper {
	return &NotificationMapper{}
}

func encodeMap(m map[string]string) datatypes.JSON {
	if m == nil {
		m = map[string]string{}
	}
	b, _ := json.Marshal(m)
	return datatypes.JSON(b)
}

func decodeMap(raw datatypes.JSON) map[string]string {
	out := map[string]string{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func (m *NotificationMapper) EmailToEntity(n *model.EmailNotification) *entity.EmailNotification {
	if n == nil {
		return nil
	}
	return &entity.EmailNotification{
		Id:              n.Id,
		ApplicationId:   n.ApplicationId,
		TemplateId:      n.TemplateId,
		Recipient:       n.Recipient,
		RecipientUserId: n.RecipientUserId,
		EntityType:      n.EntityType,
		EntityId:        n.EntityId,
		Personalisation: decodeMap(n.Personalisation),
		Status:          entity.EmailStatus(n.Status),
		Attempts:        n.Attempts,
		LastError:       n.LastError,
		SentAt:          n.SentAt,
		CreatedAt:       n.CreatedAt,
		UpdatedAt:       n.UpdatedAt,
	}
}

func (m *NotificationMapper) EmailToModel(n *entity.EmailNotification) *model.EmailNotification {
	if n == nil {
		return nil
	}
	return &model.EmailNotification{
		Id:              n.Id,
		ApplicationId:   n.ApplicationId,
		TemplateId:      n.TemplateId,
		Recipient:       n.Recipient,
		RecipientUserId: n.RecipientUserId,
		EntityType:      n.EntityType,
		EntityId:        n.EntityId,
		Personalisation: encodeMap(n.Personalisation),
		Status:          string(n.Status),
		Attempts:        n.Attempts,
		LastError:       n.LastError,
		SentAt:          n.SentAt,
		CreatedAt:       n.CreatedAt,
		UpdatedAt:       n.UpdatedAt,
	}
}

func (m *NotificationMapper) ToEntity(n *model.Notification) *entity.Notification {
	if n == nil {
		return nil
	}
	return &entity.Notification{
		Id:         n.ID,
		UserId:     n.UserID,
		ActorId:    n.ActorID,
		TypeCode:   n.TypeCode,
		EntityType: n.EntityType,
		EntityId:   n.EntityID,
		Title:      n.Title,
		Message:    n.Message,
		Metadata:   decodeMap(n.Metadata),
		IsRead:     n.IsRead,
		ReadAt:     n.ReadAt,
		CreatedAt:  n.CreatedAt,
	}
}

func (m *NotificationMapper) ToModel(n *entity.Notification) *model.Notification {
	if n == nil {
		return nil
	}
	return &model.Notification{
		ID:         n.Id,
		UserID:     n.UserId,
		ActorID:    n.ActorId,
		TypeCode:   n.TypeCode,
		EntityType: n.EntityType,
		EntityID:   n.EntityId,
		Title:      n.Title,
		Message:    n.Message,
		Metadata:   encodeMap(n.Metadata),
		IsRead:     n.IsRead,
		ReadAt:     n.ReadAt,
		CreatedAt:  n.CreatedAt,
	}
}
