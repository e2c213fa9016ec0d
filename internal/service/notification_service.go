package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/dto"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/logger"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/contract"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/unitofwork"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/events"
	pktNats "github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/nats"

	"github.com/google/uuid"
	"github.com/juju/clock"
)

const (
	notificationModule  = "NotificationService"
	notificationSubject = "events.>"
	notificationDurable = "notif-service-worker"
)

// NotificationDelivery pushes a stored notification to the user's live connections.
// Implemented by the WebSocket hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification entity.Notification)
}

// EventSubscriber is satisfied by the NATS subscriber.
type EventSubscriber interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

type INotificationService interface {
	Start() error
	GetNotifications(ctx context.Context, userId uuid.UUID, page, limit int) (*dto.NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, userId uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, id, userId uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userId uuid.UUID) error
}

type NotificationService struct {
	uowFactory unitofwork.RepositoryFactory
	subscriber EventSubscriber
	delivery   NotificationDelivery
	clock      clock.Clock
	logger     logger.ILogger
}

func NewNotificationService(uowFactory unitofwork.RepositoryFactory, sub EventSubscriber, delivery NotificationDelivery, clk clock.Clock, log logger.ILogger) *NotificationService {
	return &NotificationService{
		uowFactory: uowFactory,
		subscriber: sub,
		delivery:   delivery,
		clock:      clk,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() error {
	if s.subscriber == nil {
		s.logger.Warn(notificationModule, "No event subscriber, in-app notifications disabled", nil)
		return nil
	}
	if err := s.subscriber.Subscribe(notificationSubject, notificationDurable, s.handleEvent); err != nil {
		s.logger.Error(notificationModule, "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return err
	}
	s.logger.Info(notificationModule, "Notification service started, listening to "+notificationSubject, nil)
	return nil
}

type notificationCopy struct {
	title   string
	message string
}

var notificationCopies = map[string]notificationCopy{
	events.ApplicationWithdrawn:          {"Application withdrawn", "The application for %s has been withdrawn"},
	events.PlacementApplicationWithdrawn: {"Request for placement withdrawn", "A request for placement for %s has been withdrawn"},
	events.PlacementRequestWithdrawn:     {"Placement request withdrawn", "A placement request for %s has been withdrawn"},
	events.SpaceBookingCancelled:         {"Placement cancelled", "A placement for %s has been cancelled"},
	events.SpaceBookingArrivalRecorded:   {"Arrival recorded", "An arrival has been recorded for %s"},
	events.SpaceBookingNonArrival:        {"Non-arrival recorded", "A non-arrival has been recorded for %s"},
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), "events.")
	if _, ok := notificationCopies[typeCode]; !ok {
		s.logger.Debug(notificationModule, fmt.Sprintf("No notification for event type '%s'", typeCode), nil)
		return nil
	}

	userStr, _ := event.Payload()["user_id"].(string)
	userId, err := uuid.Parse(userStr)
	if err != nil {
		s.logger.Warn(notificationModule, fmt.Sprintf("No user_id in payload for event %s", typeCode), nil)
		return nil
	}

	notif := s.buildNotification(userId, typeCode, event)
	if err := s.uowFactory.NewUnitOfWork(ctx).NotificationRepository().Create(ctx, &notif); err != nil {
		s.logger.Error(notificationModule, fmt.Sprintf("Error saving notification for user %s", userId), map[string]interface{}{"error": err})
		return err
	}

	if s.delivery != nil {
		s.delivery.Send(userId, notif)
	}
	return nil
}

func (s *NotificationService) buildNotification(userId uuid.UUID, typeCode string, event events.Event) entity.Notification {
	payload := event.Payload()
	text := notificationCopies[typeCode]

	crn, _ := payload["crn"].(string)
	message := fmt.Sprintf(text.message, crn)
	if reason, _ := payload["reason"].(string); reason != "" {
		message += ": " + reason
	}

	var actorId *uuid.UUID
	if actorStr, ok := payload["actor_id"].(string); ok {
		if aid, err := uuid.Parse(actorStr); err == nil {
			actorId = &aid
		}
	}

	entityType, _ := payload["entity_type"].(string)
	var entityId *uuid.UUID
	if eidStr, ok := payload["entity_id"].(string); ok {
		if eid, err := uuid.Parse(eidStr); err == nil {
			entityId = &eid
		}
	}

	metadata := make(map[string]string, len(payload)+1)
	for k, v := range payload {
		metadata[k] = fmt.Sprintf("%v", v)
	}
	if appId, ok := payload["application_id"].(string); ok {
		metadata["action_url"] = "/applications/" + appId
	}

	return entity.Notification{
		Id:         uuid.New(),
		UserId:     userId,
		ActorId:    actorId,
		TypeCode:   typeCode,
		EntityType: entityType,
		EntityId:   entityId,
		Title:      text.title,
		Message:    message,
		Metadata:   metadata,
		IsRead:     false,
		CreatedAt:  s.clock.Now().UTC(),
	}
}

// GetNotifications returns one page of the user's notifications, newest first.
func (s *NotificationService) GetNotifications(ctx context.Context, userId uuid.UUID, page, limit int) (*dto.NotificationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	items, total, err := s.uowFactory.NewUnitOfWork(ctx).NotificationRepository().FindByUser(ctx, userId, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	res := &dto.NotificationListResponse{
		Data:  make([]dto.NotificationResponse, 0, len(items)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, n := range items {
		res.Data = append(res.Data, ToNotificationResponse(*n))
	}
	return res, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userId uuid.UUID) (int64, error) {
	return s.uowFactory.NewUnitOfWork(ctx).NotificationRepository().CountUnread(ctx, userId)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id, userId uuid.UUID) error {
	err := s.uowFactory.NewUnitOfWork(ctx).NotificationRepository().MarkAsRead(ctx, id, userId, s.clock.Now().UTC())
	if errors.Is(err, contract.ErrStaleRow) {
		return ErrNotificationNotFound
	}
	return err
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userId uuid.UUID) error {
	return s.uowFactory.NewUnitOfWork(ctx).NotificationRepository().MarkAllAsRead(ctx, userId, s.clock.Now().UTC())
}

func ToNotificationResponse(n entity.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		Id:         n.Id,
		TypeCode:   n.TypeCode,
		EntityType: n.EntityType,
		EntityId:   n.EntityId,
		Title:      n.Title,
		Message:    n.Message,
		Metadata:   n.Metadata,
		IsRead:     n.IsRead,
		ReadAt:     n.ReadAt,
		CreatedAt:  n.CreatedAt,
	}
}
