package service

import (
	"context"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/dto"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/logger"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/mailer"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/specification"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/juju/clock"
	"github.com/patrickmn/go-cache"
)

const dispatchModule = "EmailDispatchService"

type IEmailDispatchService interface {
	Consume(ctx context.Context) error
	// RedeliverPending re-queues outbox rows left unsent by a crash or a failed send.
	RedeliverPending(ctx context.Context) (int, error)
}

type DispatchOptions struct {
	DedupWindow time.Duration
	MaxAttempts int
}

type emailDispatchService struct {
	subscriber   message.Subscriber
	topicName    string
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
	publisher    IPublisherService
	clock        clock.Clock
	sent         *cache.Cache
	maxAttempts  int
	logger       logger.ILogger
}

func NewEmailDispatchService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	publisher IPublisherService,
	clk clock.Clock,
	opts DispatchOptions,
	log logger.ILogger,
) IEmailDispatchService {
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = 30 * time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	return &emailDispatchService{
		subscriber:   subscriber,
		topicName:    topicName,
		uowFactory:   uowFactory,
		emailService: emailService,
		publisher:    publisher,
		clock:        clk,
		sent:         cache.New(opts.DedupWindow, opts.DedupWindow),
		maxAttempts:  opts.MaxAttempts,
		logger:       log,
	}
}

func (s *emailDispatchService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *emailDispatchService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.EmailDispatchMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error(dispatchModule, "Failed to unmarshal message", map[string]interface{}{"error": err})
		msg.Ack()
		return
	}
	id := payload.EmailNotificationId

	if _, seen := s.sent.Get(id.String()); seen {
		s.logger.Debug(dispatchModule, "Duplicate delivery dropped", map[string]interface{}{"email_notification_id": id.String()})
		msg.Ack()
		return
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).EmailNotificationRepository()
	rows, err := repo.FindAll(ctx, specification.ByID{ID: id})
	if err != nil {
		s.logger.Error(dispatchModule, "Failed to load email notification", map[string]interface{}{
			"email_notification_id": id.String(),
			"error":                 err,
		})
		msg.Nack()
		return
	}
	if len(rows) == 0 {
		s.logger.Warn(dispatchModule, "Email notification not found", map[string]interface{}{"email_notification_id": id.String()})
		msg.Ack()
		return
	}
	email := rows[0]
	if email.Status == entity.EmailStatusSent {
		s.sent.SetDefault(id.String(), struct{}{})
		msg.Ack()
		return
	}

	if err := s.emailService.Send(email.Recipient, email.TemplateId, email.Personalisation); err != nil {
		s.logger.Error(dispatchModule, "Failed to send email", map[string]interface{}{
			"email_notification_id": id.String(),
			"template":              email.TemplateId,
			"attempts":              email.Attempts + 1,
			"error":                 err,
		})
		if err := repo.MarkFailed(ctx, id, err.Error()); err != nil {
			s.logger.Error(dispatchModule, "Failed to mark email failed", map[string]interface{}{"error": err})
		}
		msg.Ack()
		return
	}

	if err := repo.MarkSent(ctx, id, s.clock.Now().UTC()); err != nil {
		s.logger.Error(dispatchModule, "Failed to mark email sent", map[string]interface{}{
			"email_notification_id": id.String(),
			"error":                 err,
		})
	}
	s.sent.SetDefault(id.String(), struct{}{})
	s.logger.Info(dispatchModule, "Email sent", map[string]interface{}{
		"email_notification_id": id.String(),
		"template":              email.TemplateId,
		"entity_type":           email.EntityType,
		"entity_id":             email.EntityId.String(),
	})
	msg.Ack()
}

func (s *emailDispatchService) RedeliverPending(ctx context.Context) (int, error) {
	rows, err := s.uowFactory.NewUnitOfWork(ctx).EmailNotificationRepository().FindAll(ctx,
		specification.Redeliverable{MaxAttempts: s.maxAttempts},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, row := range rows {
		payload, err := json.Marshal(dto.EmailDispatchMessage{EmailNotificationId: row.Id})
		if err != nil {
			return queued, err
		}
		if err := s.publisher.Publish(ctx, payload); err != nil {
			return queued, err
		}
		queued++
	}
	if queued > 0 {
		s.logger.Info(dispatchModule, "Re-queued unsent emails", map[string]interface{}{"count": queued})
	}
	return queued, nil
}
