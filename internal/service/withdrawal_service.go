package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/dto"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/lock"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/logger"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/contract"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/specification"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/unitofwork"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/events"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/withdrawal"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	withdrawalModule = "WithdrawalService"
	dateLayout       = "2006-01-02"
)

type IWithdrawalService interface {
	GetWithdrawables(ctx context.Context, applicationId uuid.UUID, user entity.RequestingUser) (*dto.WithdrawablesResponse, error)
	WithdrawApplication(ctx context.Context, applicationId uuid.UUID, user entity.RequestingUser, req *dto.WithdrawApplicationRequest) (*dto.WithdrawalResponse, error)
	WithdrawPlacementApplication(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.WithdrawPlacementRequest) (*dto.WithdrawalResponse, error)
	WithdrawPlacementRequest(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.WithdrawPlacementRequest) (*dto.WithdrawalResponse, error)
	WithdrawSpaceBooking(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.WithdrawSpaceBookingRequest) (*dto.WithdrawalResponse, error)
}

type withdrawalService struct {
	uowFactory     unitofwork.RepositoryFactory
	locker         lock.ILocker
	clock          clock.Clock
	emailPublisher IPublisherService
	eventPublisher events.Publisher
	logger         logger.ILogger
	tracer         trace.Tracer
}

// NewWithdrawalService wires the cascade engine to storage. eventPublisher may be nil when
// NATS is unavailable; domain events are then skipped.
func NewWithdrawalService(
	uowFactory unitofwork.RepositoryFactory,
	locker lock.ILocker,
	clk clock.Clock,
	emailPublisher IPublisherService,
	eventPublisher events.Publisher,
	log logger.ILogger,
) IWithdrawalService {
	return &withdrawalService{
		uowFactory:     uowFactory,
		locker:         locker,
		clock:          clk,
		emailPublisher: emailPublisher,
		eventPublisher: eventPublisher,
		logger:         log,
		tracer:         otel.Tracer("withdrawal-service"),
	}
}

func (s *withdrawalService) GetWithdrawables(ctx context.Context, applicationId uuid.UUID, user entity.RequestingUser) (*dto.WithdrawablesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	agg, err := loadAggregate(ctx, uow, applicationId, false)
	if err != nil {
		return nil, err
	}

	result := withdrawal.ListWithdrawables(withdrawal.BuildTree(agg), viewerOf(agg, user))

	res := &dto.WithdrawablesResponse{
		Notes:         result.Notes,
		Withdrawables: make([]dto.WithdrawableResponse, 0, len(result.Withdrawables)),
	}
	for _, w := range result.Withdrawables {
		periods := make([]dto.DatePeriodResponse, 0, len(w.DatePeriods))
		for _, p := range w.DatePeriods {
			periods = append(periods, dto.DatePeriodResponse{
				StartDate: p.Start.Format(dateLayout),
				EndDate:   p.End.Format(dateLayout),
			})
		}
		res.Withdrawables = append(res.Withdrawables, dto.WithdrawableResponse{
			Id:          w.Id,
			Type:        string(w.Type),
			DatePeriods: periods,
		})
	}
	return res, nil
}

func (s *withdrawalService) WithdrawApplication(ctx context.Context, applicationId uuid.UUID, user entity.RequestingUser, req *dto.WithdrawApplicationRequest) (*dto.WithdrawalResponse, error) {
	return s.withdraw(ctx, "WithdrawApplication", applicationId, user, func(agg *entity.ApplicationAggregate, wctx withdrawal.Context) (*withdrawal.Outcome, error) {
		if viewer := viewerOf(agg, user); !viewer.IsApplicant && !viewer.CanOverride {
			return nil, ErrForbidden
		}
		return withdrawal.WithdrawApplication(agg, entity.ApplicationWithdrawalReason(req.Reason), req.OtherReason, wctx)
	})
}

func (s *withdrawalService) WithdrawPlacementApplication(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.WithdrawPlacementRequest) (*dto.WithdrawalResponse, error) {
	pa, err := s.uowFactory.NewUnitOfWork(ctx).PlacementApplicationRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if pa == nil {
		return nil, ErrPlacementApplicationNotFound
	}
	return s.withdraw(ctx, "WithdrawPlacementApplication", pa.ApplicationId, user, func(agg *entity.ApplicationAggregate, wctx withdrawal.Context) (*withdrawal.Outcome, error) {
		return withdrawal.WithdrawPlacementApplication(agg, id, entity.PlacementWithdrawalReason(req.Reason), wctx)
	})
}

func (s *withdrawalService) WithdrawPlacementRequest(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.WithdrawPlacementRequest) (*dto.WithdrawalResponse, error) {
	pr, err := s.uowFactory.NewUnitOfWork(ctx).PlacementRequestRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, ErrPlacementRequestNotFound
	}
	return s.withdraw(ctx, "WithdrawPlacementRequest", pr.ApplicationId, user, func(agg *entity.ApplicationAggregate, wctx withdrawal.Context) (*withdrawal.Outcome, error) {
		return withdrawal.WithdrawPlacementRequest(agg, id, entity.PlacementWithdrawalReason(req.Reason), wctx)
	})
}

func (s *withdrawalService) WithdrawSpaceBooking(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.WithdrawSpaceBookingRequest) (*dto.WithdrawalResponse, error) {
	booking, err := s.uowFactory.NewUnitOfWork(ctx).SpaceBookingRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrSpaceBookingNotFound
	}
	return s.withdraw(ctx, "WithdrawSpaceBooking", booking.ApplicationId, user, func(agg *entity.ApplicationAggregate, wctx withdrawal.Context) (*withdrawal.Outcome, error) {
		return withdrawal.WithdrawSpaceBooking(agg, id, req.Reason, wctx)
	})
}

type cascadeFunc func(agg *entity.ApplicationAggregate, wctx withdrawal.Context) (*withdrawal.Outcome, error)

// withdraw runs one cascade under the application lock and a single transaction. Emails and
// domain events go out only once the transaction has committed.
func (s *withdrawalService) withdraw(ctx context.Context, op string, applicationId uuid.UUID, user entity.RequestingUser, run cascadeFunc) (res *dto.WithdrawalResponse, err error) {
	ctx, span := s.tracer.Start(ctx, withdrawalModule+"."+op, trace.WithAttributes(
		attribute.String("application.id", applicationId.String()),
		attribute.String("user.id", user.Id.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	release, err := s.locker.Acquire(ctx, lock.ApplicationKey(applicationId))
	if err != nil {
		return nil, err
	}
	defer release()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	agg, err := loadAggregate(ctx, uow, applicationId, true)
	if err != nil {
		return nil, err
	}
	actor, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: user.Id})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	outcome, err := run(agg, withdrawal.Context{Now: now, WithdrawnBy: actor})
	if err != nil {
		s.logger.Warn(withdrawalModule, "Withdrawal refused", map[string]interface{}{
			"operation":      op,
			"application_id": applicationId.String(),
			"user_id":        user.Id.String(),
			"error":          err,
		})
		return nil, err
	}

	if err := persistOutcome(ctx, uow, agg, outcome, user.Id, now); err != nil {
		return nil, err
	}

	emails := outboxRows(agg.Application.Id, outcome, now)
	if len(emails) > 0 {
		if err := uow.EmailNotificationRepository().CreateBatch(ctx, emails); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.dispatchEmails(ctx, emails)
	s.publishEvents(ctx, agg.Application, outcome, user.Id, now)

	s.logger.Info(withdrawalModule, fmt.Sprintf("%s %s withdrawn", outcome.Target.Type, outcome.Target.Id), map[string]interface{}{
		"operation":      op,
		"application_id": applicationId.String(),
		"target_type":    string(outcome.Target.Type),
		"target_id":      outcome.Target.Id.String(),
		"reason":         outcome.Changes[0].Reason,
		"cascaded":       len(outcome.Cascaded()),
		"cancelled":      len(outcome.CancelledBookings()),
		"notifications":  len(emails),
	})

	return toWithdrawalResponse(outcome, now), nil
}

func viewerOf(agg *entity.ApplicationAggregate, user entity.RequestingUser) withdrawal.Viewer {
	return withdrawal.Viewer{
		IsApplicant: agg.Application.CreatedByUserId == user.Id,
		CanOverride: user.HasRole(entity.UserRoleWorkflowManager),
	}
}

// loadAggregate reads the application and its whole tree. With lockRows the application and
// booking rows are selected FOR UPDATE, so the caller must be inside a transaction.
func loadAggregate(ctx context.Context, uow unitofwork.UnitOfWork, applicationId uuid.UUID, lockRows bool) (*entity.ApplicationAggregate, error) {
	appSpecs := []specification.Specification{
		specification.ByID{ID: applicationId},
		specification.Preload{Relation: "CreatedByUser"},
		specification.Preload{Relation: "CruManagementArea"},
	}
	if lockRows {
		appSpecs = append(appSpecs, specification.ForUpdate{})
	}
	app, err := uow.ApplicationRepository().FindOne(ctx, appSpecs...)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}

	byApp := specification.ByApplicationID{ApplicationID: applicationId}
	byCreation := specification.OrderBy{Field: "created_at"}

	assessments, err := uow.AssessmentRepository().FindAll(ctx, byApp, specification.Preload{Relation: "AllocatedToUser"}, byCreation)
	if err != nil {
		return nil, err
	}
	placementApplications, err := uow.PlacementApplicationRepository().FindAll(ctx, byApp, specification.Preload{Relation: "CreatedByUser"}, byCreation)
	if err != nil {
		return nil, err
	}
	placementRequests, err := uow.PlacementRequestRepository().FindAll(ctx, byApp, byCreation)
	if err != nil {
		return nil, err
	}
	bookingSpecs := []specification.Specification{byApp, specification.Preload{Relation: "Premises"}, byCreation}
	if lockRows {
		bookingSpecs = append(bookingSpecs, specification.ForUpdate{})
	}
	bookings, err := uow.SpaceBookingRepository().FindAll(ctx, bookingSpecs...)
	if err != nil {
		return nil, err
	}

	return &entity.ApplicationAggregate{
		Application:           app,
		Assessments:           assessments,
		PlacementApplications: placementApplications,
		PlacementRequests:     placementRequests,
		SpaceBookings:         bookings,
	}, nil
}

// persistOutcome writes every change of the outcome. Booking cancellations re-check the
// blocking condition in the UPDATE itself.
func persistOutcome(ctx context.Context, uow unitofwork.UnitOfWork, agg *entity.ApplicationAggregate, outcome *withdrawal.Outcome, userId uuid.UUID, now time.Time) error {
	for _, change := range outcome.Changes {
		var trigger *contract.Trigger
		if change.Node != outcome.Target {
			trigger = &contract.Trigger{Type: string(change.TriggeredBy.Type), Id: change.TriggeredBy.Id}
		}

		var err error
		switch change.Node.Type {
		case withdrawal.NodeApplication:
			err = uow.ApplicationRepository().Withdraw(ctx, agg.Application)
		case withdrawal.NodePlacementApplication:
			err = uow.PlacementApplicationRepository().Withdraw(ctx, change.Node.Id, entity.PlacementWithdrawalReason(change.Reason), now, trigger)
		case withdrawal.NodePlacementRequest:
			err = uow.PlacementRequestRepository().Withdraw(ctx, change.Node.Id, entity.PlacementWithdrawalReason(change.Reason), now, trigger)
		case withdrawal.NodeSpaceBooking:
			cancelledBy := userId
			err = uow.SpaceBookingRepository().Cancel(ctx, change.Node.Id, change.Reason, now, &cancelledBy)
			if errors.Is(err, contract.ErrStaleRow) {
				return fmt.Errorf("%w: space booking %s changed before it could be cancelled", withdrawal.ErrBlocked, change.Node.Id)
			}
		}
		if errors.Is(err, contract.ErrStaleRow) {
			return fmt.Errorf("%w: %s %s", ErrInvalidState, change.Node.Type, change.Node.Id)
		}
		if err != nil {
			return err
		}
	}

	if outcome.AssessmentWithdrawn != nil {
		if err := uow.AssessmentRepository().Withdraw(ctx, *outcome.AssessmentWithdrawn, now); err != nil {
			return err
		}
	}
	if outcome.ApplicationStatusChanged && outcome.Target.Type != withdrawal.NodeApplication {
		if err := uow.ApplicationRepository().UpdateStatus(ctx, agg.Application.Id, outcome.ApplicationStatus, now); err != nil {
			return err
		}
	}
	return nil
}

func outboxRows(applicationId uuid.UUID, outcome *withdrawal.Outcome, now time.Time) []*entity.EmailNotification {
	rows := make([]*entity.EmailNotification, 0, len(outcome.Notifications))
	for _, intent := range outcome.Notifications {
		rows = append(rows, &entity.EmailNotification{
			Id:              uuid.New(),
			ApplicationId:   applicationId,
			TemplateId:      string(intent.Template),
			Recipient:       intent.Recipient,
			RecipientUserId: intent.RecipientUserId,
			EntityType:      string(intent.About.Type),
			EntityId:        intent.About.Id,
			Personalisation: intent.Personalisation,
			Status:          entity.EmailStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return rows
}

// dispatchEmails hands committed outbox rows to the email dispatcher. A failure here leaves
// the row pending; the dispatcher picks it up again on start-up.
func (s *withdrawalService) dispatchEmails(ctx context.Context, emails []*entity.EmailNotification) {
	for _, email := range emails {
		payload, err := json.Marshal(dto.EmailDispatchMessage{EmailNotificationId: email.Id})
		if err == nil {
			err = s.emailPublisher.Publish(ctx, payload)
		}
		if err != nil {
			s.logger.Error(withdrawalModule, "Failed to queue email", map[string]interface{}{
				"email_notification_id": email.Id.String(),
				"error":                 err,
			})
		}
	}
}

var eventTypes = map[withdrawal.NodeType]string{
	withdrawal.NodeApplication:          events.ApplicationWithdrawn,
	withdrawal.NodePlacementApplication: events.PlacementApplicationWithdrawn,
	withdrawal.NodePlacementRequest:     events.PlacementRequestWithdrawn,
	withdrawal.NodeSpaceBooking:         events.SpaceBookingCancelled,
}

func (s *withdrawalService) publishEvents(ctx context.Context, app *entity.Application, outcome *withdrawal.Outcome, userId uuid.UUID, now time.Time) {
	if s.eventPublisher == nil {
		return
	}
	actor := userId
	for _, change := range outcome.Changes {
		event := events.WithdrawalEvent{
			Type:            eventTypes[change.Node.Type],
			ApplicationId:   app.Id,
			Crn:             app.Crn,
			EntityType:      string(change.Node.Type),
			EntityId:        change.Node.Id,
			Reason:          change.Reason,
			ApplicantId:     app.CreatedByUserId,
			ActorId:         &actor,
			TriggeredByType: string(change.TriggeredBy.Type),
			TriggeredById:   change.TriggeredBy.Id,
			OccurredAt:      now,
		}
		if err := s.eventPublisher.Publish(ctx, event.ToEvent()); err != nil {
			s.logger.Error(withdrawalModule, "Failed to publish event", map[string]interface{}{
				"type":      event.Type,
				"entity_id": change.Node.Id.String(),
				"error":     err,
			})
		}
	}
}

func toWithdrawalResponse(outcome *withdrawal.Outcome, now time.Time) *dto.WithdrawalResponse {
	res := &dto.WithdrawalResponse{
		Id:                outcome.Target.Id,
		Type:              string(outcome.Target.Type),
		Withdrawn:         []dto.WithdrawnNodeResponse{},
		Cancelled:         []uuid.UUID{},
		ApplicationStatus: string(outcome.ApplicationStatus),
		WithdrawnAt:       now,
	}
	for _, change := range outcome.Changes {
		if change.Node.Type == withdrawal.NodeSpaceBooking {
			res.Cancelled = append(res.Cancelled, change.Node.Id)
			continue
		}
		res.Withdrawn = append(res.Withdrawn, dto.WithdrawnNodeResponse{
			Id:     change.Node.Id,
			Type:   string(change.Node.Type),
			Reason: change.Reason,
		})
	}
	return res
}
