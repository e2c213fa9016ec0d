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

	"github.com/google/uuid"
	"github.com/juju/clock"
)

type ISpaceBookingService interface {
	RecordArrival(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.RecordArrivalRequest) (*dto.SpaceBookingResponse, error)
	RecordNonArrival(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.RecordNonArrivalRequest) (*dto.SpaceBookingResponse, error)
}

type spaceBookingService struct {
	uowFactory     unitofwork.RepositoryFactory
	locker         lock.ILocker
	clock          clock.Clock
	eventPublisher events.Publisher
	logger         logger.ILogger
}

func NewSpaceBookingService(
	uowFactory unitofwork.RepositoryFactory,
	locker lock.ILocker,
	clk clock.Clock,
	eventPublisher events.Publisher,
	log logger.ILogger,
) ISpaceBookingService {
	return &spaceBookingService{
		uowFactory:     uowFactory,
		locker:         locker,
		clock:          clk,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *spaceBookingService) RecordArrival(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.RecordArrivalRequest) (*dto.SpaceBookingResponse, error) {
	return s.record(ctx, id, user, events.SpaceBookingArrivalRecorded, func(repo contract.SpaceBookingRepository, booking *entity.SpaceBooking, now time.Time) error {
		arrivedAt := now
		if req.ArrivedAt != nil {
			arrivedAt = req.ArrivedAt.UTC()
		}
		if err := repo.RecordArrival(ctx, booking.Id, arrivedAt); err != nil {
			return err
		}
		booking.ActualArrivalAt = &arrivedAt
		return nil
	})
}

func (s *spaceBookingService) RecordNonArrival(ctx context.Context, id uuid.UUID, user entity.RequestingUser, req *dto.RecordNonArrivalRequest) (*dto.SpaceBookingResponse, error) {
	return s.record(ctx, id, user, events.SpaceBookingNonArrival, func(repo contract.SpaceBookingRepository, booking *entity.SpaceBooking, now time.Time) error {
		if err := repo.RecordNonArrival(ctx, booking.Id, req.Reason, now); err != nil {
			return err
		}
		reason := req.Reason
		booking.NonArrivalConfirmedAt = &now
		booking.NonArrivalReason = &reason
		return nil
	})
}

type bookingUpdate func(repo contract.SpaceBookingRepository, booking *entity.SpaceBooking, now time.Time) error

// record applies an arrival outcome under the same application lock as withdrawals, so a
// booking cannot be cancelled and marked arrived at the same time.
func (s *spaceBookingService) record(ctx context.Context, id uuid.UUID, user entity.RequestingUser, eventType string, update bookingUpdate) (*dto.SpaceBookingResponse, error) {
	found, err := s.uowFactory.NewUnitOfWork(ctx).SpaceBookingRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrSpaceBookingNotFound
	}

	release, err := s.locker.Acquire(ctx, lock.ApplicationKey(found.ApplicationId))
	if err != nil {
		return nil, err
	}
	defer release()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	repo := uow.SpaceBookingRepository()
	booking, err := repo.FindOne(ctx, specification.ByID{ID: id}, specification.ForUpdate{})
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrSpaceBookingNotFound
	}
	switch {
	case booking.IsCancelled():
		return nil, fmt.Errorf("%w: space booking is cancelled", ErrInvalidState)
	case booking.HasArrival():
		return nil, fmt.Errorf("%w: space booking already has an arrival", ErrInvalidState)
	case booking.HasNonArrival():
		return nil, fmt.Errorf("%w: space booking already has a non-arrival", ErrInvalidState)
	}

	now := s.clock.Now().UTC()
	if err := update(repo, booking, now); err != nil {
		if errors.Is(err, contract.ErrStaleRow) {
			return nil, fmt.Errorf("%w: space booking %s", ErrInvalidState, id)
		}
		return nil, err
	}

	app, err := uow.ApplicationRepository().FindOne(ctx, specification.ByID{ID: booking.ApplicationId})
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("SpaceBookingService", "Arrival outcome recorded", map[string]interface{}{
		"type":             eventType,
		"space_booking_id": id.String(),
		"application_id":   booking.ApplicationId.String(),
		"user_id":          user.Id.String(),
	})
	if app != nil {
		s.publish(ctx, eventType, app, booking, user.Id, now)
	}
	return ToSpaceBookingResponse(booking), nil
}

func (s *spaceBookingService) publish(ctx context.Context, eventType string, app *entity.Application, booking *entity.SpaceBooking, userId uuid.UUID, now time.Time) {
	if s.eventPublisher == nil {
		return
	}
	reason := ""
	if booking.NonArrivalReason != nil {
		reason = *booking.NonArrivalReason
	}
	event := events.WithdrawalEvent{
		Type:            eventType,
		ApplicationId:   app.Id,
		Crn:             app.Crn,
		EntityType:      string(withdrawal.NodeSpaceBooking),
		EntityId:        booking.Id,
		Reason:          reason,
		ApplicantId:     app.CreatedByUserId,
		ActorId:         &userId,
		TriggeredByType: string(withdrawal.NodeSpaceBooking),
		TriggeredById:   booking.Id,
		OccurredAt:      now,
	}
	if err := s.eventPublisher.Publish(ctx, event.ToEvent()); err != nil {
		s.logger.Error("SpaceBookingService", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err,
		})
	}
}

func ToSpaceBookingResponse(b *entity.SpaceBooking) *dto.SpaceBookingResponse {
	return &dto.SpaceBookingResponse{
		Id:                     b.Id,
		ApplicationId:          b.ApplicationId,
		PlacementRequestId:     b.PlacementRequestId,
		PremisesId:             b.PremisesId,
		ExpectedArrivalDate:    b.ExpectedArrivalDate.Format(dateLayout),
		ExpectedDepartureDate:  b.ExpectedDepartureDate.Format(dateLayout),
		ActualArrivalAt:        b.ActualArrivalAt,
		NonArrivalConfirmedAt:  b.NonArrivalConfirmedAt,
		NonArrivalReason:       b.NonArrivalReason,
		CancellationOccurredAt: b.CancellationOccurredAt,
		CancellationReason:     b.CancellationReason,
	}
}
