package contract

import (
	"context"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/specification"

	"github.com/google/uuid"
)

// Trigger records which operation caused a cascaded withdrawal.
type Trigger struct {
	Type string
	Id   uuid.UUID
}

type PlacementApplicationRepository interface {
	Create(ctx context.Context, pa *entity.PlacementApplication) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PlacementApplication, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PlacementApplication, error)
	// Withdraw only touches a row that is not yet withdrawn.
	Withdraw(ctx context.Context, id uuid.UUID, reason entity.PlacementWithdrawalReason, at time.Time, trigger *Trigger) error
}

type PlacementRequestRepository interface {
	Create(ctx context.Context, pr *entity.PlacementRequest) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PlacementRequest, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PlacementRequest, error)
	Withdraw(ctx context.Context, id uuid.UUID, reason entity.PlacementWithdrawalReason, at time.Time, trigger *Trigger) error
}

type SpaceBookingRepository interface {
	Create(ctx context.Context, booking *entity.SpaceBooking) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SpaceBooking, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SpaceBooking, error)

	// The following updates apply only while the booking has no cancellation, arrival or
	// non-arrival. They return ErrStaleRow otherwise.
	Cancel(ctx context.Context, id uuid.UUID, reason string, at time.Time, cancelledBy *uuid.UUID) error
	RecordArrival(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordNonArrival(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
}
