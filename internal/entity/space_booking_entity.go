// FILE: internal/entity/space_booking_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type SpaceBooking struct {
	Id                     uuid.UUID
	ApplicationId          uuid.UUID
	PlacementRequestId     *uuid.UUID
	PremisesId             uuid.UUID
	Premises               *Premises
	ExpectedArrivalDate    time.Time
	ExpectedDepartureDate  time.Time
	ActualArrivalAt        *time.Time
	NonArrivalConfirmedAt  *time.Time
	NonArrivalReason       *string
	CancellationOccurredAt *time.Time
	CancellationRecordedAt *time.Time
	CancellationReason     *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (b *SpaceBooking) IsCancelled() bool {
	return b.CancellationOccurredAt != nil
}

func (b *SpaceBooking) HasArrival() bool {
	return b.ActualArrivalAt != nil
}

func (b *SpaceBooking) HasNonArrival() bool {
	return b.NonArrivalConfirmedAt != nil
}

func (b *SpaceBooking) Period() DatePeriod {
	return DatePeriod{Start: b.ExpectedArrivalDate, End: b.ExpectedDepartureDate}
}
