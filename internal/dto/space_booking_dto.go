package dto

import (
	"time"

	"github.com/google/uuid"
)

type RecordArrivalRequest struct {
	ArrivedAt *time.Time `json:"arrivedAt"`
}

type RecordNonArrivalRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type SpaceBookingResponse struct {
	Id                     uuid.UUID  `json:"id"`
	ApplicationId          uuid.UUID  `json:"applicationId"`
	PlacementRequestId     *uuid.UUID `json:"placementRequestId,omitempty"`
	PremisesId             uuid.UUID  `json:"premisesId"`
	ExpectedArrivalDate    string     `json:"expectedArrivalDate"`
	ExpectedDepartureDate  string     `json:"expectedDepartureDate"`
	ActualArrivalAt        *time.Time `json:"actualArrivalAt,omitempty"`
	NonArrivalConfirmedAt  *time.Time `json:"nonArrivalConfirmedAt,omitempty"`
	NonArrivalReason       *string    `json:"nonArrivalReason,omitempty"`
	CancellationOccurredAt *time.Time `json:"cancellationOccurredAt,omitempty"`
	CancellationReason     *string    `json:"cancellationReason,omitempty"`
}
