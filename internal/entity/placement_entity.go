// FILE: internal/entity/placement_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type PlacementApplicationDecision string

const (
	PlacementApplicationDecisionNone     PlacementApplicationDecision = ""
	PlacementApplicationDecisionAccepted PlacementApplicationDecision = "ACCEPTED"
	PlacementApplicationDecisionRejected PlacementApplicationDecision = "REJECTED"
)

// PlacementWithdrawalReason applies to both placement applications and placement requests.
type PlacementWithdrawalReason string

const (
	WithdrawalDuplicatePlacementRequest            PlacementWithdrawalReason = "DUPLICATE_PLACEMENT_REQUEST"
	WithdrawalAlternativeProvisionIdentified       PlacementWithdrawalReason = "ALTERNATIVE_PROVISION_IDENTIFIED"
	WithdrawalChangeInCircumstances                PlacementWithdrawalReason = "CHANGE_IN_CIRCUMSTANCES"
	WithdrawalChangeInReleaseDecision              PlacementWithdrawalReason = "CHANGE_IN_RELEASE_DECISION"
	WithdrawalNoCapacityDueToLostBed               PlacementWithdrawalReason = "NO_CAPACITY_DUE_TO_LOST_BED"
	WithdrawalNoCapacityDueToPlacementPriority     PlacementWithdrawalReason = "NO_CAPACITY_DUE_TO_PLACEMENT_PRIORITISATION"
	WithdrawalNoCapacity                           PlacementWithdrawalReason = "NO_CAPACITY"
	WithdrawalErrorInPlacementRequest              PlacementWithdrawalReason = "ERROR_IN_PLACEMENT_REQUEST"
	WithdrawalWithdrawnByPP                        PlacementWithdrawalReason = "WITHDRAWN_BY_PP"
	WithdrawalRelatedApplicationWithdrawn          PlacementWithdrawalReason = "RELATED_APPLICATION_WITHDRAWN"
	WithdrawalRelatedPlacementRequestWithdrawn     PlacementWithdrawalReason = "RELATED_PLACEMENT_REQUEST_WITHDRAWN"
	WithdrawalRelatedPlacementApplicationWithdrawn PlacementWithdrawalReason = "RELATED_PLACEMENT_APPLICATION_WITHDRAWN"
)

// DatePeriod is an inclusive span of days starting at Start.
type DatePeriod struct {
	Start time.Time
	End   time.Time
}

// PeriodFromDuration builds a DatePeriod from a start date and a length in days.
func PeriodFromDuration(start time.Time, days int) DatePeriod {
	return DatePeriod{Start: start, End: start.AddDate(0, 0, days)}
}

type PlacementApplication struct {
	Id               uuid.UUID
	ApplicationId    uuid.UUID
	CreatedByUserId  uuid.UUID
	CreatedBy        *User
	Dates            []DatePeriod
	Decision         PlacementApplicationDecision
	SubmittedAt      *time.Time
	ReallocatedAt    *time.Time
	Automatic        bool
	IsWithdrawn      bool
	WithdrawalReason *PlacementWithdrawalReason
	WithdrawnAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *PlacementApplication) IsSubmitted() bool {
	return p.SubmittedAt != nil
}

type PlacementRequest struct {
	Id                     uuid.UUID
	ApplicationId          uuid.UUID
	AssessmentId           uuid.UUID
	PlacementApplicationId *uuid.UUID
	ExpectedArrival        time.Time
	Duration               int
	ReallocatedAt          *time.Time
	BookingNotMadeAt       *time.Time
	IsWithdrawn            bool
	WithdrawalReason       *PlacementWithdrawalReason
	WithdrawnAt            *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsForApplicationsArrivalDate reports whether the request was raised from the dates on the
// original application rather than from a placement application.
func (p *PlacementRequest) IsForApplicationsArrivalDate() bool {
	return p.PlacementApplicationId == nil
}

func (p *PlacementRequest) Period() DatePeriod {
	return PeriodFromDuration(p.ExpectedArrival, p.Duration)
}
