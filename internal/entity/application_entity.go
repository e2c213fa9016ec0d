// FILE: internal/entity/application_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationStatusStarted                 ApplicationStatus = "STARTED"
	ApplicationStatusAwaitingAssessment      ApplicationStatus = "AWAITING_ASSESSMENT"
	ApplicationStatusUnallocatedAssessment   ApplicationStatus = "UNALLOCATED_ASSESSMENT"
	ApplicationStatusAssessmentInProgress    ApplicationStatus = "ASSESSMENT_IN_PROGRESS"
	ApplicationStatusAwaitingPlacement       ApplicationStatus = "AWAITING_PLACEMENT"
	ApplicationStatusPlacementAllocated      ApplicationStatus = "PLACEMENT_ALLOCATED"
	ApplicationStatusPendingPlacementRequest ApplicationStatus = "PENDING_PLACEMENT_REQUEST"
	ApplicationStatusRejected                ApplicationStatus = "REJECTED"
	ApplicationStatusExpired                 ApplicationStatus = "EXPIRED"
	ApplicationStatusWithdrawn               ApplicationStatus = "WITHDRAWN"
)

// ApplicationWithdrawalReason is the reason given by the applicant when withdrawing.
type ApplicationWithdrawalReason string

const (
	ApplicationWithdrawalChangeOfCircumstances ApplicationWithdrawalReason = "change_of_circumstances"
	ApplicationWithdrawalChangeOfReleaseDate   ApplicationWithdrawalReason = "change_of_release_date"
	ApplicationWithdrawalDeath                 ApplicationWithdrawalReason = "death"
	ApplicationWithdrawalErrorInApplication    ApplicationWithdrawalReason = "error_in_application"
	ApplicationWithdrawalDuplicateApplication  ApplicationWithdrawalReason = "duplicate_application"
	ApplicationWithdrawalOther                 ApplicationWithdrawalReason = "other"
)

// CaseManager is recorded on the application when the person managing the case is not the applicant.
type CaseManager struct {
	Name  string
	Email string
}

type Application struct {
	Id                     uuid.UUID
	Crn                    string
	CreatedByUserId        uuid.UUID
	CreatedBy              *User
	CaseManagerIsApplicant bool
	CaseManager            *CaseManager
	CruManagementAreaId    *uuid.UUID
	CruManagementArea      *CruManagementArea
	Status                 ApplicationStatus
	ArrivalDate            *time.Time
	Duration               *int
	IsWithdrawn            bool
	WithdrawalReason       *ApplicationWithdrawalReason
	OtherWithdrawalReason  *string
	WithdrawnAt            *time.Time
	SubmittedAt            *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// ApplicationAggregate is an application together with every node of its request-for-placement tree.
type ApplicationAggregate struct {
	Application           *Application
	Assessments           []*Assessment
	PlacementApplications []*PlacementApplication
	PlacementRequests     []*PlacementRequest
	SpaceBookings         []*SpaceBooking
}

// CurrentAssessment returns the assessment that has not been reallocated, or nil.
func (a *ApplicationAggregate) CurrentAssessment() *Assessment {
	for _, assessment := range a.Assessments {
		if assessment.ReallocatedAt == nil {
			return assessment
		}
	}
	return nil
}

func (a *ApplicationAggregate) FindAssessment(id uuid.UUID) *Assessment {
	for _, assessment := range a.Assessments {
		if assessment.Id == id {
			return assessment
		}
	}
	return nil
}

func (a *ApplicationAggregate) FindPlacementApplication(id uuid.UUID) *PlacementApplication {
	for _, pa := range a.PlacementApplications {
		if pa.Id == id {
			return pa
		}
	}
	return nil
}

func (a *ApplicationAggregate) FindPlacementRequest(id uuid.UUID) *PlacementRequest {
	for _, pr := range a.PlacementRequests {
		if pr.Id == id {
			return pr
		}
	}
	return nil
}

func (a *ApplicationAggregate) FindSpaceBooking(id uuid.UUID) *SpaceBooking {
	for _, b := range a.SpaceBookings {
		if b.Id == id {
			return b
		}
	}
	return nil
}
