package dto

import (
	"time"

	"github.com/google/uuid"
)

type WithdrawApplicationRequest struct {
	Reason      string  `json:"reason" validate:"required,oneof=change_of_circumstances change_of_release_date death error_in_application duplicate_application other"`
	OtherReason *string `json:"otherReason" validate:"required_if=Reason other,omitempty,min=1,max=2000"`
}

// WithdrawPlacementRequest is the body for both placement application and placement request
// withdrawals. The RELATED_* reasons are reserved for cascades.
type WithdrawPlacementRequest struct {
	Reason string `json:"reason" validate:"required,oneof=DUPLICATE_PLACEMENT_REQUEST ALTERNATIVE_PROVISION_IDENTIFIED CHANGE_IN_CIRCUMSTANCES CHANGE_IN_RELEASE_DECISION NO_CAPACITY_DUE_TO_LOST_BED NO_CAPACITY_DUE_TO_PLACEMENT_PRIORITISATION NO_CAPACITY ERROR_IN_PLACEMENT_REQUEST WITHDRAWN_BY_PP"`
}

type WithdrawSpaceBookingRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type DatePeriodResponse struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type WithdrawableResponse struct {
	Id          uuid.UUID            `json:"id"`
	Type        string               `json:"type"`
	DatePeriods []DatePeriodResponse `json:"datePeriods"`
}

type WithdrawablesResponse struct {
	Notes         []string               `json:"notes"`
	Withdrawables []WithdrawableResponse `json:"withdrawables"`
}

type WithdrawnNodeResponse struct {
	Id     uuid.UUID `json:"id"`
	Type   string    `json:"type"`
	Reason string    `json:"reason"`
}

type WithdrawalResponse struct {
	Id                uuid.UUID               `json:"id"`
	Type              string                  `json:"type"`
	Withdrawn         []WithdrawnNodeResponse `json:"withdrawn"`
	Cancelled         []uuid.UUID             `json:"cancelled"`
	ApplicationStatus string                  `json:"applicationStatus"`
	WithdrawnAt       time.Time               `json:"withdrawnAt"`
}

// EmailDispatchMessage is the watermill payload handing an outbox row to the dispatcher.
type EmailDispatchMessage struct {
	EmailNotificationId uuid.UUID `json:"emailNotificationId"`
}
