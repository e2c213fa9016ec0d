package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	ApplicationWithdrawn          = "APPLICATION_WITHDRAWN"
	PlacementApplicationWithdrawn = "PLACEMENT_APPLICATION_WITHDRAWN"
	PlacementRequestWithdrawn     = "PLACEMENT_REQUEST_WITHDRAWN"
	SpaceBookingCancelled         = "SPACE_BOOKING_CANCELLED"
	SpaceBookingArrivalRecorded   = "SPACE_BOOKING_ARRIVAL_RECORDED"
	SpaceBookingNonArrival        = "SPACE_BOOKING_NON_ARRIVAL_RECORDED"
)

// WithdrawalEvent describes one node changed by a withdrawal.
type WithdrawalEvent struct {
	Type            string
	ApplicationId   uuid.UUID
	Crn             string
	EntityType      string
	EntityId        uuid.UUID
	Reason          string
	ApplicantId     uuid.UUID
	ActorId         *uuid.UUID
	TriggeredByType string
	TriggeredById   uuid.UUID
	OccurredAt      time.Time
}

// ToEvent flattens the event into the payload shape carried on the bus. user_id is the
// applicant, who receives the in-app notification.
func (w WithdrawalEvent) ToEvent() BaseEvent {
	data := map[string]interface{}{
		"application_id":  w.ApplicationId.String(),
		"crn":             w.Crn,
		"entity_type":     w.EntityType,
		"entity_id":       w.EntityId.String(),
		"reason":          w.Reason,
		"user_id":         w.ApplicantId.String(),
		"triggered_by":    w.TriggeredByType,
		"triggered_by_id": w.TriggeredById.String(),
	}
	if w.ActorId != nil {
		data["actor_id"] = w.ActorId.String()
	}
	return BaseEvent{Type: w.Type, Data: data, OccurredAt: w.OccurredAt}
}
