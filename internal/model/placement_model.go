package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PlacementApplication struct {
	Id                      uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ApplicationId           uuid.UUID      `gorm:"type:uuid;not null;index"`
	CreatedByUserId         uuid.UUID      `gorm:"type:uuid;not null"`
	CreatedByUser           *User          `gorm:"foreignKey:CreatedByUserId"`
	Dates                   datatypes.JSON `gorm:"type:jsonb"`
	Decision                *string        `gorm:"type:varchar(20)"`
	SubmittedAt             *time.Time
	ReallocatedAt           *time.Time
	Automatic               bool    `gorm:"default:false"`
	IsWithdrawn             bool    `gorm:"default:false"`
	WithdrawalReason        *string `gorm:"type:varchar(60)"`
	WithdrawnAt             *time.Time
	WithdrawalTriggeredBy   *string    `gorm:"type:varchar(30)"`
	WithdrawalTriggeredById *uuid.UUID `gorm:"type:uuid"`
	CreatedAt               time.Time  `gorm:"autoCreateTime"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime"`
}

func (PlacementApplication) TableName() string {
	return "placement_applications"
}

type PlacementRequest struct {
	Id                      uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ApplicationId           uuid.UUID  `gorm:"type:uuid;not null;index"`
	AssessmentId            uuid.UUID  `gorm:"type:uuid;not null"`
	PlacementApplicationId  *uuid.UUID `gorm:"type:uuid;index"`
	ExpectedArrival         time.Time  `gorm:"type:date;not null"`
	Duration                int        `gorm:"not null"`
	ReallocatedAt           *time.Time
	BookingNotMadeAt        *time.Time
	IsWithdrawn             bool    `gorm:"default:false"`
	WithdrawalReason        *string `gorm:"type:varchar(60)"`
	WithdrawnAt             *time.Time
	WithdrawalTriggeredBy   *string    `gorm:"type:varchar(30)"`
	WithdrawalTriggeredById *uuid.UUID `gorm:"type:uuid"`
	CreatedAt               time.Time  `gorm:"autoCreateTime"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime"`
}

func (PlacementRequest) TableName() string {
	return "placement_requests"
}

type SpaceBooking struct {
	Id                     uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ApplicationId          uuid.UUID  `gorm:"type:uuid;not null;index"`
	PlacementRequestId     *uuid.UUID `gorm:"type:uuid;index"`
	PremisesId             uuid.UUID  `gorm:"type:uuid;not null;index"`
	Premises               *Premises  `gorm:"foreignKey:PremisesId"`
	ExpectedArrivalDate    time.Time  `gorm:"type:date;not null"`
	ExpectedDepartureDate  time.Time  `gorm:"type:date;not null"`
	ActualArrivalAt        *time.Time
	NonArrivalConfirmedAt  *time.Time
	NonArrivalReason       *string `gorm:"type:text"`
	CancellationOccurredAt *time.Time
	CancellationRecordedAt *time.Time
	CancellationReason     *string    `gorm:"type:text"`
	CancelledByUserId      *uuid.UUID `gorm:"type:uuid"`
	CreatedAt              time.Time  `gorm:"autoCreateTime"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime"`
}

func (SpaceBooking) TableName() string {
	return "space_bookings"
}
