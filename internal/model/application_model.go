package model

import (
	"time"

	"github.com/google/uuid"
)

type Application struct {
	Id                     uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Crn                    string             `gorm:"type:varchar(20);not null;index"`
	CreatedByUserId        uuid.UUID          `gorm:"type:uuid;not null;index"`
	CreatedByUser          *User              `gorm:"foreignKey:CreatedByUserId"`
	CaseManagerIsApplicant bool               `gorm:"default:true"`
	CaseManagerName        *string            `gorm:"type:varchar(255)"`
	CaseManagerEmail       *string            `gorm:"type:varchar(255)"`
	CruManagementAreaId    *uuid.UUID         `gorm:"type:uuid;index"`
	CruManagementArea      *CruManagementArea `gorm:"foreignKey:CruManagementAreaId"`
	Status                 string             `gorm:"type:varchar(50);not null;default:'STARTED';index"`
	ArrivalDate            *time.Time         `gorm:"type:date"`
	Duration               *int
	IsWithdrawn            bool    `gorm:"default:false"`
	WithdrawalReason       *string `gorm:"type:varchar(50)"`
	OtherWithdrawalReason  *string `gorm:"type:text"`
	WithdrawnAt            *time.Time
	SubmittedAt            *time.Time
	CreatedAt              time.Time `gorm:"autoCreateTime"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime"`
}

func (Application) TableName() string {
	return "applications"
}

type Assessment struct {
	Id                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ApplicationId     uuid.UUID  `gorm:"type:uuid;not null;index"`
	AllocatedToUserId *uuid.UUID `gorm:"type:uuid;index"`
	AllocatedToUser   *User      `gorm:"foreignKey:AllocatedToUserId"`
	Decision          *string    `gorm:"type:varchar(20)"`
	SubmittedAt       *time.Time
	ReallocatedAt     *time.Time
	IsWithdrawn       bool      `gorm:"default:false"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (Assessment) TableName() string {
	return "assessments"
}
