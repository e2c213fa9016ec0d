package model

import (
	"time"

	"github.com/google/uuid"
)

type CruManagementArea struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"type:varchar(255);not null"`
	EmailAddress string    `gorm:"type:varchar(255)"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (CruManagementArea) TableName() string {
	return "cru_management_areas"
}

type Premises struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"type:varchar(255);not null"`
	ApCode       string    `gorm:"type:varchar(20);uniqueIndex"`
	EmailAddress string    `gorm:"type:varchar(255)"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (Premises) TableName() string {
	return "premises"
}
