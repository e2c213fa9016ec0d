// FILE: internal/entity/premises_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

// CruManagementArea is the Central Referral Unit responsible for matching an application.
type CruManagementArea struct {
	Id           uuid.UUID
	Name         string
	EmailAddress string
	CreatedAt    time.Time
}

type Premises struct {
	Id           uuid.UUID
	Name         string
	ApCode       string
	EmailAddress string
	CreatedAt    time.Time
}
