// FILE: internal/entity/user_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleApplicant       UserRole = "CAS1_APPLICANT"
	UserRoleAssessor        UserRole = "CAS1_ASSESSOR"
	UserRoleCruMember       UserRole = "CAS1_CRU_MEMBER"
	UserRoleWorkflowManager UserRole = "CAS1_WORKFLOW_MANAGER"
)

type User struct {
	Id             uuid.UUID
	DeliusUsername string
	Name           string
	Email          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RequestingUser identifies the caller of an operation, as resolved from the bearer token.
type RequestingUser struct {
	Id    uuid.UUID
	Roles []UserRole
}

func (u RequestingUser) HasRole(role UserRole) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
