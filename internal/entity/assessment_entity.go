// FILE: internal/entity/assessment_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type AssessmentDecision string

const (
	AssessmentDecisionNone     AssessmentDecision = ""
	AssessmentDecisionAccepted AssessmentDecision = "ACCEPTED"
	AssessmentDecisionRejected AssessmentDecision = "REJECTED"
)

type Assessment struct {
	Id                uuid.UUID
	ApplicationId     uuid.UUID
	AllocatedToUserId *uuid.UUID
	AllocatedTo       *User
	Decision          AssessmentDecision
	SubmittedAt       *time.Time
	ReallocatedAt     *time.Time
	IsWithdrawn       bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsPending reports whether the assessment is still awaiting a decision.
func (a *Assessment) IsPending() bool {
	return a.SubmittedAt == nil && a.ReallocatedAt == nil && !a.IsWithdrawn
}
