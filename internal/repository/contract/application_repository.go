package contract

import (
	"context"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/specification"

	"github.com/google/uuid"
)

type ApplicationRepository interface {
	Create(ctx context.Context, application *entity.Application) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Application, error)
	// Withdraw persists the withdrawal fields and status. Returns ErrStaleRow when the
	// application was already withdrawn.
	Withdraw(ctx context.Context, application *entity.Application) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ApplicationStatus, at time.Time) error
}

type AssessmentRepository interface {
	Create(ctx context.Context, assessment *entity.Assessment) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Assessment, error)
	Withdraw(ctx context.Context, id uuid.UUID, at time.Time) error
}
