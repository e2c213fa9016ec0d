package contract

import (
	"context"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/specification"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
}

type PremisesRepository interface {
	Create(ctx context.Context, premises *entity.Premises) error
	CreateCruManagementArea(ctx context.Context, area *entity.CruManagementArea) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Premises, error)
}
