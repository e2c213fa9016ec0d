package unitofwork

import (
	"context"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	PremisesRepository() contract.PremisesRepository
	ApplicationRepository() contract.ApplicationRepository
	AssessmentRepository() contract.AssessmentRepository
	PlacementApplicationRepository() contract.PlacementApplicationRepository
	PlacementRequestRepository() contract.PlacementRequestRepository
	SpaceBookingRepository() contract.SpaceBookingRepository
	EmailNotificationRepository() contract.EmailNotificationRepository
	NotificationRepository() contract.NotificationRepository
}
