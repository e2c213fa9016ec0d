package unitofwork

import (
	"context"
	"fmt"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/contract"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.getDB())
}

func (u *UnitOfWorkImpl) PremisesRepository() contract.PremisesRepository {
	return implementation.NewPremisesRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ApplicationRepository() contract.ApplicationRepository {
	return implementation.NewApplicationRepository(u.getDB())
}

func (u *UnitOfWorkImpl) AssessmentRepository() contract.AssessmentRepository {
	return implementation.NewAssessmentRepository(u.getDB())
}

func (u *UnitOfWorkImpl) PlacementApplicationRepository() contract.PlacementApplicationRepository {
	return implementation.NewPlacementApplicationRepository(u.getDB())
}

func (u *UnitOfWorkImpl) PlacementRequestRepository() contract.PlacementRequestRepository {
	return implementation.NewPlacementRequestRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SpaceBookingRepository() contract.SpaceBookingRepository {
	return implementation.NewSpaceBookingRepository(u.getDB())
}

func (u *UnitOfWorkImpl) EmailNotificationRepository() contract.EmailNotificationRepository {
	return implementation.NewEmailNotificationRepository(u.getDB())
}

func (u *UnitOfWorkImpl) NotificationRepository() contract.NotificationRepository {
	return implementation.NewNotificationRepository(u.getDB())
}
