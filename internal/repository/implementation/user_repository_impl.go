package implementation

import (
	"context"
	"errors"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/mapper"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/model"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/contract"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/specification"

	"gorm.io/gorm"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var modelUser model.User
	query := applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelUser), nil
}

func (r *UserRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	var modelUsers []*model.User
	query := applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&modelUsers).Error; err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(modelUsers), nil
}

type PremisesRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewPremisesRepository(db *gorm.DB) contract.PremisesRepository {
	return &PremisesRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *PremisesRepositoryImpl) Create(ctx context.Context, premises *entity.Premises) error {
	m := r.mapper.PremisesToModel(premises)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*premises = *r.mapper.PremisesToEntity(m)
	return nil
}

func (r *PremisesRepositoryImpl) CreateCruManagementArea(ctx context.Context, area *entity.CruManagementArea) error {
	m := r.mapper.CruManagementAreaToModel(area)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*area = *r.mapper.CruManagementAreaToEntity(m)
	return nil
}

func (r *PremisesRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Premises, error) {
	var m model.Premises
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PremisesToEntity(&m), nil
}
