package implementation

import (
	"context"
	"errors"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/mapper"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/model"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/contract"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ApplicationMapper
}

func NewApplicationRepository(db *gorm.DB) contract.ApplicationRepository {
	return &ApplicationRepositoryImpl{
		db:     db,
		mapper: mapper.NewApplicationMapper(),
	}
}

func (r *ApplicationRepositoryImpl) Create(ctx context.Context, application *entity.Application) error {
	m := r.mapper.ToModel(application)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*application = *r.mapper.ToEntity(m)
	return nil
}

func (r *ApplicationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Application, error) {
	var m model.Application
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ApplicationRepositoryImpl) Withdraw(ctx context.Context, application *entity.Application) error {
	var reason *string
	if application.WithdrawalReason != nil {
		s := string(*application.WithdrawalReason)
		reason = &s
	}
	result := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ? AND is_withdrawn = ?", application.Id, false).
		Updates(map[string]interface{}{
			"is_withdrawn":            true,
			"withdrawal_reason":       reason,
			"other_withdrawal_reason": application.OtherWithdrawalReason,
			"withdrawn_at":            application.WithdrawnAt,
			"status":                  string(application.Status),
			"updated_at":              application.UpdatedAt,
		})
	return guarded(result)
}

func (r *ApplicationRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ApplicationStatus, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": at,
		})
	return guarded(result)
}

type AssessmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ApplicationMapper
}

func NewAssessmentRepository(db *gorm.DB) contract.AssessmentRepository {
	return &AssessmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewApplicationMapper(),
	}
}

func (r *AssessmentRepositoryImpl) Create(ctx context.Context, assessment *entity.Assessment) error {
	m := r.mapper.AssessmentToModel(assessment)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*assessment = *r.mapper.AssessmentToEntity(m)
	return nil
}

func (r *AssessmentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Assessment, error) {
	var models []*model.Assessment
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.AssessmentsToEntities(models), nil
}

func (r *AssessmentRepositoryImpl) Withdraw(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Assessment{}).
		Where("id = ? AND is_withdrawn = ? AND submitted_at IS NULL", id, false).
		Updates(map[string]interface{}{
			"is_withdrawn": true,
			"updated_at":   at,
		})
	return guarded(result)
}
