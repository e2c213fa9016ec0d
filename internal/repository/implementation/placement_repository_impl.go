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

func withdrawalUpdates(reason entity.PlacementWithdrawalReason, at time.Time, trigger *contract.Trigger) map[string]interface{} {
	updates := map[string]interface{}{
		"is_withdrawn":      true,
		"withdrawal_reason": string(reason),
		"withdrawn_at":      at,
		"updated_at":        at,
	}
	if trigger != nil {
		updates["withdrawal_triggered_by"] = trigger.Type
		updates["withdrawal_triggered_by_id"] = trigger.Id
	}
	return updates
}

type PlacementApplicationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PlacementMapper
}

func NewPlacementApplicationRepository(db *gorm.DB) contract.PlacementApplicationRepository {
	return &PlacementApplicationRepositoryImpl{
		db:     db,
		mapper: mapper.NewPlacementMapper(),
	}
}

func (r *PlacementApplicationRepositoryImpl) Create(ctx context.Context, pa *entity.PlacementApplication) error {
	m := r.mapper.PlacementApplicationToModel(pa)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*pa = *r.mapper.PlacementApplicationToEntity(m)
	return nil
}

func (r *PlacementApplicationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PlacementApplication, error) {
	var m model.PlacementApplication
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PlacementApplicationToEntity(&m), nil
}

func (r *PlacementApplicationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PlacementApplication, error) {
	var models []*model.PlacementApplication
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.PlacementApplication, len(models))
	for i, m := range models {
		out[i] = r.mapper.PlacementApplicationToEntity(m)
	}
	return out, nil
}

func (r *PlacementApplicationRepositoryImpl) Withdraw(ctx context.Context, id uuid.UUID, reason entity.PlacementWithdrawalReason, at time.Time, trigger *contract.Trigger) error {
	result := r.db.WithContext(ctx).
		Model(&model.PlacementApplication{}).
		Where("id = ? AND is_withdrawn = ?", id, false).
		Updates(withdrawalUpdates(reason, at, trigger))
	return guarded(result)
}

type PlacementRequestRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PlacementMapper
}

func NewPlacementRequestRepository(db *gorm.DB) contract.PlacementRequestRepository {
	return &PlacementRequestRepositoryImpl{
		db:     db,
		mapper: mapper.NewPlacementMapper(),
	}
}

func (r *PlacementRequestRepositoryImpl) Create(ctx context.Context, pr *entity.PlacementRequest) error {
	m := r.mapper.PlacementRequestToModel(pr)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*pr = *r.mapper.PlacementRequestToEntity(m)
	return nil
}

func (r *PlacementRequestRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PlacementRequest, error) {
	var m model.PlacementRequest
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PlacementRequestToEntity(&m), nil
}

func (r *PlacementRequestRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PlacementRequest, error) {
	var models []*model.PlacementRequest
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.PlacementRequest, len(models))
	for i, m := range models {
		out[i] = r.mapper.PlacementRequestToEntity(m)
	}
	return out, nil
}

func (r *PlacementRequestRepositoryImpl) Withdraw(ctx context.Context, id uuid.UUID, reason entity.PlacementWithdrawalReason, at time.Time, trigger *contract.Trigger) error {
	result := r.db.WithContext(ctx).
		Model(&model.PlacementRequest{}).
		Where("id = ? AND is_withdrawn = ?", id, false).
		Updates(withdrawalUpdates(reason, at, trigger))
	return guarded(result)
}

type SpaceBookingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PlacementMapper
}

func NewSpaceBookingRepository(db *gorm.DB) contract.SpaceBookingRepository {
	return &SpaceBookingRepositoryImpl{
		db:     db,
		mapper: mapper.NewPlacementMapper(),
	}
}

func (r *SpaceBookingRepositoryImpl) Create(ctx context.Context, booking *entity.SpaceBooking) error {
	m := r.mapper.SpaceBookingToModel(booking)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*booking = *r.mapper.SpaceBookingToEntity(m)
	return nil
}

func (r *SpaceBookingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SpaceBooking, error) {
	var m model.SpaceBooking
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SpaceBookingToEntity(&m), nil
}

func (r *SpaceBookingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SpaceBooking, error) {
	var models []*model.SpaceBooking
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.SpaceBooking, len(models))
	for i, m := range models {
		out[i] = r.mapper.SpaceBookingToEntity(m)
	}
	return out, nil
}

func (r *SpaceBookingRepositoryImpl) open(ctx context.Context, id uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.SpaceBooking{}).
		Where("id = ?", id).
		Where("cancellation_occurred_at IS NULL AND actual_arrival_at IS NULL AND non_arrival_confirmed_at IS NULL")
}

func (r *SpaceBookingRepositoryImpl) Cancel(ctx context.Context, id uuid.UUID, reason string, at time.Time, cancelledBy *uuid.UUID) error {
	return guarded(r.open(ctx, id).Updates(map[string]interface{}{
		"cancellation_occurred_at": at,
		"cancellation_recorded_at": at,
		"cancellation_reason":      reason,
		"cancelled_by_user_id":     cancelledBy,
		"updated_at":               at,
	}))
}

func (r *SpaceBookingRepositoryImpl) RecordArrival(ctx context.Context, id uuid.UUID, at time.Time) error {
	return guarded(r.open(ctx, id).Updates(map[string]interface{}{
		"actual_arrival_at": at,
		"updated_at":        at,
	}))
}

func (r *SpaceBookingRepositoryImpl) RecordNonArrival(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	return guarded(r.open(ctx, id).Updates(map[string]interface{}{
		"non_arrival_confirmed_at": at,
		"non_arrival_reason":       reason,
		"updated_at":               at,
	}))
}
