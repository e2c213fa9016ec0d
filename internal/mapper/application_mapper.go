package mapper

import (
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/model"
)

type ApplicationMapper struct {
	users *UserMapper
}

func NewApplicationMapper() *ApplicationMapper {
	return &ApplicationMapper{users: NewUserMapper()}
}

func (m *ApplicationMapper) ToEntity(a *model.Application) *entity.Application {
	if a == nil {
		return nil
	}
	e := &entity.Application{
		Id:                     a.Id,
		Crn:                    a.Crn,
		CreatedByUserId:        a.CreatedByUserId,
		CreatedBy:              m.users.ToEntity(a.CreatedByUser),
		CaseManagerIsApplicant: a.CaseManagerIsApplicant,
		CruManagementAreaId:    a.CruManagementAreaId,
		CruManagementArea:      m.users.CruManagementAreaToEntity(a.CruManagementArea),
		Status:                 entity.ApplicationStatus(a.Status),
		ArrivalDate:            a.ArrivalDate,
		Duration:               a.Duration,
		IsWithdrawn:            a.IsWithdrawn,
		OtherWithdrawalReason:  a.OtherWithdrawalReason,
		WithdrawnAt:            a.WithdrawnAt,
		SubmittedAt:            a.SubmittedAt,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
	}
	if a.WithdrawalReason != nil {
		r := entity.ApplicationWithdrawalReason(*a.WithdrawalReason)
		e.WithdrawalReason = &r
	}
	if a.CaseManagerName != nil || a.CaseManagerEmail != nil {
		cm := &entity.CaseManager{}
		if a.CaseManagerName != nil {
			cm.Name = *a.CaseManagerName
		}
		if a.CaseManagerEmail != nil {
			cm.Email = *a.CaseManagerEmail
		}
		e.CaseManager = cm
	}
	return e
}

func (m *ApplicationMapper) ToModel(a *entity.Application) *model.Application {
	if a == nil {
		return nil
	}
	mdl := &model.Application{
		Id:                     a.Id,
		Crn:                    a.Crn,
		CreatedByUserId:        a.CreatedByUserId,
		CaseManagerIsApplicant: a.CaseManagerIsApplicant,
		CruManagementAreaId:    a.CruManagementAreaId,
		Status:                 string(a.Status),
		ArrivalDate:            a.ArrivalDate,
		Duration:               a.Duration,
		IsWithdrawn:            a.IsWithdrawn,
		OtherWithdrawalReason:  a.OtherWithdrawalReason,
		WithdrawnAt:            a.WithdrawnAt,
		SubmittedAt:            a.SubmittedAt,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
	}
	if a.WithdrawalReason != nil {
		r := string(*a.WithdrawalReason)
		mdl.WithdrawalReason = &r
	}
	if a.CaseManager != nil {
		name, email := a.CaseManager.Name, a.CaseManager.Email
		mdl.CaseManagerName = &name
		mdl.CaseManagerEmail = &email
	}
	return mdl
}

func (m *ApplicationMapper) AssessmentToEntity(a *model.Assessment) *entity.Assessment {
	if a == nil {
		return nil
	}
	e := &entity.Assessment{
		Id:                a.Id,
		ApplicationId:     a.ApplicationId,
		AllocatedToUserId: a.AllocatedToUserId,
		AllocatedTo:       m.users.ToEntity(a.AllocatedToUser),
		SubmittedAt:       a.SubmittedAt,
		ReallocatedAt:     a.ReallocatedAt,
		IsWithdrawn:       a.IsWithdrawn,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if a.Decision != nil {
		e.Decision = entity.AssessmentDecision(*a.Decision)
	}
	return e
}

func (m *ApplicationMapper) AssessmentToModel(a *entity.Assessment) *model.Assessment {
	if a == nil {
		return nil
	}
	mdl := &model.Assessment{
		Id:                a.Id,
		ApplicationId:     a.ApplicationId,
		AllocatedToUserId: a.AllocatedToUserId,
		SubmittedAt:       a.SubmittedAt,
		ReallocatedAt:     a.ReallocatedAt,
		IsWithdrawn:       a.IsWithdrawn,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if a.Decision != entity.AssessmentDecisionNone {
		d := string(a.Decision)
		mdl.Decision = &d
	}
	return mdl
}

func (m *ApplicationMapper) AssessmentsToEntities(assessments []*model.Assessment) []*entity.Assessment {
	entities := make([]*entity.Assessment, len(assessments))
	for i, a := range assessments {
		entities[i] = m.AssessmentToEntity(a)
	}
	return entities
}
