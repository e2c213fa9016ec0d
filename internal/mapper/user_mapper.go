package mapper

import (
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:             u.Id,
		DeliusUsername: u.DeliusUsername,
		Name:           u.Name,
		Email:          u.Email,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:             u.Id,
		DeliusUsername: u.DeliusUsername,
		Name:           u.Name,
		Email:          u.Email,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (m *UserMapper) ToEntities(users []*model.User) []*entity.User {
	entities := make([]*entity.User, len(users))
	for i, u := range users {
		entities[i] = m.ToEntity(u)
	}
	return entities
}

func (m *UserMapper) PremisesToEntity(p *model.Premises) *entity.Premises {
	if p == nil {
		return nil
	}
	return &entity.Premises{
		Id:           p.Id,
		Name:         p.Name,
		ApCode:       p.ApCode,
		EmailAddress: p.EmailAddress,
		CreatedAt:    p.CreatedAt,
	}
}

func (m *UserMapper) PremisesToModel(p *entity.Premises) *model.Premises {
	if p == nil {
		return nil
	}
	return &model.Premises{
		Id:           p.Id,
		Name:         p.Name,
		ApCode:       p.ApCode,
		EmailAddress: p.EmailAddress,
		CreatedAt:    p.CreatedAt,
	}
}

func (m *UserMapper) CruManagementAreaToEntity(a *model.CruManagementArea) *entity.CruManagementArea {
	if a == nil {
		return nil
	}
	return &entity.CruManagementArea{
		Id:           a.Id,
		Name:         a.Name,
		EmailAddress: a.EmailAddress,
		CreatedAt:    a.CreatedAt,
	}
}

func (m *UserMapper) CruManagementAreaToModel(a *entity.CruManagementArea) *model.CruManagementArea {
	if a == nil {
		return nil
	}
	return &model.CruManagementArea{
		Id:           a.Id,
		Name:         a.Name,
		EmailAddress: a.EmailAddress,
		CreatedAt:    a.CreatedAt,
	}
}
