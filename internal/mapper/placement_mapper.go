package mapper

import (
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/model"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

type datePeriodJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type PlacementMapper struct {
	users *UserMapper
}

func NewPlacementMapper() *PlacementMapper {
	return &PlacementMapper{users: NewUserMapper()}
}

// DatesToJSON encodes periods as [{"start":"2024-01-01","end":"2024-03-01"}].
func (m *PlacementMapper) DatesToJSON(dates []entity.DatePeriod) datatypes.JSON {
	out := make([]datePeriodJSON, len(dates))
	for i, d := range dates {
		out[i] = datePeriodJSON{Start: d.Start.Format(dateLayout), End: d.End.Format(dateLayout)}
	}
	b, _ := json.Marshal(out)
	return datatypes.JSON(b)
}

// DatesFromJSON ignores entries that cannot be parsed.
func (m *PlacementMapper) DatesFromJSON(raw datatypes.JSON) []entity.DatePeriod {
	if len(raw) == 0 {
		return nil
	}
	var in []datePeriodJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil
	}
	dates := make([]entity.DatePeriod, 0, len(in))
	for _, d := range in {
		start, err := time.Parse(dateLayout, d.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(dateLayout, d.End)
		if err != nil {
			continue
		}
		dates = append(dates, entity.DatePeriod{Start: start, End: end})
	}
	return dates
}

func placementReasonToEntity(r *string) *entity.PlacementWithdrawalReason {
	if r == nil {
		return nil
	}
	reason := entity.PlacementWithdrawalReason(*r)
	return &reason
}

func placementReasonToModel(r *entity.PlacementWithdrawalReason) *string {
	if r == nil {
		return nil
	}
	reason := string(*r)
	return &reason
}

func (m *PlacementMapper) PlacementApplicationToEntity(p *model.PlacementApplication) *entity.PlacementApplication {
	if p == nil {
		return nil
	}
	e := &entity.PlacementApplication{
		Id:               p.Id,
		ApplicationId:    p.ApplicationId,
		CreatedByUserId:  p.CreatedByUserId,
		CreatedBy:        m.users.ToEntity(p.CreatedByUser),
		Dates:            m.DatesFromJSON(p.Dates),
		SubmittedAt:      p.SubmittedAt,
		ReallocatedAt:    p.ReallocatedAt,
		Automatic:        p.Automatic,
		IsWithdrawn:      p.IsWithdrawn,
		WithdrawalReason: placementReasonToEntity(p.WithdrawalReason),
		WithdrawnAt:      p.WithdrawnAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.Decision != nil {
		e.Decision = entity.PlacementApplicationDecision(*p.Decision)
	}
	return e
}

func (m *PlacementMapper) PlacementApplicationToModel(p *entity.PlacementApplication) *model.PlacementApplication {
	if p == nil {
		return nil
	}
	mdl := &model.PlacementApplication{
		Id:               p.Id,
		ApplicationId:    p.ApplicationId,
		CreatedByUserId:  p.CreatedByUserId,
		Dates:            m.DatesToJSON(p.Dates),
		SubmittedAt:      p.SubmittedAt,
		ReallocatedAt:    p.ReallocatedAt,
		Automatic:        p.Automatic,
		IsWithdrawn:      p.IsWithdrawn,
		WithdrawalReason: placementReasonToModel(p.WithdrawalReason),
		WithdrawnAt:      p.WithdrawnAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.Decision != entity.PlacementApplicationDecisionNone {
		d := string(p.Decision)
		mdl.Decision = &d
	}
	return mdl
}

func (m *PlacementMapper) PlacementRequestToEntity(p *model.PlacementRequest) *entity.PlacementRequest {
	if p == nil {
		return nil
	}
	return &entity.PlacementRequest{
		Id:                     p.Id,
		ApplicationId:          p.ApplicationId,
		AssessmentId:           p.AssessmentId,
		PlacementApplicationId: p.PlacementApplicationId,
		ExpectedArrival:        p.ExpectedArrival,
		Duration:               p.Duration,
		ReallocatedAt:          p.ReallocatedAt,
		BookingNotMadeAt:       p.BookingNotMadeAt,
		IsWithdrawn:            p.IsWithdrawn,
		WithdrawalReason:       placementReasonToEntity(p.WithdrawalReason),
		WithdrawnAt:            p.WithdrawnAt,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

func (m *PlacementMapper) PlacementRequestToModel(p *entity.PlacementRequest) *model.PlacementRequest {
	if p == nil {
		return nil
	}
	return &model.PlacementRequest{
		Id:                     p.Id,
		ApplicationId:          p.ApplicationId,
		AssessmentId:           p.AssessmentId,
		PlacementApplicationId: p.PlacementApplicationId,
		ExpectedArrival:        p.ExpectedArrival,
		Duration:               p.Duration,
		ReallocatedAt:          p.ReallocatedAt,
		BookingNotMadeAt:       p.BookingNotMadeAt,
		IsWithdrawn:            p.IsWithdrawn,
		WithdrawalReason:       placementReasonToModel(p.WithdrawalReason),
		WithdrawnAt:            p.WithdrawnAt,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

func (m *PlacementMapper) SpaceBookingToEntity(b *model.SpaceBooking) *entity.SpaceBooking {
	if b == nil {
		return nil
	}
	return &entity.SpaceBooking{
		Id:                     b.Id,
		ApplicationId:          b.ApplicationId,
		PlacementRequestId:     b.PlacementRequestId,
		PremisesId:             b.PremisesId,
		Premises:               m.users.PremisesToEntity(b.Premises),
		ExpectedArrivalDate:    b.ExpectedArrivalDate,
		ExpectedDepartureDate:  b.ExpectedDepartureDate,
		ActualArrivalAt:        b.ActualArrivalAt,
		NonArrivalConfirmedAt:  b.NonArrivalConfirmedAt,
		NonArrivalReason:       b.NonArrivalReason,
		CancellationOccurredAt: b.CancellationOccurredAt,
		CancellationRecordedAt: b.CancellationRecordedAt,
		CancellationReason:     b.CancellationReason,
		CreatedAt:              b.CreatedAt,
		UpdatedAt:              b.UpdatedAt,
	}
}

func (m *PlacementMapper) SpaceBookingToModel(b *entity.SpaceBooking) *model.SpaceBooking {
	if b == nil {
		return nil
	}
	return &model.SpaceBooking{
		Id:                     b.Id,
		ApplicationId:          b.ApplicationId,
		PlacementRequestId:     b.PlacementRequestId,
		PremisesId:             b.PremisesId,
		ExpectedArrivalDate:    b.ExpectedArrivalDate,
		ExpectedDepartureDate:  b.ExpectedDepartureDate,
		ActualArrivalAt:        b.ActualArrivalAt,
		NonArrivalConfirmedAt:  b.NonArrivalConfirmedAt,
		NonArrivalReason:       b.NonArrivalReason,
		CancellationOccurredAt: b.CancellationOccurredAt,
		CancellationRecordedAt: b.CancellationRecordedAt,
		CancellationReason:     b.CancellationReason,
		CreatedAt:              b.CreatedAt,
		UpdatedAt:              b.UpdatedAt,
	}
}
