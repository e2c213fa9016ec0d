package withdrawal

import (
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"

	"github.com/google/uuid"
)

var (
	baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	now      = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	agg        *entity.ApplicationAggregate
	assessment *entity.Assessment
	premises   *entity.Premises
	created    time.Time
}

func newFixture() *fixture {
	applicant := &entity.User{Id: uuid.New(), Name: "Applicant", Email: "applicant@example.com"}
	area := &entity.CruManagementArea{Id: uuid.New(), Name: "North East", EmailAddress: "cru-ne@example.com"}
	arrival := baseTime.AddDate(0, 2, 0)
	duration := 84
	submitted := baseTime

	app := &entity.Application{
		Id:                     uuid.New(),
		Crn:                    "X320741",
		CreatedByUserId:        applicant.Id,
		CreatedBy:              applicant,
		CaseManagerIsApplicant: true,
		CruManagementAreaId:    &area.Id,
		CruManagementArea:      area,
		Status:                 entity.ApplicationStatusAwaitingPlacement,
		ArrivalDate:            &arrival,
		Duration:               &duration,
		SubmittedAt:            &submitted,
		CreatedAt:              baseTime,
	}
	assessment := &entity.Assessment{
		Id:            uuid.New(),
		ApplicationId: app.Id,
		Decision:      entity.AssessmentDecisionAccepted,
		SubmittedAt:   &submitted,
		CreatedAt:     baseTime,
	}
	return &fixture{
		agg: &entity.ApplicationAggregate{
			Application: app,
			Assessments: []*entity.Assessment{assessment},
		},
		assessment: assessment,
		premises:   &entity.Premises{Id: uuid.New(), Name: "Hope House", EmailAddress: "hope-house@example.com"},
		created:    baseTime,
	}
}

func (f *fixture) tick() time.Time {
	f.created = f.created.Add(time.Hour)
	return f.created
}

func (f *fixture) withCaseManager(email string) *fixture {
	f.agg.Application.CaseManagerIsApplicant = false
	f.agg.Application.CaseManager = &entity.CaseManager{Name: "Case Manager", Email: email}
	return f
}

func (f *fixture) withPendingAssessment(assessor *entity.User) *fixture {
	f.assessment.SubmittedAt = nil
	f.assessment.Decision = entity.AssessmentDecisionNone
	if assessor != nil {
		f.assessment.AllocatedToUserId = &assessor.Id
		f.assessment.AllocatedTo = assessor
	}
	return f
}

func (f *fixture) placementApplication(mutate ...func(*entity.PlacementApplication)) *entity.PlacementApplication {
	created := f.tick()
	submitted := created
	pa := &entity.PlacementApplication{
		Id:              uuid.New(),
		ApplicationId:   f.agg.Application.Id,
		CreatedByUserId: f.agg.Application.CreatedByUserId,
		Dates:           []entity.DatePeriod{entity.PeriodFromDuration(baseTime.AddDate(0, 4, 0), 28)},
		Decision:        entity.PlacementApplicationDecisionAccepted,
		SubmittedAt:     &submitted,
		CreatedAt:       created,
	}
	for _, m := range mutate {
		m(pa)
	}
	f.agg.PlacementApplications = append(f.agg.PlacementApplications, pa)
	return pa
}

// placementRequest raises a request from pa, or from the application's own dates when pa is nil.
func (f *fixture) placementRequest(pa *entity.PlacementApplication) *entity.PlacementRequest {
	pr := &entity.PlacementRequest{
		Id:              uuid.New(),
		ApplicationId:   f.agg.Application.Id,
		AssessmentId:    f.assessment.Id,
		ExpectedArrival: *f.agg.Application.ArrivalDate,
		Duration:        *f.agg.Application.Duration,
		CreatedAt:       f.tick(),
	}
	if pa != nil {
		id := pa.Id
		pr.PlacementApplicationId = &id
		pr.ExpectedArrival = pa.Dates[0].Start
		pr.Duration = 28
	}
	f.agg.PlacementRequests = append(f.agg.PlacementRequests, pr)
	return pr
}

func (f *fixture) booking(pr *entity.PlacementRequest, mutate ...func(*entity.SpaceBooking)) *entity.SpaceBooking {
	b := &entity.SpaceBooking{
		Id:                    uuid.New(),
		ApplicationId:         f.agg.Application.Id,
		PremisesId:            f.premises.Id,
		Premises:              f.premises,
		ExpectedArrivalDate:   baseTime.AddDate(0, 2, 0),
		ExpectedDepartureDate: baseTime.AddDate(0, 4, 0),
		CreatedAt:             f.tick(),
	}
	if pr != nil {
		id := pr.Id
		b.PlacementRequestId = &id
		b.ExpectedArrivalDate = pr.ExpectedArrival
		b.ExpectedDepartureDate = pr.ExpectedArrival.AddDate(0, 0, pr.Duration)
	}
	for _, m := range mutate {
		m(b)
	}
	f.agg.SpaceBookings = append(f.agg.SpaceBookings, b)
	return b
}

func arrived(b *entity.SpaceBooking) {
	t := baseTime.AddDate(0, 2, 0)
	b.ActualArrivalAt = &t
}

func nonArrived(b *entity.SpaceBooking) {
	t := baseTime.AddDate(0, 2, 1)
	b.NonArrivalConfirmedAt = &t
}

func cancelled(b *entity.SpaceBooking) {
	t := baseTime.AddDate(0, 1, 0)
	reason := "Booking made in error"
	b.CancellationOccurredAt = &t
	b.CancellationReason = &reason
}

func ctx() Context {
	return Context{Now: now, WithdrawnBy: &entity.User{Id: uuid.New(), Name: "Jane Withdrawer"}}
}

type sent struct {
	Recipient string
	Template  Template
}

func sentTo(intents []NotificationIntent) []sent {
	out := make([]sent, 0, len(intents))
	for _, i := range intents {
		out = append(out, sent{Recipient: i.Recipient, Template: i.Template})
	}
	return out
}
