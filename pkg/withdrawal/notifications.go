package withdrawal

import (
	"strings"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"

	"github.com/google/uuid"
)

type Template string

const (
	TemplateApplicationWithdrawn      Template = "APPLICATION_WITHDRAWN"
	TemplateAssessmentWithdrawn       Template = "ASSESSMENT_WITHDRAWN"
	TemplatePlacementRequestWithdrawn Template = "PLACEMENT_REQUEST_WITHDRAWN"
	TemplateMatchRequestWithdrawn     Template = "MATCH_REQUEST_WITHDRAWN"
	TemplateBookingWithdrawn          Template = "BOOKING_WITHDRAWN"
)

const dateLayout = "2006-01-02"

// NotificationIntent is a notification to be delivered after the withdrawal has been committed.
type NotificationIntent struct {
	Recipient       string
	RecipientUserId *uuid.UUID
	Template        Template
	About           NodeRef
	Personalisation map[string]string
}

type notifier struct {
	agg     *entity.ApplicationAggregate
	ctx     Context
	seen    map[string]bool
	intents []NotificationIntent
}

func newNotifier(agg *entity.ApplicationAggregate, ctx Context) *notifier {
	return &notifier{agg: agg, ctx: ctx, seen: make(map[string]bool)}
}

func (n *notifier) send(email string, userId *uuid.UUID, template Template, about NodeRef, extra map[string]string) {
	email = strings.TrimSpace(email)
	if email == "" {
		return
	}
	key := string(template) + "|" + about.Id.String() + "|" + strings.ToLower(email)
	if n.seen[key] {
		return
	}
	n.seen[key] = true

	personalisation := n.basePersonalisation()
	for k, v := range extra {
		personalisation[k] = v
	}
	n.intents = append(n.intents, NotificationIntent{
		Recipient:       email,
		RecipientUserId: userId,
		Template:        template,
		About:           about,
		Personalisation: personalisation,
	})
}

func (n *notifier) basePersonalisation() map[string]string {
	app := n.agg.Application
	p := map[string]string{
		"crn":           app.Crn,
		"applicationId": app.Id.String(),
	}
	if n.ctx.WithdrawnBy != nil {
		p["withdrawnBy"] = n.ctx.WithdrawnBy.Name
	}
	return p
}

func (n *notifier) applicant(template Template, about NodeRef, extra map[string]string) {
	if applicant := n.agg.Application.CreatedBy; applicant != nil {
		id := applicant.Id
		n.send(applicant.Email, &id, template, about, extra)
	}
}

// caseManager is skipped when the case manager is the applicant, or shares their address.
func (n *notifier) caseManager(template Template, about NodeRef, extra map[string]string) {
	app := n.agg.Application
	if app.CaseManagerIsApplicant || app.CaseManager == nil {
		return
	}
	if app.CreatedBy != nil && strings.EqualFold(app.CreatedBy.Email, app.CaseManager.Email) {
		return
	}
	n.send(app.CaseManager.Email, nil, template, about, extra)
}

func (n *notifier) cru(template Template, about NodeRef, extra map[string]string) {
	if area := n.agg.Application.CruManagementArea; area != nil {
		n.send(area.EmailAddress, nil, template, about, extra)
	}
}

func (n *notifier) assessor(assessment *entity.Assessment) {
	if assessment.AllocatedTo == nil {
		return
	}
	id := assessment.AllocatedTo.Id
	about := NodeRef{Type: NodeApplication, Id: n.agg.Application.Id}
	n.send(assessment.AllocatedTo.Email, &id, TemplateAssessmentWithdrawn, about, nil)
}

func (n *notifier) applicationWithdrawn(about NodeRef) {
	n.applicant(TemplateApplicationWithdrawn, about, nil)
	n.caseManager(TemplateApplicationWithdrawn, about, nil)
}

func (n *notifier) requestWithdrawn(about NodeRef, dates []entity.DatePeriod) {
	extra := periodPersonalisation(dates)
	n.applicant(TemplatePlacementRequestWithdrawn, about, extra)
	n.caseManager(TemplatePlacementRequestWithdrawn, about, extra)
}

func (n *notifier) matchRequestWithdrawn(about NodeRef, dates []entity.DatePeriod) {
	extra := periodPersonalisation(dates)
	n.applicant(TemplateMatchRequestWithdrawn, about, extra)
	n.cru(TemplateMatchRequestWithdrawn, about, extra)
}

func (n *notifier) bookingWithdrawn(booking *entity.SpaceBooking) {
	about := NodeRef{Type: NodeSpaceBooking, Id: booking.Id}
	extra := map[string]string{
		"arrivalDate":   booking.ExpectedArrivalDate.Format(dateLayout),
		"departureDate": booking.ExpectedDepartureDate.Format(dateLayout),
	}
	if booking.CancellationReason != nil {
		extra["cancellationReason"] = *booking.CancellationReason
	}
	if booking.Premises != nil {
		extra["premisesName"] = booking.Premises.Name
	}

	n.applicant(TemplateBookingWithdrawn, about, extra)
	n.caseManager(TemplateBookingWithdrawn, about, extra)
	if booking.Premises != nil {
		n.send(booking.Premises.EmailAddress, nil, TemplateBookingWithdrawn, about, extra)
	}
	n.cru(TemplateBookingWithdrawn, about, extra)
}

func periodPersonalisation(dates []entity.DatePeriod) map[string]string {
	if len(dates) == 0 {
		return nil
	}
	return map[string]string{
		"startDate": dates[0].Start.Format(dateLayout),
		"endDate":   dates[0].End.Format(dateLayout),
	}
}
