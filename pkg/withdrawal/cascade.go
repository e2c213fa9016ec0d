package withdrawal

import (
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"

	"github.com/google/uuid"
)

const (
	CancellationRelatedApplicationWithdrawn          = "Related application withdrawn"
	CancellationRelatedPlacementApplicationWithdrawn = "Related request for placement withdrawn"
	CancellationRelatedPlacementRequestWithdrawn     = "Related placement request withdrawn"
)

// Context carries what the engine must not look up for itself.
type Context struct {
	Now         time.Time
	WithdrawnBy *entity.User
}

// Change is one node withdrawn (or booking cancelled) by an operation.
type Change struct {
	Node        NodeRef
	Reason      string
	TriggeredBy NodeRef
}

type Outcome struct {
	Target  NodeRef
	Changes []Change

	AssessmentWithdrawn      *uuid.UUID
	ApplicationStatus        entity.ApplicationStatus
	ApplicationStatusChanged bool

	Notifications []NotificationIntent
}

// Cascaded returns the changes made to nodes other than the target.
func (o *Outcome) Cascaded() []Change {
	var out []Change
	for _, c := range o.Changes {
		if c.Node != o.Target {
			out = append(out, c)
		}
	}
	return out
}

// CancelledBookings returns the ids of every booking cancelled by the operation.
func (o *Outcome) CancelledBookings() []uuid.UUID {
	var ids []uuid.UUID
	for _, c := range o.Changes {
		if c.Node.Type == NodeSpaceBooking {
			ids = append(ids, c.Node.Id)
		}
	}
	return ids
}

type cascadeReasons struct {
	placement entity.PlacementWithdrawalReason
	booking   string
}

type executor struct {
	agg      *entity.ApplicationAggregate
	ctx      Context
	tree     *Tree
	outcome  *Outcome
	notifier *notifier
}

func newExecutor(agg *entity.ApplicationAggregate, ctx Context) *executor {
	return &executor{
		agg:      agg,
		ctx:      ctx,
		tree:     BuildTree(agg),
		notifier: newNotifier(agg, ctx),
	}
}

func (e *executor) target(ref NodeRef) (*Node, error) {
	node := e.tree.Find(ref)
	if node == nil {
		return nil, ErrUnknownNode
	}
	switch node.terminal {
	case SkipWithdrawn, SkipCancelled:
		return nil, ErrAlreadyWithdrawn
	case SkipReallocated:
		return nil, ErrReallocated
	}
	if node.subtreeBlocking != BlockingNone {
		return nil, blockedError(node.subtreeBlocking)
	}
	// Same exclusions as the withdrawable surface. The initial request is the one node
	// that may be withdrawn directly without being listed.
	switch {
	case node.assessmentGone:
		return nil, ErrReallocated
	case node.parentInactive:
		return nil, ErrParentInactive
	case !node.listable && node.Ref.Type == NodePlacementApplication:
		return nil, ErrNotSubmitted
	}
	e.outcome = &Outcome{Target: ref, ApplicationStatus: e.agg.Application.Status}
	return node, nil
}

func (e *executor) finish() *Outcome {
	e.outcome.Notifications = e.notifier.intents
	return e.outcome
}

func (e *executor) record(ref NodeRef, reason string) {
	e.outcome.Changes = append(e.outcome.Changes, Change{Node: ref, Reason: reason, TriggeredBy: e.outcome.Target})
}

// cascade withdraws every active descendant of n and reports whether a booking was cancelled.
// A terminal node closes its subtree: nothing below a withdrawn or reallocated node is touched.
func (e *executor) cascade(n *Node, reasons cascadeReasons) bool {
	cancelled := false
	for _, child := range n.Children {
		if child.IsTerminal() {
			continue
		}
		switch child.Ref.Type {
		case NodePlacementApplication:
			e.withdrawPlacementApplication(e.agg.FindPlacementApplication(child.Ref.Id), reasons.placement)
		case NodePlacementRequest:
			e.withdrawPlacementRequest(e.agg.FindPlacementRequest(child.Ref.Id), reasons.placement)
		case NodeSpaceBooking:
			e.cancelBooking(e.agg.FindSpaceBooking(child.Ref.Id), reasons.booking)
			cancelled = true
		}
		if e.cascade(child, reasons) {
			cancelled = true
		}
	}
	return cancelled
}

func (e *executor) withdrawPlacementApplication(pa *entity.PlacementApplication, reason entity.PlacementWithdrawalReason) {
	now := e.ctx.Now
	r := reason
	pa.IsWithdrawn = true
	pa.WithdrawalReason = &r
	pa.WithdrawnAt = &now
	pa.UpdatedAt = now
	e.record(NodeRef{Type: NodePlacementApplication, Id: pa.Id}, string(reason))
}

func (e *executor) withdrawPlacementRequest(pr *entity.PlacementRequest, reason entity.PlacementWithdrawalReason) {
	now := e.ctx.Now
	r := reason
	pr.IsWithdrawn = true
	pr.WithdrawalReason = &r
	pr.WithdrawnAt = &now
	pr.UpdatedAt = now
	e.record(NodeRef{Type: NodePlacementRequest, Id: pr.Id}, string(reason))
}

func (e *executor) cancelBooking(booking *entity.SpaceBooking, reason string) {
	now := e.ctx.Now
	r := reason
	booking.CancellationOccurredAt = &now
	booking.CancellationRecordedAt = &now
	booking.CancellationReason = &r
	booking.UpdatedAt = now
	e.record(NodeRef{Type: NodeSpaceBooking, Id: booking.Id}, reason)
	e.notifier.bookingWithdrawn(booking)
}

func (e *executor) setApplicationStatus(status entity.ApplicationStatus) {
	app := e.agg.Application
	if app.Status == status {
		return
	}
	app.Status = status
	app.UpdatedAt = e.ctx.Now
	e.outcome.ApplicationStatus = status
	e.outcome.ApplicationStatusChanged = true
}

// WithdrawApplication withdraws the application and everything below it. Nothing is changed
// when any booking in the tree has an arrival or non-arrival recorded.
func WithdrawApplication(agg *entity.ApplicationAggregate, reason entity.ApplicationWithdrawalReason, otherReason *string, ctx Context) (*Outcome, error) {
	e := newExecutor(agg, ctx)
	root, err := e.target(NodeRef{Type: NodeApplication, Id: agg.Application.Id})
	if err != nil {
		return nil, err
	}

	now := ctx.Now
	app := agg.Application
	r := reason
	app.IsWithdrawn = true
	app.WithdrawalReason = &r
	app.WithdrawnAt = &now
	if reason == entity.ApplicationWithdrawalOther {
		app.OtherWithdrawalReason = otherReason
	}
	e.record(root.Ref, string(reason))
	e.setApplicationStatus(entity.ApplicationStatusWithdrawn)
	e.notifier.applicationWithdrawn(root.Ref)

	if assessment := agg.CurrentAssessment(); assessment != nil && assessment.IsPending() {
		assessment.IsWithdrawn = true
		assessment.UpdatedAt = now
		id := assessment.Id
		e.outcome.AssessmentWithdrawn = &id
		e.notifier.assessor(assessment)
	}

	e.cascade(root, cascadeReasons{
		placement: entity.WithdrawalRelatedApplicationWithdrawn,
		booking:   CancellationRelatedApplicationWithdrawn,
	})
	return e.finish(), nil
}

// WithdrawPlacementApplication withdraws a request for placement, the placement requests
// raised from it and their bookings. The application is left as it is.
func WithdrawPlacementApplication(agg *entity.ApplicationAggregate, id uuid.UUID, reason entity.PlacementWithdrawalReason, ctx Context) (*Outcome, error) {
	e := newExecutor(agg, ctx)
	node, err := e.target(NodeRef{Type: NodePlacementApplication, Id: id})
	if err != nil {
		return nil, err
	}

	e.withdrawPlacementApplication(agg.FindPlacementApplication(id), reason)
	cancelled := e.cascade(node, cascadeReasons{
		placement: entity.WithdrawalRelatedPlacementApplicationWithdrawn,
		booking:   CancellationRelatedPlacementApplicationWithdrawn,
	})
	if !cancelled {
		e.notifier.requestWithdrawn(node.Ref, node.Dates)
	}
	return e.finish(), nil
}

// WithdrawPlacementRequest withdraws a placement request and cancels its bookings. Withdrawing
// the request raised from the application's own dates puts the application back to
// PENDING_PLACEMENT_REQUEST.
func WithdrawPlacementRequest(agg *entity.ApplicationAggregate, id uuid.UUID, reason entity.PlacementWithdrawalReason, ctx Context) (*Outcome, error) {
	e := newExecutor(agg, ctx)
	node, err := e.target(NodeRef{Type: NodePlacementRequest, Id: id})
	if err != nil {
		return nil, err
	}

	pr := agg.FindPlacementRequest(id)
	e.withdrawPlacementRequest(pr, reason)
	cancelled := e.cascade(node, cascadeReasons{booking: CancellationRelatedPlacementRequestWithdrawn})

	if pr.IsForApplicationsArrivalDate() && !agg.Application.IsWithdrawn {
		e.setApplicationStatus(entity.ApplicationStatusPendingPlacementRequest)
	}

	if !cancelled {
		if pr.IsForApplicationsArrivalDate() {
			e.notifier.matchRequestWithdrawn(node.Ref, node.Dates)
		} else {
			e.notifier.requestWithdrawn(node.Ref, node.Dates)
		}
	}
	return e.finish(), nil
}

// WithdrawSpaceBooking cancels a single booking that has neither an arrival nor a non-arrival.
func WithdrawSpaceBooking(agg *entity.ApplicationAggregate, id uuid.UUID, reason string, ctx Context) (*Outcome, error) {
	e := newExecutor(agg, ctx)
	if _, err := e.target(NodeRef{Type: NodeSpaceBooking, Id: id}); err != nil {
		return nil, err
	}
	e.cancelBooking(agg.FindSpaceBooking(id), reason)
	return e.finish(), nil
}
