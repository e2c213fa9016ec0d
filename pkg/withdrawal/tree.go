package withdrawal

import (
	"sort"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"

	"github.com/google/uuid"
)

type NodeType string

const (
	NodeApplication          NodeType = "application"
	NodePlacementApplication NodeType = "placementApplication"
	NodePlacementRequest     NodeType = "placementRequest"
	NodeSpaceBooking         NodeType = "spaceBooking"
)

// NodeRef identifies one node of an application's tree.
type NodeRef struct {
	Type NodeType
	Id   uuid.UUID
}

type BlockingReason string

const (
	BlockingNone       BlockingReason = ""
	BlockingArrival    BlockingReason = "ARRIVAL_RECORDED"
	BlockingNonArrival BlockingReason = "NON_ARRIVAL_RECORDED"
)

type SkipReason string

const (
	SkipNone                  SkipReason = ""
	SkipWithdrawn             SkipReason = "WITHDRAWN"
	SkipCancelled             SkipReason = "CANCELLED"
	SkipReallocated           SkipReason = "REALLOCATED"
	SkipAssessmentReallocated SkipReason = "ASSESSMENT_REALLOCATED"
	SkipParentInactive        SkipReason = "PARENT_INACTIVE"
	SkipNotListed             SkipReason = "NOT_LISTED"
)

type EligibilityKind int

const (
	Eligible EligibilityKind = iota
	Blocked
	Skipped
)

// Eligibility is the verdict for a node on the withdrawable surface.
// BlockedBy is set for Blocked, SkippedBecause for Skipped.
type Eligibility struct {
	Kind           EligibilityKind
	BlockedBy      BlockingReason
	SkippedBecause SkipReason
}

type Node struct {
	Ref         NodeRef
	CreatedAt   time.Time
	Dates       []entity.DatePeriod
	Eligibility Eligibility
	Children    []*Node

	// own terminal state, independent of ancestors and descendants
	terminal SkipReason
	// own blocking state; only bookings carry one
	blocking BlockingReason
	// subtree blocking, arrival wins over non-arrival
	subtreeBlocking BlockingReason
	listable        bool
	parentInactive  bool
	assessmentGone  bool
	// initial request raised from the application's own dates
	initialRequest bool
}

// Tree is the request-for-placement tree of one application.
type Tree struct {
	Root  *Node
	index map[NodeRef]*Node
}

func (t *Tree) Find(ref NodeRef) *Node {
	return t.index[ref]
}

// Walk visits n and its descendants depth first, parents before children.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

func (n *Node) IsTerminal() bool {
	return n.terminal != SkipNone
}

// BuildTree arranges the aggregate into application -> placement application ->
// placement request -> space booking. Placement requests raised from the application's
// own dates and bookings without a placement request hang directly off the application.
func BuildTree(agg *entity.ApplicationAggregate) *Tree {
	app := agg.Application
	root := &Node{
		Ref:       NodeRef{Type: NodeApplication, Id: app.Id},
		CreatedAt: app.CreatedAt,
		Dates:     []entity.DatePeriod{},
		listable:  true,
	}
	if app.IsWithdrawn {
		root.terminal = SkipWithdrawn
	}

	tree := &Tree{Root: root, index: map[NodeRef]*Node{root.Ref: root}}

	placementApps := make(map[uuid.UUID]*Node)
	for _, pa := range sortedPlacementApplications(agg.PlacementApplications) {
		node := &Node{
			Ref:       NodeRef{Type: NodePlacementApplication, Id: pa.Id},
			CreatedAt: pa.CreatedAt,
			Dates:     append([]entity.DatePeriod{}, pa.Dates...),
			listable:  pa.IsSubmitted() && !pa.Automatic,
		}
		switch {
		case pa.IsWithdrawn:
			node.terminal = SkipWithdrawn
		case pa.ReallocatedAt != nil:
			node.terminal = SkipReallocated
		}
		placementApps[pa.Id] = node
		tree.add(root, node)
	}

	requests := make(map[uuid.UUID]*Node)
	for _, pr := range sortedPlacementRequests(agg.PlacementRequests) {
		node := &Node{
			Ref:            NodeRef{Type: NodePlacementRequest, Id: pr.Id},
			CreatedAt:      pr.CreatedAt,
			Dates:          []entity.DatePeriod{pr.Period()},
			initialRequest: pr.IsForApplicationsArrivalDate(),
		}
		switch {
		case pr.IsWithdrawn:
			node.terminal = SkipWithdrawn
		case pr.ReallocatedAt != nil:
			node.terminal = SkipReallocated
		}
		if assessment := agg.FindAssessment(pr.AssessmentId); assessment != nil && assessment.ReallocatedAt != nil {
			node.assessmentGone = true
		}

		parent := root
		if pr.PlacementApplicationId != nil {
			if paNode, ok := placementApps[*pr.PlacementApplicationId]; ok {
				parent = paNode
				node.parentInactive = paNode.IsTerminal()
			}
		}
		requests[pr.Id] = node
		tree.add(parent, node)
	}

	for _, booking := range sortedSpaceBookings(agg.SpaceBookings) {
		node := &Node{
			Ref:       NodeRef{Type: NodeSpaceBooking, Id: booking.Id},
			CreatedAt: booking.CreatedAt,
			Dates:     []entity.DatePeriod{booking.Period()},
			listable:  true,
		}
		switch {
		case booking.IsCancelled():
			node.terminal = SkipCancelled
		case booking.HasArrival():
			node.blocking = BlockingArrival
		case booking.HasNonArrival():
			node.blocking = BlockingNonArrival
		}

		parent := root
		if booking.PlacementRequestId != nil {
			if prNode, ok := requests[*booking.PlacementRequestId]; ok {
				parent = prNode
			}
		}
		tree.add(parent, node)
	}

	for _, node := range requests {
		// the initial request is covered by the application unless something was booked against it
		node.listable = !node.initialRequest || hasActiveBooking(node)
	}

	resolveBlocking(root)
	resolveEligibility(root)
	return tree
}

func (t *Tree) add(parent, child *Node) {
	parent.Children = append(parent.Children, child)
	t.index[child.Ref] = child
}

func hasActiveBooking(n *Node) bool {
	for _, child := range n.Children {
		if child.Ref.Type == NodeSpaceBooking && !child.IsTerminal() {
			return true
		}
	}
	return false
}

func resolveBlocking(n *Node) BlockingReason {
	result := n.blocking
	for _, child := range n.Children {
		result = strongest(result, resolveBlocking(child))
	}
	n.subtreeBlocking = result
	return result
}

func strongest(a, b BlockingReason) BlockingReason {
	if a == BlockingArrival || b == BlockingArrival {
		return BlockingArrival
	}
	if a == BlockingNonArrival || b == BlockingNonArrival {
		return BlockingNonArrival
	}
	return BlockingNone
}

func resolveEligibility(n *Node) {
	switch {
	case n.terminal != SkipNone:
		n.Eligibility = Eligibility{Kind: Skipped, SkippedBecause: n.terminal}
	case n.subtreeBlocking != BlockingNone:
		n.Eligibility = Eligibility{Kind: Blocked, BlockedBy: n.subtreeBlocking}
	case n.assessmentGone:
		n.Eligibility = Eligibility{Kind: Skipped, SkippedBecause: SkipAssessmentReallocated}
	case n.parentInactive:
		n.Eligibility = Eligibility{Kind: Skipped, SkippedBecause: SkipParentInactive}
	case !n.listable:
		n.Eligibility = Eligibility{Kind: Skipped, SkippedBecause: SkipNotListed}
	default:
		n.Eligibility = Eligibility{Kind: Eligible}
	}
	for _, child := range n.Children {
		resolveEligibility(child)
	}
}

func sortedPlacementApplications(in []*entity.PlacementApplication) []*entity.PlacementApplication {
	out := append([]*entity.PlacementApplication{}, in...)
	sort.SliceStable(out, func(i, j int) bool {
		return createdBefore(out[i].CreatedAt, out[j].CreatedAt, out[i].Id, out[j].Id)
	})
	return out
}

func sortedPlacementRequests(in []*entity.PlacementRequest) []*entity.PlacementRequest {
	out := append([]*entity.PlacementRequest{}, in...)
	sort.SliceStable(out, func(i, j int) bool {
		return createdBefore(out[i].CreatedAt, out[j].CreatedAt, out[i].Id, out[j].Id)
	})
	return out
}

func sortedSpaceBookings(in []*entity.SpaceBooking) []*entity.SpaceBooking {
	out := append([]*entity.SpaceBooking{}, in...)
	sort.SliceStable(out, func(i, j int) bool {
		return createdBefore(out[i].CreatedAt, out[j].CreatedAt, out[i].Id, out[j].Id)
	})
	return out
}

func createdBefore(a, b time.Time, aId, bId uuid.UUID) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return aId.String() < bId.String()
}
