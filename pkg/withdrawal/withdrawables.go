package withdrawal

import (
	"sort"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"

	"github.com/google/uuid"
)

const (
	NoteArrivalRecorded    = "1 or more placements cannot be withdrawn as they have an arrival"
	NoteNonArrivalRecorded = "1 or more placements cannot be withdrawn as they have a non-arrival"
)

type Withdrawable struct {
	Id          uuid.UUID
	Type        NodeType
	DatePeriods []entity.DatePeriod
}

type Withdrawables struct {
	Notes         []string
	Withdrawables []Withdrawable
}

// Viewer describes who is asking for the withdrawable surface.
type Viewer struct {
	IsApplicant bool
	// CanOverride lets staff other than the applicant withdraw the application itself.
	CanOverride bool
}

// ListWithdrawables returns the nodes the viewer may withdraw, ordered application first,
// then placement applications and placement requests by creation time, then bookings.
func ListWithdrawables(tree *Tree, viewer Viewer) Withdrawables {
	result := Withdrawables{Notes: []string{}, Withdrawables: []Withdrawable{}}

	var requests, bookings []*Node
	var arrival, nonArrival bool

	tree.Root.Walk(func(n *Node) {
		if n.blocking == BlockingArrival && !n.IsTerminal() {
			arrival = true
		}
		if n.blocking == BlockingNonArrival && !n.IsTerminal() {
			nonArrival = true
		}
		if n.Eligibility.Kind != Eligible {
			return
		}
		switch n.Ref.Type {
		case NodePlacementApplication, NodePlacementRequest:
			requests = append(requests, n)
		case NodeSpaceBooking:
			bookings = append(bookings, n)
		}
	})

	root := tree.Root
	if root.Eligibility.Kind == Eligible && (viewer.IsApplicant || viewer.CanOverride) {
		result.Withdrawables = append(result.Withdrawables, toWithdrawable(root))
	}

	sortByCreation(requests)
	sortByCreation(bookings)
	for _, n := range requests {
		result.Withdrawables = append(result.Withdrawables, toWithdrawable(n))
	}
	for _, n := range bookings {
		result.Withdrawables = append(result.Withdrawables, toWithdrawable(n))
	}

	if arrival {
		result.Notes = append(result.Notes, NoteArrivalRecorded)
	}
	if nonArrival {
		result.Notes = append(result.Notes, NoteNonArrivalRecorded)
	}
	return result
}

func toWithdrawable(n *Node) Withdrawable {
	return Withdrawable{
		Id:          n.Ref.Id,
		Type:        n.Ref.Type,
		DatePeriods: append([]entity.DatePeriod{}, n.Dates...),
	}
}

func sortByCreation(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return createdBefore(nodes[i].CreatedAt, nodes[j].CreatedAt, nodes[i].Ref.Id, nodes[j].Ref.Id)
	})
}
