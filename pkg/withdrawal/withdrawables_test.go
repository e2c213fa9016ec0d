package withdrawal

import (
	"encoding/json"
	"testing"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var applicant = Viewer{IsApplicant: true}

func listed(w Withdrawables) []NodeRef {
	out := make([]NodeRef, 0, len(w.Withdrawables))
	for _, item := range w.Withdrawables {
		out = append(out, NodeRef{Type: item.Type, Id: item.Id})
	}
	return out
}

func ref(t NodeType, id uuid.UUID) NodeRef {
	return NodeRef{Type: t, Id: id}
}

func TestListWithdrawables(t *testing.T) {
	t.Run("application only for the applicant", func(t *testing.T) {
		f := newFixture()
		appRef := ref(NodeApplication, f.agg.Application.Id)

		assert.Equal(t, []NodeRef{appRef}, listed(ListWithdrawables(BuildTree(f.agg), applicant)))
		assert.Empty(t, listed(ListWithdrawables(BuildTree(f.agg), Viewer{})))
		assert.Equal(t, []NodeRef{appRef}, listed(ListWithdrawables(BuildTree(f.agg), Viewer{CanOverride: true})))
	})

	t.Run("withdrawn application is not listed", func(t *testing.T) {
		f := newFixture()
		f.agg.Application.IsWithdrawn = true

		assert.Empty(t, ListWithdrawables(BuildTree(f.agg), applicant).Withdrawables)
	})

	t.Run("arrival blocks its own path only", func(t *testing.T) {
		f := newFixture()
		pr1 := f.placementRequest(nil)
		b1 := f.booking(pr1)
		pa2 := f.placementApplication()
		pr2 := f.placementRequest(pa2)
		f.booking(pr2, arrived)

		result := ListWithdrawables(BuildTree(f.agg), applicant)

		assert.Equal(t, []NodeRef{
			ref(NodePlacementRequest, pr1.Id),
			ref(NodeSpaceBooking, b1.Id),
		}, listed(result))
		assert.Equal(t, []string{NoteArrivalRecorded}, result.Notes)
	})

	t.Run("non-arrival blocks with its own note", func(t *testing.T) {
		f := newFixture()
		pa := f.placementApplication()
		pr := f.placementRequest(pa)
		f.booking(pr, nonArrived)
		other := f.placementApplication()

		result := ListWithdrawables(BuildTree(f.agg), applicant)
		assert.Equal(t, []NodeRef{ref(NodePlacementApplication, other.Id)}, listed(result))
		assert.Equal(t, []string{NoteNonArrivalRecorded}, result.Notes)
	})

	t.Run("both notes once each", func(t *testing.T) {
		f := newFixture()
		pr := f.placementRequest(nil)
		f.booking(pr, arrived)
		f.booking(pr, arrived)
		f.booking(nil, nonArrived)

		result := ListWithdrawables(BuildTree(f.agg), applicant)
		assert.Empty(t, result.Withdrawables)
		assert.Equal(t, []string{NoteArrivalRecorded, NoteNonArrivalRecorded}, result.Notes)
	})

	t.Run("placement applications by submission state", func(t *testing.T) {
		f := newFixture()
		accepted := f.placementApplication()
		rejected := f.placementApplication(func(pa *entity.PlacementApplication) {
			pa.Decision = entity.PlacementApplicationDecisionRejected
		})
		undecided := f.placementApplication(func(pa *entity.PlacementApplication) {
			pa.Decision = entity.PlacementApplicationDecisionNone
		})
		f.placementApplication(func(pa *entity.PlacementApplication) { pa.SubmittedAt = nil })
		f.placementApplication(func(pa *entity.PlacementApplication) { pa.Automatic = true })
		f.placementApplication(func(pa *entity.PlacementApplication) { pa.IsWithdrawn = true })
		f.placementApplication(func(pa *entity.PlacementApplication) { pa.ReallocatedAt = &baseTime })

		result := ListWithdrawables(BuildTree(f.agg), Viewer{})
		assert.Equal(t, []NodeRef{
			ref(NodePlacementApplication, accepted.Id),
			ref(NodePlacementApplication, rejected.Id),
			ref(NodePlacementApplication, undecided.Id),
		}, listed(result))
	})

	t.Run("initial request without a booking is covered by the application", func(t *testing.T) {
		f := newFixture()
		f.placementRequest(nil)

		result := ListWithdrawables(BuildTree(f.agg), applicant)
		assert.Equal(t, []NodeRef{ref(NodeApplication, f.agg.Application.Id)}, listed(result))
	})

	t.Run("initial request with only a cancelled booking stays covered", func(t *testing.T) {
		f := newFixture()
		pr := f.placementRequest(nil)
		f.booking(pr, cancelled)

		assert.Empty(t, ListWithdrawables(BuildTree(f.agg), Viewer{}).Withdrawables)
	})

	t.Run("requests excluded by their ancestry", func(t *testing.T) {
		f := newFixture()
		withdrawnPa := f.placementApplication(func(pa *entity.PlacementApplication) { pa.IsWithdrawn = true })
		f.placementRequest(withdrawnPa)

		pa := f.placementApplication()
		stale := f.placementRequest(pa)
		reallocatedAssessment := &entity.Assessment{Id: uuid.New(), ReallocatedAt: &baseTime}
		f.agg.Assessments = append(f.agg.Assessments, reallocatedAssessment)
		stale.AssessmentId = reallocatedAssessment.Id

		fresh := f.placementRequest(pa)
		f.placementRequest(pa).IsWithdrawn = true

		result := ListWithdrawables(BuildTree(f.agg), Viewer{})
		assert.Equal(t, []NodeRef{
			ref(NodePlacementApplication, pa.Id),
			ref(NodePlacementRequest, fresh.Id),
		}, listed(result))
	})

	t.Run("ordering and date periods", func(t *testing.T) {
		f := newFixture()
		pr := f.placementRequest(nil)
		pa := f.placementApplication()
		b := f.booking(pr)

		result := ListWithdrawables(BuildTree(f.agg), applicant)
		require.Len(t, result.Withdrawables, 4)
		assert.Equal(t, []NodeRef{
			ref(NodeApplication, f.agg.Application.Id),
			ref(NodePlacementRequest, pr.Id),
			ref(NodePlacementApplication, pa.Id),
			ref(NodeSpaceBooking, b.Id),
		}, listed(result))

		assert.Empty(t, result.Withdrawables[0].DatePeriods)
		assert.Equal(t, []entity.DatePeriod{pr.Period()}, result.Withdrawables[1].DatePeriods)
		assert.Equal(t, pa.Dates, result.Withdrawables[2].DatePeriods)
		assert.Equal(t, []entity.DatePeriod{b.Period()}, result.Withdrawables[3].DatePeriods)
	})

	t.Run("repeated calls are identical", func(t *testing.T) {
		f := newFixture()
		pa := f.placementApplication()
		pr := f.placementRequest(pa)
		f.booking(pr)
		f.booking(f.placementRequest(nil), arrived)

		first, err := json.Marshal(ListWithdrawables(BuildTree(f.agg), applicant))
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := json.Marshal(ListWithdrawables(BuildTree(f.agg), applicant))
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
}

func TestBuildTree(t *testing.T) {
	f := newFixture()
	pa := f.placementApplication()
	pr := f.placementRequest(pa)
	b := f.booking(pr, arrived)
	initial := f.placementRequest(nil)

	tree := BuildTree(f.agg)

	assert.Equal(t, Eligibility{Kind: Blocked, BlockedBy: BlockingArrival}, tree.Root.Eligibility)
	assert.Equal(t, Eligibility{Kind: Blocked, BlockedBy: BlockingArrival}, tree.Find(ref(NodePlacementApplication, pa.Id)).Eligibility)
	assert.Equal(t, Eligibility{Kind: Blocked, BlockedBy: BlockingArrival}, tree.Find(ref(NodePlacementRequest, pr.Id)).Eligibility)
	assert.Equal(t, Eligibility{Kind: Blocked, BlockedBy: BlockingArrival}, tree.Find(ref(NodeSpaceBooking, b.Id)).Eligibility)
	assert.Equal(t, Eligibility{Kind: Skipped, SkippedBecause: SkipNotListed}, tree.Find(ref(NodePlacementRequest, initial.Id)).Eligibility)

	assert.Len(t, tree.Root.Children, 2)
	assert.Nil(t, tree.Find(ref(NodeSpaceBooking, uuid.New())))
}
