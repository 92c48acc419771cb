package planner

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
)

func TestMoveArraySemantics(t *testing.T) {
	cases := []struct {
		name     string
		from, to int
		want     []int64
	}{
		{"last to first", 2, 0, []int64{3, 1, 2}},
		{"first to last", 0, 2, []int64{2, 3, 1}},
		{"middle down", 1, 2, []int64{1, 3, 2}},
		{"no-op", 1, 1, []int64{1, 2, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ids := []int64{1, 2, 3}
			got, err := Move(ids, tc.from, tc.to)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("order mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, []int64{1, 2, 3}, ids, "input must not be mutated")
		})
	}
}

func TestMoveRejectsOutOfRange(t *testing.T) {
	_, err := Move([]int64{1, 2}, -1, 0)
	require.Error(t, err)
	_, err = Move([]int64{1, 2}, 0, 2)
	require.Error(t, err)
	_, err = Move(nil, 0, 0)
	require.Error(t, err)
}

func TestMoveKeepsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []int64{10, 20, 30, 40, 50, 60}
	for i := 0; i < 200; i++ {
		next, err := Move(ids, rng.Intn(len(ids)), rng.Intn(len(ids)))
		require.NoError(t, err)
		require.NoError(t, CheckPermutation(ids, next))
		ids = next
	}
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	assert.Equal(t, []int64{10, 20, 30, 40, 50, 60}, sorted)
}

func TestCheckPermutation(t *testing.T) {
	current := []int64{1, 2, 3}
	require.NoError(t, CheckPermutation(current, []int64{3, 1, 2}))

	err := CheckPermutation(current, []int64{1, 1, 2})
	var perr *PermutationError
	require.True(t, errors.As(err, &perr))
	assert.False(t, perr.HasForeign())
	assert.Equal(t, []int64{1}, perr.Duplicates)
	assert.Equal(t, []int64{3}, perr.Missing)

	err = CheckPermutation(current, []int64{1, 2, 3, 9})
	require.True(t, errors.As(err, &perr))
	assert.True(t, perr.HasForeign())
	assert.Equal(t, []int64{9}, perr.Foreign)
	assert.Contains(t, perr.Error(), "unknown activity ids [9]")

	err = CheckPermutation(current, []int64{1, 2})
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, []int64{3}, perr.Missing)
}

func TestMilestonePercent(t *testing.T) {
	assert.Equal(t, 0, MilestonePercent(Counts{}))
	assert.Equal(t, 50, MilestonePercent(Counts{Total: 2, Completed: 1}))
	assert.Equal(t, 33, MilestonePercent(Counts{Total: 3, Completed: 1}))
	assert.Equal(t, 67, MilestonePercent(Counts{Total: 3, Completed: 2}))
	assert.Equal(t, 100, MilestonePercent(Counts{Total: 4, Completed: 4}))
}

func TestTallySubjectExcludesEmptyMilestones(t *testing.T) {
	// three complete activities plus an empty milestone
	tally := TallySubject([]Counts{{Total: 3, Completed: 3}, {Total: 0}})
	assert.Equal(t, SubjectTally{Completed: 1, Counted: 1, Empty: 1}, tally)
	assert.Equal(t, 100, tally.Percent())

	tally = TallySubject([]Counts{{Total: 3, Completed: 3}, {Total: 2, Completed: 1}, {}})
	assert.Equal(t, 50, tally.Percent())
	assert.Equal(t, 1, tally.Empty)

	tally = TallySubject([]Counts{{}, {}})
	assert.Equal(t, 0, tally.Percent())
	assert.Equal(t, 0, tally.Counted)
}

func TestCoverageDedupesAndSorts(t *testing.T) {
	outcomes := []domain.Outcome{
		{ID: "FL1.CO.1", Code: "FL1.CO.1"},
		{ID: "FL1.CO.2", Code: "FL1.CO.2"},
	}
	links := []domain.ActivityOutcome{
		{ActivityID: 9, ActivityTitle: "Poem", OutcomeID: "FL1.CO.1"},
		{ActivityID: 5, ActivityTitle: "Song", OutcomeID: "FL1.CO.1"},
		{ActivityID: 9, ActivityTitle: "Poem", OutcomeID: "FL1.CO.1"},
		{ActivityID: 7, ActivityTitle: "Other", OutcomeID: "UNKNOWN"},
	}
	got := Coverage(outcomes, links)
	want := []domain.OutcomeCoverage{
		{OutcomeID: "FL1.CO.1", Code: "FL1.CO.1", IsCovered: true, CoveredBy: []domain.ActivityRef{{ID: 5, Title: "Song"}, {ID: 9, Title: "Poem"}}},
		{OutcomeID: "FL1.CO.2", Code: "FL1.CO.2", IsCovered: false, CoveredBy: []domain.ActivityRef{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("coverage mismatch (-want +got):\n%s", diff)
	}
	for _, c := range got {
		assert.Equal(t, len(c.CoveredBy) > 0, c.IsCovered)
	}
	assert.Equal(t, domain.CoverageSummary{Total: 2, Covered: 1, Percent: 50}, Summarize(got))

	// shuffled links yield identical output
	shuffled := []domain.ActivityOutcome{links[2], links[3], links[1], links[0]}
	if diff := cmp.Diff(got, Coverage(outcomes, shuffled)); diff != "" {
		t.Fatalf("coverage not stable:\n%s", diff)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, domain.CoverageSummary{}, Summarize(nil))
}

func TestSuggestRanksUncoveredFirst(t *testing.T) {
	now := time.Now()
	out := func(id string) domain.OutcomeLink { return domain.OutcomeLink{Outcome: domain.Outcome{ID: id, Code: id}} }
	plans := []MilestonePlan{
		{
			Milestone:  domain.Milestone{ID: 1, SubjectID: 1, Title: "Reading"},
			Activities: []domain.Activity{
				{ID: 10, MilestoneID: 1, CompletedAt: &now, Outcomes: []domain.OutcomeLink{out("A")}},
				{ID: 11, MilestoneID: 1, Outcomes: []domain.OutcomeLink{out("A")}},
			},
		},
		{
			Milestone:  domain.Milestone{ID: 2, SubjectID: 1, Title: "Writing"},
			Activities: []domain.Activity{{ID: 20, MilestoneID: 2, Outcomes: []domain.OutcomeLink{out("B")}}},
		},
		{
			Milestone:  domain.Milestone{ID: 3, SubjectID: 1, Title: "Done"},
			Activities: []domain.Activity{{ID: 30, MilestoneID: 3, CompletedAt: &now}},
		},
		{Milestone: domain.Milestone{ID: 4, SubjectID: 1, Title: "Empty"}},
	}
	links := []domain.ActivityOutcome{
		{ActivityID: 10, OutcomeID: "A", Completed: true},
		{ActivityID: 11, OutcomeID: "A"},
		{ActivityID: 20, OutcomeID: "B"},
	}
	got := Suggest(plans, links, 0)
	require.Len(t, got, 2)
	assert.Equal(t, int64(20), got[0].Activity.ID)
	assert.Equal(t, []string{"B"}, got[0].UncoveredOutcomes)
	assert.Equal(t, "Writing", got[0].MilestoneTitle)
	assert.Equal(t, int64(11), got[1].Activity.ID)
	assert.Empty(t, got[1].UncoveredOutcomes)

	assert.Len(t, Suggest(plans, links, 1), 1)
}
