package engine_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/config"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/engine"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/logger"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/testutil"
)

var fixedNow = time.Date(2024, 9, 3, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	Engine engine.Engine
	Seed   *testutil.Seeder
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	conn := testutil.NewTestDB(t)
	eng := engine.New(conn, config.Default(), logger.NewNop())
	eng.Now = func() time.Time { return fixedNow }
	return testEnv{Engine: eng, Seed: testutil.NewSeeder(t, eng.Repo), Ctx: context.Background()}
}

func activityIDs(acts []domain.Activity) []int64 {
	ids := make([]int64, len(acts))
	for i, a := range acts {
		ids[i] = a.ID
	}
	return ids
}

func (env testEnv) milestoneWith(t *testing.T, titles ...string) (domain.Milestone, []domain.Activity) {
	t.Helper()
	s := env.Seed.Subject("French")
	m := env.Seed.Milestone(s.ID, "Unit")
	var acts []domain.Activity
	for _, title := range titles {
		acts = append(acts, env.Seed.Activity(m.ID, title))
	}
	return m, acts
}

func TestReorderScenario(t *testing.T) {
	env := newTestEnv(t)
	m, acts := env.milestoneWith(t, "A", "B", "C")
	a, b, c := acts[0], acts[1], acts[2]

	got, err := env.Engine.ReorderActivities(env.Ctx, m.ID, []int64{c.ID, a.ID, b.ID}, "tester")
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, a.ID, b.ID}, activityIDs(got))
	for i, act := range got {
		assert.Equal(t, i, act.Position)
	}

	listed, err := env.Engine.ListActivities(env.Ctx, m.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(activityIDs(got), activityIDs(listed)); diff != "" {
		t.Fatalf("stored order differs from echo (-echo +stored):\n%s", diff)
	}

	evts, err := env.Engine.ListEvents(env.Ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, "activity.reordered", evts[0].Type)
	assert.Equal(t, "tester", evts[0].ActorID)
}

func TestReorderRejectsMalformedPayloads(t *testing.T) {
	env := newTestEnv(t)
	m, acts := env.milestoneWith(t, "A", "B", "C")
	other := env.Seed.Activity(env.Seed.Milestone(m.SubjectID, "Other").ID, "X")
	ids := activityIDs(acts)

	var verr *engine.ValidationError
	_, err := env.Engine.ReorderActivities(env.Ctx, m.ID, []int64{ids[0], ids[0], ids[1]}, "tester")
	require.True(t, errors.As(err, &verr), "duplicates: %v", err)
	assert.Equal(t, []int64{ids[0]}, verr.Details["duplicates"])

	_, err = env.Engine.ReorderActivities(env.Ctx, m.ID, ids[:2], "tester")
	require.True(t, errors.As(err, &verr), "missing: %v", err)
	assert.Equal(t, []int64{ids[2]}, verr.Details["missing"])

	var rerr *engine.InvalidReferenceError
	_, err = env.Engine.ReorderActivities(env.Ctx, m.ID, []int64{ids[2], ids[1], ids[0], other.ID}, "tester")
	require.True(t, errors.As(err, &rerr), "foreign: %v", err)
	assert.Equal(t, []int64{other.ID}, rerr.Details["foreign"])

	_, err = env.Engine.ReorderActivities(env.Ctx, 9999, ids, "tester")
	require.ErrorIs(t, err, engine.ErrNotFound)

	listed, err := env.Engine.ListActivities(env.Ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, ids, activityIDs(listed), "rejected reorders leave the order untouched")
}

func TestReorderKeepsPermutation(t *testing.T) {
	env := newTestEnv(t)
	m, acts := env.milestoneWith(t, "A", "B", "C", "D", "E")
	original := activityIDs(acts)
	rng := rand.New(rand.NewSource(42))
	order := append([]int64(nil), original...)
	for i := 0; i < 25; i++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		got, err := env.Engine.ReorderActivities(env.Ctx, m.ID, order, "tester")
		require.NoError(t, err)
		require.Equal(t, order, activityIDs(got))
	}
	listed, err := env.Engine.ListActivities(env.Ctx, m.ID)
	require.NoError(t, err)
	stored := activityIDs(listed)
	sort.Slice(stored, func(i, j int) bool { return stored[i] < stored[j] })
	assert.Equal(t, original, stored)
	for i, a := range listed {
		assert.Equal(t, i, a.Position)
	}
}

func TestReorderRollsBackWhenAWriteFails(t *testing.T) {
	env := newTestEnv(t)
	m, acts := env.milestoneWith(t, "A", "B", "C")
	ids := activityIDs(acts)
	boom := errors.New("disk full")
	env.Engine.UoW = &testutil.FailingUoW{DB: env.Engine.DB, Match: testutil.OnStatement("SET position=?"), Nth: 2, Err: boom}

	_, err := env.Engine.ReorderActivities(env.Ctx, m.ID, []int64{ids[2], ids[1], ids[0]}, "tester")
	require.ErrorIs(t, err, boom)

	listed, err := env.Engine.Repo.ListActivities(env.Ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, ids, activityIDs(listed))
	for i, a := range listed {
		assert.Equal(t, i, a.Position)
	}
}

func TestCompletionRollsBackWhenEventWriteFails(t *testing.T) {
	env := newTestEnv(t)
	m, acts := env.milestoneWith(t, "A", "B")
	boom := errors.New("disk full")
	env.Engine.UoW = &testutil.FailingUoW{DB: env.Engine.DB, Match: testutil.OnStatement("INSERT INTO events"), Err: boom}

	_, err := env.Engine.SetCompletion(env.Ctx, acts[0].ID, true, "", "tester")
	require.ErrorIs(t, err, boom)

	got, err := env.Engine.GetActivity(env.Ctx, acts[0].ID)
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt, "completion is not kept without its event")
	p, err := env.Engine.MilestoneProgress(env.Ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Completed)
}

func TestCompletionScenario(t *testing.T) {
	env := newTestEnv(t)
	m, acts := env.milestoneWith(t, "A", "B")

	res, err := env.Engine.SetCompletion(env.Ctx, acts[0].ID, true, "", "tester")
	require.NoError(t, err)
	require.NotNil(t, res.Activity.CompletedAt)
	assert.True(t, fixedNow.Equal(*res.Activity.CompletedAt))
	assert.True(t, res.ShowNotePrompt)
	assert.Equal(t, domain.MilestoneProgress{MilestoneID: m.ID, Completed: 1, Total: 2, Percent: 50}, res.MilestoneProgress)
	assert.Equal(t, acts[0].Title, res.Activity.Title)
	assert.Equal(t, acts[0].Position, res.Activity.Position)
}

func TestCompletionToggleTwiceRestoresNullity(t *testing.T) {
	env := newTestEnv(t)
	_, acts := env.milestoneWith(t, "A")
	id := acts[0].ID

	toggle := func() domain.Activity {
		t.Helper()
		cur, err := env.Engine.GetActivity(env.Ctx, id)
		require.NoError(t, err)
		res, err := env.Engine.SetCompletion(env.Ctx, id, !cur.Completed(), "", "tester")
		require.NoError(t, err)
		return res.Activity
	}

	assert.True(t, toggle().Completed())
	assert.False(t, toggle().Completed(), "incomplete start returns to null")

	toggle()
	assert.False(t, toggle().Completed())
	assert.True(t, toggle().Completed(), "complete start returns to non-null")
	got, err := env.Engine.GetActivity(env.Ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, got.CompletedAt)
}

func TestCompletionNoteSuppressesPromptAndIsLogged(t *testing.T) {
	env := newTestEnv(t)
	_, acts := env.milestoneWith(t, "A")

	res, err := env.Engine.SetCompletion(env.Ctx, acts[0].ID, true, "went well", "tester")
	require.NoError(t, err)
	assert.False(t, res.ShowNotePrompt)

	evts, err := env.Engine.ListEvents(env.Ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, "activity.completed", evts[0].Type)
	assert.Contains(t, evts[0].Payload, `"note":"went well"`)

	// repeating the state is a no-op
	res, err = env.Engine.SetCompletion(env.Ctx, acts[0].ID, true, "", "tester")
	require.NoError(t, err)
	assert.True(t, res.Activity.Completed())
	again, err := env.Engine.ListEvents(env.Ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, evts[0].ID, again[0].ID)

	_, err = env.Engine.SetCompletion(env.Ctx, 9999, true, "", "tester")
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func TestCompletionPromptDisabledByConfig(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Config.Completion.PromptForNote = false
	_, acts := env.milestoneWith(t, "A")
	res, err := env.Engine.SetCompletion(env.Ctx, acts[0].ID, true, "", "tester")
	require.NoError(t, err)
	assert.False(t, res.ShowNotePrompt)
}

func TestSubjectProgressExcludesEmptyMilestones(t *testing.T) {
	env := newTestEnv(t)
	s := env.Seed.Subject("French")
	m1 := env.Seed.Milestone(s.ID, "Full")
	env.Seed.Milestone(s.ID, "Empty")
	for i := 0; i < 3; i++ {
		env.Seed.Activity(m1.ID, fmt.Sprintf("A%d", i), testutil.WithCompletedAt(fixedNow))
	}

	p, err := env.Engine.SubjectProgress(env.Ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectProgress{SubjectID: s.ID, CompletedMilestones: 1, CountedMilestones: 1, EmptyMilestones: 1, Percent: 100}, p)

	subjects, err := env.Engine.ListSubjects(env.Ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, p, subjects[0].Progress)

	ms, err := env.Engine.ListMilestones(env.Ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, 100, ms[0].Progress.Percent)
	assert.Equal(t, domain.MilestoneProgress{MilestoneID: ms[1].ID}, ms[1].Progress)
}

func TestDeleteActivityCompactsAndUncovers(t *testing.T) {
	env := newTestEnv(t)
	o := env.Seed.Outcome("FL1.CO.1")
	s := env.Seed.Subject("French")
	m := env.Seed.Milestone(s.ID, "Oral")
	first := env.Seed.Activity(m.ID, "Warm-up")
	song := env.Seed.Activity(m.ID, "Song", testutil.WithOutcomes(o.ID))
	last := env.Seed.Activity(m.ID, "Wrap-up")

	page, err := env.Engine.Coverage(env.Ctx, engine.CoverageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.OutcomeCoverage{OutcomeID: o.ID, Code: o.Code, IsCovered: true, CoveredBy: []domain.ActivityRef{{ID: song.ID, Title: "Song"}}}, page.Items[0])

	require.NoError(t, env.Engine.DeleteActivity(env.Ctx, song.ID, "tester"))
	page, err = env.Engine.Coverage(env.Ctx, engine.CoverageQuery{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCoverage{OutcomeID: o.ID, Code: o.Code, IsCovered: false, CoveredBy: []domain.ActivityRef{}}, page.Items[0])
	assert.Equal(t, domain.CoverageSummary{Total: 1, Covered: 0, Percent: 0}, page.Summary)

	listed, err := env.Engine.ListActivities(env.Ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID, last.ID}, activityIDs(listed))
	assert.Equal(t, 1, listed[1].Position)

	require.ErrorIs(t, env.Engine.DeleteActivity(env.Ctx, song.ID, "tester"), engine.ErrNotFound)
}

func TestMoveActivityBetweenMilestones(t *testing.T) {
	env := newTestEnv(t)
	s := env.Seed.Subject("Math")
	m1 := env.Seed.Milestone(s.ID, "One")
	m2 := env.Seed.Milestone(s.ID, "Two")
	a := env.Seed.Activity(m1.ID, "A")
	b := env.Seed.Activity(m1.ID, "B")
	c := env.Seed.Activity(m1.ID, "C")
	x := env.Seed.Activity(m2.ID, "X")

	target := m2.ID
	moved, err := env.Engine.UpdateActivity(env.Ctx, engine.ActivityUpdateOptions{ID: b.ID, MilestoneID: &target, ActorID: "tester"})
	require.NoError(t, err)
	assert.Equal(t, m2.ID, moved.MilestoneID)
	assert.Equal(t, 1, moved.Position)

	one, err := env.Engine.ListActivities(env.Ctx, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID}, activityIDs(one))
	assert.Equal(t, 1, one[1].Position)
	two, err := env.Engine.ListActivities(env.Ctx, m2.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{x.ID, b.ID}, activityIDs(two))

	missing := int64(9999)
	_, err = env.Engine.UpdateActivity(env.Ctx, engine.ActivityUpdateOptions{ID: a.ID, MilestoneID: &missing})
	var rerr *engine.InvalidReferenceError
	require.True(t, errors.As(err, &rerr))
}

func TestCreateActivityValidation(t *testing.T) {
	env := newTestEnv(t)
	m, _ := env.milestoneWith(t)

	_, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{MilestoneID: m.ID, Title: "  "})
	var verr *engine.ValidationError
	require.True(t, errors.As(err, &verr))

	_, err = env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{MilestoneID: m.ID, Title: "Poem", OutcomeIDs: []string{"NOPE"}})
	var rerr *engine.InvalidReferenceError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, []string{"NOPE"}, rerr.Details["outcomeIds"])

	_, err = env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{MilestoneID: 9999, Title: "Poem"})
	require.True(t, errors.As(err, &rerr))

	o := env.Seed.Outcome("FL1.CO.1")
	a, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{MilestoneID: m.ID, Title: "Poem", MaterialsText: "paper", OutcomeIDs: []string{o.ID}})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Position)
	assert.Nil(t, a.CompletedAt)
	require.Len(t, a.Outcomes, 1)
	assert.Equal(t, o, a.Outcomes[0].Outcome)
}

func TestCoveragePagingIsExhaustive(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Config.Coverage.MaxPageSize = 3
	s := env.Seed.Subject("French")
	m := env.Seed.Milestone(s.ID, "Oral")
	var codes []string
	for i := 1; i <= 7; i++ {
		o := env.Seed.Outcome(fmt.Sprintf("FL1.CO.%d", i))
		codes = append(codes, o.Code)
		if i%2 == 0 {
			env.Seed.Activity(m.ID, o.Code, testutil.WithOutcomes(o.ID))
		}
	}

	all, err := env.Engine.Coverage(env.Ctx, engine.CoverageQuery{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 7, "limit 0 is never truncated")
	assert.Empty(t, all.NextCursor)
	assert.Equal(t, domain.CoverageSummary{Total: 7, Covered: 3, Percent: 43}, all.Summary)

	var (
		seen   []string
		cursor string
		pages  int
	)
	for {
		page, err := env.Engine.Coverage(env.Ctx, engine.CoverageQuery{Limit: 50, Cursor: cursor})
		require.NoError(t, err)
		require.LessOrEqual(t, len(page.Items), 3, "limit is clamped to the max page size")
		assert.Equal(t, all.Summary, page.Summary)
		for _, it := range page.Items {
			seen = append(seen, it.Code)
			assert.Equal(t, len(it.CoveredBy) > 0, it.IsCovered)
		}
		pages++
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	assert.Equal(t, codes, seen)
	assert.Equal(t, 3, pages)

	_, err = env.Engine.Coverage(env.Ctx, engine.CoverageQuery{Cursor: "garbage"})
	var verr *engine.ValidationError
	require.True(t, errors.As(err, &verr))
	_, err = env.Engine.Coverage(env.Ctx, engine.CoverageQuery{Limit: -1})
	require.True(t, errors.As(err, &verr))
}

func TestCoveragePagingWithSeparatorsInIDs(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.ImportOutcomes(env.Ctx, []domain.Outcome{
		{ID: "fra|1", Code: "FL1", Subject: "FRA", Grade: 1},
		{ID: "fra|2", Code: "FL1.CO", Subject: "FRA", Grade: 1},
		{ID: "fra|3", Code: "FL1.LE", Subject: "FRA", Grade: 1},
	}, "tester")
	require.NoError(t, err)

	var (
		seen   []string
		cursor string
	)
	for range 4 {
		page, err := env.Engine.Coverage(env.Ctx, engine.CoverageQuery{Limit: 1, Cursor: cursor})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Summary.Total)
		for _, it := range page.Items {
			seen = append(seen, it.Code)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	assert.Equal(t, []string{"FL1", "FL1.CO", "FL1.LE"}, seen)
}

func TestCoverageFilters(t *testing.T) {
	env := newTestEnv(t)
	env.Seed.Outcome("FL1.CO.1", testutil.WithDomain("CO"))
	env.Seed.Outcome("FL1.LE.1", testutil.WithDomain("LE"))
	env.Seed.Outcome("FL2.CO.1", testutil.WithGrade(2), testutil.WithDomain("CO"))

	grade := 1
	page, err := env.Engine.Coverage(env.Ctx, engine.CoverageQuery{Filter: domain.OutcomeFilter{Subject: "FRA", Grade: &grade, Domain: "CO"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "FL1.CO.1", page.Items[0].Code)
	assert.Equal(t, 1, page.Summary.Total)
}

func TestImportOutcomesUpserts(t *testing.T) {
	env := newTestEnv(t)
	outcomes, err := engine.ParseCatalog([]byte(`outcomes:
  - code: FL1.CO.1
    description: Listen to songs
    subject: FRA
    grade: 1
    domain: CO
  - id: custom
    code: FL1.CO.2
    description: Sing along
    subject: FRA
    grade: 1
`))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "FL1.CO.1", outcomes[0].ID)
	assert.Equal(t, "custom", outcomes[1].ID)

	n, err := env.Engine.ImportOutcomes(env.Ctx, outcomes, "tester")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	outcomes[0].Description = "Listen to nursery rhymes"
	_, err = env.Engine.ImportOutcomes(env.Ctx, outcomes[:1], "tester")
	require.NoError(t, err)
	listed, err := env.Engine.ListOutcomes(env.Ctx, domain.OutcomeFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Listen to nursery rhymes", listed[0].Description)

	_, err = env.Engine.ImportOutcomes(env.Ctx, []domain.Outcome{{ID: "x", Code: "X"}}, "tester")
	var verr *engine.ValidationError
	require.True(t, errors.As(err, &verr))
	_, err = env.Engine.ImportOutcomes(env.Ctx, []domain.Outcome{outcomes[0], outcomes[0]}, "tester")
	require.True(t, errors.As(err, &verr))
}

func TestImportOutcomesRejectsIdentityConflicts(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.ImportOutcomes(env.Ctx, []domain.Outcome{{ID: "a", Code: "FL1.CO.1", Subject: "FRA", Grade: 1}}, "tester")
	require.NoError(t, err)

	var verr *engine.ValidationError
	_, err = env.Engine.ImportOutcomes(env.Ctx, []domain.Outcome{{Code: "FL1.CO.2", Subject: "FRA", Grade: 1}}, "tester")
	require.True(t, errors.As(err, &verr), "empty id: %v", err)

	_, err = env.Engine.ImportOutcomes(env.Ctx, []domain.Outcome{
		{ID: "c", Code: "FL1.CO.3", Subject: "FRA", Grade: 1},
		{ID: "b", Code: "FL1.CO.1", Subject: "FRA", Grade: 1},
	}, "tester")
	require.True(t, errors.As(err, &verr), "code owned by another id: %v", err)
	assert.Equal(t, "a", verr.Details["existingId"])

	listed, err := env.Engine.ListOutcomes(env.Ctx, domain.OutcomeFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1, "a rejected import writes nothing")
	assert.Equal(t, "a", listed[0].ID)
}

func TestSuggestionsPreferUncoveredOutcomes(t *testing.T) {
	env := newTestEnv(t)
	covered := env.Seed.Outcome("FL1.CO.1")
	open := env.Seed.Outcome("FL1.CO.2")
	s := env.Seed.Subject("French")
	m1 := env.Seed.Milestone(s.ID, "Review")
	env.Seed.Activity(m1.ID, "Done", testutil.WithOutcomes(covered.ID), testutil.WithCompletedAt(fixedNow))
	again := env.Seed.Activity(m1.ID, "Again", testutil.WithOutcomes(covered.ID))
	m2 := env.Seed.Milestone(s.ID, "New")
	fresh := env.Seed.Activity(m2.ID, "Fresh", testutil.WithOutcomes(open.ID))

	got, err := env.Engine.Suggestions(env.Ctx, s.ID, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, fresh.ID, got[0].Activity.ID)
	assert.Equal(t, []string{"FL1.CO.2"}, got[0].UncoveredOutcomes)
	assert.Equal(t, again.ID, got[1].Activity.ID)

	_, err = env.Engine.Suggestions(env.Ctx, 9999, 0)
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func TestMilestoneCRUD(t *testing.T) {
	env := newTestEnv(t)
	o := env.Seed.Outcome("FL1.CO.1")
	s, err := env.Engine.CreateSubject(env.Ctx, "French", "tester")
	require.NoError(t, err)

	_, err = env.Engine.CreateMilestone(env.Ctx, engine.MilestoneCreateOptions{SubjectID: 9999, Title: "Oral"})
	var rerr *engine.InvalidReferenceError
	require.True(t, errors.As(err, &rerr))

	m, err := env.Engine.CreateMilestone(env.Ctx, engine.MilestoneCreateOptions{SubjectID: s.ID, Title: "Oral", OutcomeIDs: []string{o.ID}})
	require.NoError(t, err)
	require.Len(t, m.Outcomes, 1)

	title := "Oral language"
	none := []string{}
	m, err = env.Engine.UpdateMilestone(env.Ctx, engine.MilestoneUpdateOptions{ID: m.ID, Title: &title, OutcomeIDs: &none})
	require.NoError(t, err)
	assert.Equal(t, title, m.Title)
	assert.Empty(t, m.Outcomes)

	renamed, err := env.Engine.RenameSubject(env.Ctx, s.ID, "Français", "tester")
	require.NoError(t, err)
	assert.Equal(t, "Français", renamed.Name)

	require.NoError(t, env.Engine.DeleteMilestone(env.Ctx, m.ID, "tester"))
	_, err = env.Engine.GetMilestone(env.Ctx, m.ID)
	require.ErrorIs(t, err, engine.ErrNotFound)
	require.NoError(t, env.Engine.DeleteSubject(env.Ctx, s.ID, "tester"))
	require.ErrorIs(t, env.Engine.DeleteSubject(env.Ctx, s.ID, "tester"), engine.ErrNotFound)
}
