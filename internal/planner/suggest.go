package planner

import (
	"sort"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
)

// MilestonePlan is one milestone with its activities in position order.
type MilestonePlan struct {
	Milestone  domain.Milestone
	Activities []domain.Activity
}

// Suggest picks the next incomplete activity of each milestone. Candidates
// linked to outcomes that no completed activity covers yet come first, then
// milestone ID order.
func Suggest(plans []MilestonePlan, links []domain.ActivityOutcome, limit int) []domain.Suggestion {
	done := map[string]bool{}
	for _, l := range links {
		if l.Completed {
			done[l.OutcomeID] = true
		}
	}
	var out []domain.Suggestion
	for _, p := range plans {
		next, ok := firstIncomplete(p.Activities)
		if !ok {
			continue
		}
		s := domain.Suggestion{
			Activity:          next,
			SubjectID:         p.Milestone.SubjectID,
			MilestoneTitle:    p.Milestone.Title,
			UncoveredOutcomes: []string{},
		}
		for _, link := range next.Outcomes {
			if !done[link.Outcome.ID] {
				s.UncoveredOutcomes = append(s.UncoveredOutcomes, link.Outcome.Code)
			}
		}
		sort.Strings(s.UncoveredOutcomes)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ui, uj := len(out[i].UncoveredOutcomes) > 0, len(out[j].UncoveredOutcomes) > 0
		if ui != uj {
			return ui
		}
		return out[i].Activity.MilestoneID < out[j].Activity.MilestoneID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func firstIncomplete(acts []domain.Activity) (domain.Activity, bool) {
	for _, a := range acts {
		if !a.Completed() {
			return a, true
		}
	}
	return domain.Activity{}, false
}
