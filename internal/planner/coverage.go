package planner

import (
	"sort"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
)

// Coverage joins outcomes against activity links. The result follows the
// order of outcomes; each coveredBy list is deduplicated and sorted by
// activity ID so repeated calls over the same data are identical.
func Coverage(outcomes []domain.Outcome, links []domain.ActivityOutcome) []domain.OutcomeCoverage {
	byOutcome := make(map[string]map[int64]string, len(outcomes))
	for _, l := range links {
		set, ok := byOutcome[l.OutcomeID]
		if !ok {
			set = map[int64]string{}
			byOutcome[l.OutcomeID] = set
		}
		set[l.ActivityID] = l.ActivityTitle
	}
	out := make([]domain.OutcomeCoverage, 0, len(outcomes))
	for _, o := range outcomes {
		refs := make([]domain.ActivityRef, 0, len(byOutcome[o.ID]))
		for id, title := range byOutcome[o.ID] {
			refs = append(refs, domain.ActivityRef{ID: id, Title: title})
		}
		sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
		out = append(out, domain.OutcomeCoverage{
			OutcomeID: o.ID,
			Code:      o.Code,
			IsCovered: len(refs) > 0,
			CoveredBy: refs,
		})
	}
	return out
}

// Summarize counts covered records exactly.
func Summarize(items []domain.OutcomeCoverage) domain.CoverageSummary {
	s := domain.CoverageSummary{Total: len(items)}
	for _, c := range items {
		if c.IsCovered {
			s.Covered++
		}
	}
	s.Percent = Percent(s.Covered, s.Total)
	return s
}
