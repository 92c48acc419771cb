package engine

import (
	"context"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/db"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/planner"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/repo"
)

const maxSuggestionLimit = 100

// Suggestions proposes the next activity of each milestone, optionally for a
// single subject. A zero limit uses planner.suggestion_limit.
func (e Engine) Suggestions(ctx context.Context, subjectID int64, limit int) ([]domain.Suggestion, error) {
	if limit < 0 {
		return nil, validationf(map[string]any{"limit": limit}, "limit must not be negative")
	}
	if limit == 0 {
		limit = e.Config.Planner.SuggestionLimit
	}
	if limit > maxSuggestionLimit {
		limit = maxSuggestionLimit
	}
	var res []domain.Suggestion
	err := e.tx(ctx, func(ctx context.Context, _ db.DBTX, r repo.Repo) error {
		if subjectID != 0 {
			if _, err := r.GetSubject(ctx, subjectID); err != nil {
				return notFoundIf(err, "subject", subjectID)
			}
		}
		milestones, err := r.ListMilestones(ctx, subjectID)
		if err != nil {
			return err
		}
		plans := make([]planner.MilestonePlan, 0, len(milestones))
		for _, m := range milestones {
			acts, err := r.ListActivities(ctx, m.ID)
			if err != nil {
				return err
			}
			plans = append(plans, planner.MilestonePlan{Milestone: m, Activities: acts})
		}
		links, err := r.ActivityLinks(ctx)
		if err != nil {
			return err
		}
		res = planner.Suggest(plans, links, limit)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []domain.Suggestion{}
	}
	return res, nil
}

func (e Engine) ListEvents(ctx context.Context, limit int, cursor int64) ([]domain.Event, error) {
	return e.Repo.LatestEvents(ctx, limit, cursor)
}
