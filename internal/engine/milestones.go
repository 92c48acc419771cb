package engine

import (
	"context"
	"errors"
	"sort"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/db"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/events"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/planner"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/repo"
)

type MilestoneSummary struct {
	domain.Milestone
	Progress domain.MilestoneProgress `json:"progress"`
}

type MilestoneCreateOptions struct {
	SubjectID   int64
	Title       string
	Description string
	OutcomeIDs  []string
	ActorID     string
}

// MilestoneUpdateOptions leaves nil fields unchanged.
type MilestoneUpdateOptions struct {
	ID          int64
	Title       *string
	Description *string
	OutcomeIDs  *[]string
	ActorID     string
}

func (e Engine) CreateMilestone(ctx context.Context, opts MilestoneCreateOptions) (domain.Milestone, error) {
	title, err := requireTitle("title", opts.Title)
	if err != nil {
		return domain.Milestone{}, err
	}
	var m domain.Milestone
	err = e.tx(ctx, func(ctx context.Context, tx db.DBTX, r repo.Repo) error {
		if _, err := r.GetSubject(ctx, opts.SubjectID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return &InvalidReferenceError{Message: "subject does not exist", Details: map[string]any{"subjectId": opts.SubjectID}}
			}
			return err
		}
		if err := checkOutcomes(ctx, r, opts.OutcomeIDs); err != nil {
			return err
		}
		now := e.now()
		id, err := r.InsertMilestone(ctx, domain.Milestone{SubjectID: opts.SubjectID, Title: title, Description: opts.Description, CreatedAt: now, UpdatedAt: now})
		if err != nil {
			return err
		}
		if err := r.ReplaceMilestoneOutcomes(ctx, id, opts.OutcomeIDs); err != nil {
			return err
		}
		if m, err = r.GetMilestone(ctx, id); err != nil {
			return err
		}
		return e.event(ctx, tx, events.MilestoneCreated, "milestone", id, opts.ActorID, events.Payload{"subjectId": opts.SubjectID, "title": title})
	})
	return m, err
}

func (e Engine) GetMilestone(ctx context.Context, id int64) (domain.Milestone, error) {
	m, err := e.Repo.GetMilestone(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return m, notFound("milestone", id)
	}
	return m, err
}

// ListMilestones returns the milestones of a subject, or of every subject when
// subjectID is zero, each with its progress.
func (e Engine) ListMilestones(ctx context.Context, subjectID int64) ([]MilestoneSummary, error) {
	if subjectID != 0 {
		if _, err := e.GetSubject(ctx, subjectID); err != nil {
			return nil, err
		}
	}
	ms, err := e.Repo.ListMilestones(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	counts, err := e.Repo.MilestoneCounts(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]repo.MilestoneCount, len(counts))
	for _, c := range counts {
		byID[c.MilestoneID] = c
	}
	res := make([]MilestoneSummary, 0, len(ms))
	for _, m := range ms {
		c := byID[m.ID]
		c.MilestoneID = m.ID
		res = append(res, MilestoneSummary{Milestone: m, Progress: milestoneProgress(c)})
	}
	return res, nil
}

func (e Engine) UpdateMilestone(ctx context.Context, opts MilestoneUpdateOptions) (domain.Milestone, error) {
	var m domain.Milestone
	err := e.tx(ctx, func(ctx context.Context, tx db.DBTX, r repo.Repo) error {
		var err error
		if m, err = r.GetMilestone(ctx, opts.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("milestone", opts.ID)
			}
			return err
		}
		changed := []string{}
		if opts.Title != nil {
			if m.Title, err = requireTitle("title", *opts.Title); err != nil {
				return err
			}
			changed = append(changed, "title")
		}
		if opts.Description != nil {
			m.Description = *opts.Description
			changed = append(changed, "description")
		}
		m.UpdatedAt = e.now()
		if err := r.UpdateMilestone(ctx, m); err != nil {
			return err
		}
		if opts.OutcomeIDs != nil {
			if err := checkOutcomes(ctx, r, *opts.OutcomeIDs); err != nil {
				return err
			}
			if err := r.ReplaceMilestoneOutcomes(ctx, m.ID, *opts.OutcomeIDs); err != nil {
				return err
			}
			changed = append(changed, "outcomes")
		}
		if m, err = r.GetMilestone(ctx, m.ID); err != nil {
			return err
		}
		return e.event(ctx, tx, events.MilestoneUpdated, "milestone", m.ID, opts.ActorID, events.Payload{"fields": changed})
	})
	return m, err
}

func (e Engine) DeleteMilestone(ctx context.Context, id int64, actorID string) error {
	return e.tx(ctx, func(ctx context.Context, tx db.DBTX, r repo.Repo) error {
		if err := r.DeleteMilestone(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("milestone", id)
			}
			return err
		}
		return e.event(ctx, tx, events.MilestoneDeleted, "milestone", id, actorID, nil)
	})
}

func (e Engine) MilestoneProgress(ctx context.Context, id int64) (domain.MilestoneProgress, error) {
	if _, err := e.GetMilestone(ctx, id); err != nil {
		return domain.MilestoneProgress{}, err
	}
	return loadMilestoneProgress(ctx, e.Repo, id)
}

func loadMilestoneProgress(ctx context.Context, r repo.Repo, id int64) (domain.MilestoneProgress, error) {
	c, err := r.CountMilestoneActivities(ctx, id)
	if err != nil {
		return domain.MilestoneProgress{}, err
	}
	return milestoneProgress(c), nil
}

func milestoneProgress(c repo.MilestoneCount) domain.MilestoneProgress {
	return domain.MilestoneProgress{
		MilestoneID: c.MilestoneID,
		Completed:   c.Completed,
		Total:       c.Total,
		Percent:     planner.MilestonePercent(planner.Counts{Total: c.Total, Completed: c.Completed}),
	}
}

// checkOutcomes rejects outcome IDs that are not in the catalog.
func checkOutcomes(ctx context.Context, r repo.Repo, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := r.MissingOutcomes(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &InvalidReferenceError{Message: "unknown outcome ids", Details: map[string]any{"outcomeIds": missing}}
	}
	return nil
}
