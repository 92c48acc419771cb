package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/db"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/events"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/planner"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/repo"
)

type ActivityCreateOptions struct {
	MilestoneID   int64
	Title         string
	MaterialsText string
	OutcomeIDs    []string
	ActorID       string
}

// ActivityUpdateOptions leaves nil fields unchanged. A MilestoneID different
// from the current one moves the activity to the end of that milestone.
type ActivityUpdateOptions struct {
	ID            int64
	Title         *string
	MaterialsText *string
	OutcomeIDs    *[]string
	MilestoneID   *int64
	ActorID       string
}

// CompletionResult is the outcome of a completion toggle.
type CompletionResult struct {
	Activity          domain.Activity          `json:"activity"`
	ShowNotePrompt    bool                     `json:"showNotePrompt"`
	MilestoneProgress domain.MilestoneProgress `json:"milestoneProgress"`
}

func (e Engine) CreateActivity(ctx context.Context, opts ActivityCreateOptions) (domain.Activity, error) {
	title, err := requireTitle("title", opts.Title)
	if err != nil {
		return domain.Activity{}, err
	}
	var a domain.Activity
	err = e.tx(ctx, func(ctx context.Context, tx db.DBTX, r repo.Repo) error {
		if err := requireMilestoneRef(ctx, r, opts.MilestoneID); err != nil {
			return err
		}
		if err := checkOutcomes(ctx, r, opts.OutcomeIDs); err != nil {
			return err
		}
		pos, err := r.NextPosition(ctx, opts.MilestoneID)
		if err != nil {
			return err
		}
		now := e.now()
		id, err := r.InsertActivity(ctx, domain.Activity{
			MilestoneID:   opts.MilestoneID,
			Title:         title,
			MaterialsText: opts.MaterialsText,
			Position:      pos,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return err
		}
		if err := r.ReplaceActivityOutcomes(ctx, id, opts.OutcomeIDs); err != nil {
			return err
		}
		if a, err = r.GetActivity(ctx, id); err != nil {
			return err
		}
		return e.event(ctx, tx, events.ActivityCreated, "activity", id, opts.ActorID, events.Payload{"milestoneId": opts.MilestoneID, "position": pos})
	})
	return a, err
}

func (e Engine) GetActivity(ctx context.Context, id int64) (domain.Activity, error) {
	a, err := e.Repo.GetActivity(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return a, notFound("activity", id)
	}
	return a, err
}

// ListActivities returns a milestone's activities in their stored order.
func (e Engine) ListActivities(ctx context.Context, milestoneID int64) ([]domain.Activity, error) {
	var res []domain.Activity
	err := e.tx(ctx, func(ctx context.Context, _ db.DBTX, r repo.Repo) error {
		if _, err := r.GetMilestone(ctx, milestoneID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("milestone", milestoneID)
			}
			return err
		}
		var err error
		res, err = r.ListActivities(ctx, milestoneID)
		return err
	})
	return res, err
}

func (e Engine) UpdateActivity(ctx context.Context, opts ActivityUpdateOptions) (domain.Activity, error) {
	var a domain.Activity
	err := e.tx(ctx, func(ctx context.Context, tx db.DBTX, r repo.Repo) error {
		var err error
		if a, err = r.GetActivity(ctx, opts.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("activity", opts.ID)
			}
			return err
		}
		now := e.now()
		changed := []string{}
		if opts.Title != nil {
			if a.Title, err = requireTitle("title", *opts.Title); err != nil {
				return err
			}
			changed = append(changed, "title")
		}
		if opts.MaterialsText != nil {
			a.MaterialsText = *opts.MaterialsText
			changed = append(changed, "materialsText")
		}
		a.UpdatedAt = now
		if err := r.UpdateActivity(ctx, a); err != nil {
			return err
		}
		if opts.OutcomeIDs != nil {
			if err := checkOutcomes(ctx, r, *opts.OutcomeIDs); err != nil {
				return err
			}
			if err := r.ReplaceActivityOutcomes(ctx, a.ID, *opts.OutcomeIDs); err != nil {
				return err
			}
			changed = append(changed, "outcomes")
		}
		if opts.MilestoneID != nil && *opts.MilestoneID != a.MilestoneID {
			from, to := a.MilestoneID, *opts.MilestoneID
			if err := e.moveActivity(ctx, tx, r, a.ID, from, to, opts.ActorID); err != nil {
				return err
			}
			changed = append(changed, "milestoneId")
		}
		if a, err = r.GetActivity(ctx, a.ID); err != nil {
			return err
		}
		return e.event(ctx, tx, events.ActivityUpdated, "activity", a.ID, opts.ActorID, events.Payload{"fields": changed})
	})
	return a, err
}

// moveActivity appends the activity to milestone to and closes the gap it
// leaves in milestone from.
func (e Engine) moveActivity(ctx context.Context, tx db.DBTX, r repo.Repo, id, from, to int64, actorID string) error {
	if err := requireMilestoneRef(ctx, r, to); err != nil {
		return err
	}
	pos, err := r.NextPosition(ctx, to)
	if err != nil {
		return err
	}
	if err := r.MoveToMilestone(ctx, id, to, pos, e.now()); err != nil {
		return err
	}
	if err := compact(ctx, r, from); err != nil {
		return err
	}
	return e.event(ctx, tx, events.ActivityMoved, "activity", id, actorID, events.Payload{"from": from, "to": to, "position": pos})
}

// DeleteActivity removes the activity, its outcome links and its slot in the
// milestone order.
func (e Engine) DeleteActivity(ctx context.Context, id int64, actorID string) error {
	return e.tx(ctx, func(ctx context.Context, tx db.DBTX, r repo.Repo) error {
		a, err := r.GetActivity(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("activity", id)
			}
			return err
		}
		if err := r.DeleteActivity(ctx, id); err != nil {
			return err
		}
		if err := compact(ctx, r, a.MilestoneID); err != nil {
			return err
		}
		return e.event(ctx, tx, events.ActivityDeleted, "activity", id, actorID, events.Payload{"milestoneId": a.MilestoneID})
	})
}

// ReorderActivities stores activityIDs as the order of the milestone. The
// list must be a permutation of the milestone's current activities: repeated
// or missing IDs are a ValidationError, IDs from elsewhere an
// InvalidReferenceError. The stored order is returned.
func (e Engine) ReorderActivities(ctx context.Context, milestoneID int64, activityIDs []int64, actorID string) ([]domain.Activity, error) {
	var res []domain.Activity
	err := e.tx(ctx, func(ctx context.Context, tx db.DBTX, r repo.Repo) error {
		if _, err := r.GetMilestone(ctx, milestoneID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("milestone", milestoneID)
			}
			return err
		}
		current, err := r.ActivityIDs(ctx, milestoneID)
		if err != nil {
			return err
		}
		if err := planner.CheckPermutation(current, activityIDs); err != nil {
			return permutationError(milestoneID, err)
		}
		if err := r.Renumber(ctx, milestoneID, activityIDs); err != nil {
			return err
		}
		if err := e.event(ctx, tx, events.ActivityReordered, "milestone", milestoneID, actorID, events.Payload{"activityIds": activityIDs}); err != nil {
			return err
		}
		res, err = r.ListActivities(ctx, milestoneID)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.Log.Debug("activities reordered", "milestone", milestoneID, "count", len(res))
	return res, nil
}

func permutationError(milestoneID int64, err error) error {
	var perr *planner.PermutationError
	if !errors.As(err, &perr) {
		return err
	}
	details := map[string]any{"milestoneId": milestoneID}
	if perr.HasForeign() {
		details["foreign"] = perr.Foreign
		return &InvalidReferenceError{Message: "activities do not belong to milestone", Details: details}
	}
	if len(perr.Duplicates) > 0 {
		details["duplicates"] = perr.Duplicates
	}
	if len(perr.Missing) > 0 {
		details["missing"] = perr.Missing
	}
	return &ValidationError{Message: "activityIds must list every activity of the milestone exactly once", Details: details}
}

// SetCompletion marks an activity complete (completedAt = now) or incomplete
// (completedAt = null). No other column changes. Repeating the current state
// is a no-op. The note, when given, is kept in the event log.
func (e Engine) SetCompletion(ctx context.Context, id int64, completed bool, note, actorID string) (CompletionResult, error) {
	note = strings.TrimSpace(note)
	if len(note) > maxNoteLen {
		return CompletionResult{}, validationf(map[string]any{"field": "note", "max": maxNoteLen}, "note exceeds %d characters", maxNoteLen)
	}
	var res CompletionResult
	err := e.tx(ctx, func(ctx context.Context, tx db.DBTX, r repo.Repo) error {
		a, err := r.GetActivity(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("activity", id)
			}
			return err
		}
		if a.Completed() != completed {
			evt := events.ActivityReopened
			payload := events.Payload{"milestoneId": a.MilestoneID}
			if completed {
				now := e.now()
				a.CompletedAt = &now
				evt = events.ActivityCompleted
				if note != "" {
					payload["note"] = note
				}
			} else {
				a.CompletedAt = nil
			}
			if err := r.SetCompletedAt(ctx, id, a.CompletedAt); err != nil {
				return err
			}
			if err := e.event(ctx, tx, evt, "activity", id, actorID, payload); err != nil {
				return err
			}
		}
		if res.Activity, err = r.GetActivity(ctx, id); err != nil {
			return err
		}
		res.MilestoneProgress, err = loadMilestoneProgress(ctx, r, a.MilestoneID)
		return err
	})
	if err != nil {
		return CompletionResult{}, err
	}
	res.ShowNotePrompt = completed && note == "" && e.Config.Completion.PromptForNote
	return res, nil
}

func requireMilestoneRef(ctx context.Context, r repo.Repo, id int64) error {
	if _, err := r.GetMilestone(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &InvalidReferenceError{Message: "milestone does not exist", Details: map[string]any{"milestoneId": id}}
		}
		return err
	}
	return nil
}

// compact renumbers a milestone's remaining activities to 0..n-1.
func compact(ctx context.Context, r repo.Repo, milestoneID int64) error {
	ids, err := r.ActivityIDs(ctx, milestoneID)
	if err != nil {
		return err
	}
	return r.Renumber(ctx, milestoneID, ids)
}
