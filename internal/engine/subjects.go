package engine

import (
	"context"
	"errors"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/db"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/events"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/planner"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/repo"
)

// SubjectSummary is a subject with its progress aggregate.
type SubjectSummary struct {
	domain.Subject
	Progress domain.SubjectProgress `json:"progress"`
}

func (e Engine) CreateSubject(ctx context.Context, name, actorID string) (domain.Subject, error) {
	name, err := requireTitle("name", name)
	if err != nil {
		return domain.Subject{}, err
	}
	s := domain.Subject{Name: name, CreatedAt: e.now()}
	err = e.tx(ctx, func(ctx context.Context, tx db.DBTX, r repo.Repo) error {
		id, err := r.InsertSubject(ctx, s)
		if err != nil {
			return err
		}
		s.ID = id
		return e.event(ctx, tx, events.SubjectCreated, "subject", id, actorID, events.Payload{"name": name})
	})
	return s, err
}

func (e Engine) GetSubject(ctx context.Context, id int64) (domain.Subject, error) {
	s, err := e.Repo.GetSubject(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return s, notFound("subject", id)
	}
	return s, err
}

// ListSubjects returns every subject with its progress.
func (e Engine) ListSubjects(ctx context.Context) ([]SubjectSummary, error) {
	subjects, err := e.Repo.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := e.Repo.MilestoneCounts(ctx, 0)
	if err != nil {
		return nil, err
	}
	bySubject := map[int64][]planner.Counts{}
	for _, c := range counts {
		bySubject[c.SubjectID] = append(bySubject[c.SubjectID], planner.Counts{Total: c.Total, Completed: c.Completed})
	}
	res := make([]SubjectSummary, 0, len(subjects))
	for _, s := range subjects {
		res = append(res, SubjectSummary{Subject: s, Progress: subjectProgress(s.ID, bySubject[s.ID])})
	}
	return res, nil
}

func (e Engine) RenameSubject(ctx context.Context, id int64, name, actorID string) (domain.Subject, error) {
	name, err := requireTitle("name", name)
	if err != nil {
		return domain.Subject{}, err
	}
	var s domain.Subject
	err = e.tx(ctx, func(ctx context.Context, tx db.DBTX, r repo.Repo) error {
		if err := r.UpdateSubject(ctx, id, name); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("subject", id)
			}
			return err
		}
		if s, err = r.GetSubject(ctx, id); err != nil {
			return err
		}
		return e.event(ctx, tx, events.SubjectUpdated, "subject", id, actorID, events.Payload{"name": name})
	})
	return s, err
}

// DeleteSubject removes the subject with its milestones and activities.
func (e Engine) DeleteSubject(ctx context.Context, id int64, actorID string) error {
	return e.tx(ctx, func(ctx context.Context, tx db.DBTX, r repo.Repo) error {
		if err := r.DeleteSubject(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return notFound("subject", id)
			}
			return err
		}
		return e.event(ctx, tx, events.SubjectDeleted, "subject", id, actorID, nil)
	})
}

func (e Engine) SubjectProgress(ctx context.Context, id int64) (domain.SubjectProgress, error) {
	if _, err := e.GetSubject(ctx, id); err != nil {
		return domain.SubjectProgress{}, err
	}
	counts, err := e.Repo.MilestoneCounts(ctx, id)
	if err != nil {
		return domain.SubjectProgress{}, err
	}
	tallies := make([]planner.Counts, len(counts))
	for i, c := range counts {
		tallies[i] = planner.Counts{Total: c.Total, Completed: c.Completed}
	}
	return subjectProgress(id, tallies), nil
}

func subjectProgress(id int64, counts []planner.Counts) domain.SubjectProgress {
	t := planner.TallySubject(counts)
	return domain.SubjectProgress{
		SubjectID:           id,
		CompletedMilestones: t.Completed,
		CountedMilestones:   t.Counted,
		EmptyMilestones:     t.Empty,
		Percent:             t.Percent(),
	}
}
