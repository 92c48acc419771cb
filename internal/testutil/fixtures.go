package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/repo"
)

var outcomeCounter atomic.Int64

// Outcome options
type OutcomeOption func(*domain.Outcome)

func WithGrade(g int) OutcomeOption {
	return func(o *domain.Outcome) {
		o.Grade = g
	}
}

func WithSubject(s string) OutcomeOption {
	return func(o *domain.Outcome) {
		o.Subject = s
	}
}

func WithDomain(d string) OutcomeOption {
	return func(o *domain.Outcome) {
		o.Domain = d
	}
}

func NewTestOutcome(code string, opts ...OutcomeOption) domain.Outcome {
	if code == "" {
		code = fmt.Sprintf("T1.XX.%d", outcomeCounter.Add(1))
	}
	o := domain.Outcome{
		ID:          code,
		Code:        code,
		Description: "outcome " + code,
		Subject:     "FRA",
		Grade:       1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Activity options
type ActivityOption func(*domain.Activity)

func WithMaterials(text string) ActivityOption {
	return func(a *domain.Activity) {
		a.MaterialsText = text
	}
}

func WithCompletedAt(t time.Time) ActivityOption {
	return func(a *domain.Activity) {
		a.CompletedAt = &t
	}
}

// WithOutcomes links the activity to the given outcome IDs once seeded.
func WithOutcomes(ids ...string) ActivityOption {
	return func(a *domain.Activity) {
		for _, id := range ids {
			a.Outcomes = append(a.Outcomes, domain.OutcomeLink{Outcome: domain.Outcome{ID: id}})
		}
	}
}

// Seeder writes fixtures straight through the repository, bypassing the
// engine's events and validation.
type Seeder struct {
	T    *testing.T
	Repo repo.Repo
}

func NewSeeder(t *testing.T, r repo.Repo) *Seeder {
	return &Seeder{T: t, Repo: r}
}

func (s *Seeder) Outcome(code string, opts ...OutcomeOption) domain.Outcome {
	s.T.Helper()
	o := NewTestOutcome(code, opts...)
	if err := s.Repo.UpsertOutcome(context.Background(), o); err != nil {
		s.T.Fatalf("seed outcome: %v", err)
	}
	return o
}

func (s *Seeder) Subject(name string) domain.Subject {
	s.T.Helper()
	subj := domain.Subject{Name: name, CreatedAt: time.Now().UTC()}
	id, err := s.Repo.InsertSubject(context.Background(), subj)
	if err != nil {
		s.T.Fatalf("seed subject: %v", err)
	}
	subj.ID = id
	return subj
}

func (s *Seeder) Milestone(subjectID int64, title string) domain.Milestone {
	s.T.Helper()
	now := time.Now().UTC()
	m := domain.Milestone{SubjectID: subjectID, Title: title, CreatedAt: now, UpdatedAt: now, Outcomes: []domain.OutcomeLink{}}
	id, err := s.Repo.InsertMilestone(context.Background(), m)
	if err != nil {
		s.T.Fatalf("seed milestone: %v", err)
	}
	m.ID = id
	return m
}

// Activity appends an activity to the end of the milestone.
func (s *Seeder) Activity(milestoneID int64, title string, opts ...ActivityOption) domain.Activity {
	s.T.Helper()
	ctx := context.Background()
	pos, err := s.Repo.NextPosition(ctx, milestoneID)
	if err != nil {
		s.T.Fatalf("seed activity position: %v", err)
	}
	now := time.Now().UTC()
	a := domain.Activity{MilestoneID: milestoneID, Title: title, Position: pos, CreatedAt: now, UpdatedAt: now}
	for _, opt := range opts {
		opt(&a)
	}
	id, err := s.Repo.InsertActivity(ctx, a)
	if err != nil {
		s.T.Fatalf("seed activity: %v", err)
	}
	a.ID = id
	if len(a.Outcomes) > 0 {
		ids := make([]string, len(a.Outcomes))
		for i, l := range a.Outcomes {
			ids[i] = l.Outcome.ID
		}
		if err := s.Repo.ReplaceActivityOutcomes(ctx, id, ids); err != nil {
			s.T.Fatalf("seed activity outcomes: %v", err)
		}
	}
	return a
}
