package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
)

const milestoneColumns = `id,subject_id,title,COALESCE(description,''),created_at,updated_at`

// MilestoneCount is the activity tally of one milestone.
type MilestoneCount struct {
	MilestoneID int64
	SubjectID   int64
	Total       int
	Completed   int
}

func scanMilestone(sc interface{ Scan(...any) error }) (domain.Milestone, error) {
	var (
		m                domain.Milestone
		created, updated string
	)
	if err := sc.Scan(&m.ID, &m.SubjectID, &m.Title, &m.Description, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return m, ErrNotFound
		}
		return m, err
	}
	var err error
	if m.CreatedAt, err = parseTime(created); err != nil {
		return m, err
	}
	m.UpdatedAt, err = parseTime(updated)
	m.Outcomes = []domain.OutcomeLink{}
	return m, err
}

func (r Repo) InsertMilestone(ctx context.Context, m domain.Milestone) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO milestones(subject_id,title,description,created_at,updated_at) VALUES (?,?,?,?,?)`,
		m.SubjectID, m.Title, nullable(m.Description), formatTime(m.CreatedAt), formatTime(m.UpdatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetMilestone(ctx context.Context, id int64) (domain.Milestone, error) {
	m, err := scanMilestone(r.DB.QueryRowContext(ctx, `SELECT `+milestoneColumns+` FROM milestones WHERE id=?`, id))
	if err != nil {
		return m, err
	}
	links, err := r.milestoneOutcomes(ctx, []int64{id})
	if err != nil {
		return m, err
	}
	if l, ok := links[id]; ok {
		m.Outcomes = l
	}
	return m, nil
}

// ListMilestones returns milestones of one subject, or of every subject when
// subjectID is zero, ordered by ID.
func (r Repo) ListMilestones(ctx context.Context, subjectID int64) ([]domain.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones`
	var args []any
	if subjectID != 0 {
		query += ` WHERE subject_id=?`
		args = append(args, subjectID)
	}
	query += ` ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	res := []domain.Milestone{}
	var ids []int64
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		res = append(res, m)
		ids = append(ids, m.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	links, err := r.milestoneOutcomes(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range res {
		if l, ok := links[res[i].ID]; ok {
			res[i].Outcomes = l
		}
	}
	return res, nil
}

func (r Repo) UpdateMilestone(ctx context.Context, m domain.Milestone) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE milestones SET title=?, description=?, updated_at=? WHERE id=?`,
		m.Title, nullable(m.Description), formatTime(m.UpdatedAt), m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteMilestone(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM milestones WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ReplaceMilestoneOutcomes(ctx context.Context, milestoneID int64, outcomeIDs []string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM milestone_outcomes WHERE milestone_id=?`, milestoneID); err != nil {
		return err
	}
	for _, id := range outcomeIDs {
		if _, err := r.DB.ExecContext(ctx, `INSERT OR IGNORE INTO milestone_outcomes(milestone_id,outcome_id) VALUES (?,?)`, milestoneID, id); err != nil {
			return fmt.Errorf("link outcome %s: %w", id, err)
		}
	}
	return nil
}

func (r Repo) milestoneOutcomes(ctx context.Context, ids []int64) (map[int64][]domain.OutcomeLink, error) {
	return r.outcomeLinks(ctx, `SELECT mo.milestone_id,`+outcomeColumns+` FROM milestone_outcomes mo JOIN outcomes o ON o.id=mo.outcome_id WHERE mo.milestone_id IN (%s) ORDER BY o.code, o.id`, ids)
}

// MilestoneCounts tallies activities per milestone. A zero subjectID covers
// every milestone. Milestones without activities are included with zero
// counts.
func (r Repo) MilestoneCounts(ctx context.Context, subjectID int64) ([]MilestoneCount, error) {
	query := `SELECT m.id, m.subject_id, COUNT(a.id), COUNT(a.completed_at) FROM milestones m LEFT JOIN activities a ON a.milestone_id=m.id`
	var args []any
	if subjectID != 0 {
		query += ` WHERE m.subject_id=?`
		args = append(args, subjectID)
	}
	query += ` GROUP BY m.id, m.subject_id ORDER BY m.id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []MilestoneCount
	for rows.Next() {
		var c MilestoneCount
		if err := rows.Scan(&c.MilestoneID, &c.SubjectID, &c.Total, &c.Completed); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) CountMilestoneActivities(ctx context.Context, milestoneID int64) (MilestoneCount, error) {
	c := MilestoneCount{MilestoneID: milestoneID}
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(id), COUNT(completed_at) FROM activities WHERE milestone_id=?`, milestoneID).
		Scan(&c.Total, &c.Completed)
	return c, err
}
