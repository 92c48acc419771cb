package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
)

const activityColumns = `id,milestone_id,title,COALESCE(materials_text,''),position,completed_at,created_at,updated_at`

func scanActivity(sc interface{ Scan(...any) error }) (domain.Activity, error) {
	var (
		a                domain.Activity
		completed        sql.NullString
		created, updated string
	)
	if err := sc.Scan(&a.ID, &a.MilestoneID, &a.Title, &a.MaterialsText, &a.Position, &completed, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return a, ErrNotFound
		}
		return a, err
	}
	var err error
	if a.CreatedAt, err = parseTime(created); err != nil {
		return a, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return a, err
	}
	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return a, err
		}
		a.CompletedAt = &t
	}
	a.Outcomes = []domain.OutcomeLink{}
	return a, nil
}

// NextPosition is the position an appended activity takes in a milestone.
func (r Repo) NextPosition(ctx context.Context, milestoneID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(position)+1,0) FROM activities WHERE milestone_id=?`, milestoneID).Scan(&n)
	return n, err
}

func (r Repo) InsertActivity(ctx context.Context, a domain.Activity) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO activities(milestone_id,title,materials_text,position,completed_at,created_at,updated_at) VALUES (?,?,?,?,?,?,?)`,
		a.MilestoneID, a.Title, nullable(a.MaterialsText), a.Position, nullableTime(a.CompletedAt), formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetActivity(ctx context.Context, id int64) (domain.Activity, error) {
	a, err := scanActivity(r.DB.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id=?`, id))
	if err != nil {
		return a, err
	}
	links, err := r.activityOutcomes(ctx, []int64{id})
	if err != nil {
		return a, err
	}
	if l, ok := links[id]; ok {
		a.Outcomes = l
	}
	return a, nil
}

// ListActivities returns a milestone's activities in position order.
func (r Repo) ListActivities(ctx context.Context, milestoneID int64) ([]domain.Activity, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE milestone_id=? ORDER BY position`, milestoneID)
	if err != nil {
		return nil, err
	}
	res := []domain.Activity{}
	var ids []int64
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		res = append(res, a)
		ids = append(ids, a.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	links, err := r.activityOutcomes(ctx, ids)
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

// ActivityIDs returns the IDs of a milestone's activities in position order.
func (r Repo) ActivityIDs(ctx context.Context, milestoneID int64) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM activities WHERE milestone_id=? ORDER BY position`, milestoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateActivity writes the editable fields. Position and completion are
// managed by Renumber and SetCompletedAt.
func (r Repo) UpdateActivity(ctx context.Context, a domain.Activity) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE activities SET title=?, materials_text=?, updated_at=? WHERE id=?`,
		a.Title, nullable(a.MaterialsText), formatTime(a.UpdatedAt), a.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MoveToMilestone reparents an activity at the given position of the target
// milestone. The caller compacts the source milestone afterwards.
func (r Repo) MoveToMilestone(ctx context.Context, id, milestoneID int64, position int, updatedAt time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE activities SET milestone_id=?, position=?, updated_at=? WHERE id=?`,
		milestoneID, position, formatTime(updatedAt), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCompletedAt touches completed_at and nothing else.
func (r Repo) SetCompletedAt(ctx context.Context, id int64, at *time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE activities SET completed_at=? WHERE id=?`, nullableTime(at), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteActivity(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM activities WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Renumber stores ids as the milestone's order, positions 0..n-1. Positions
// are first moved to negative values so UNIQUE(milestone_id, position) holds
// after every statement. Must run inside a transaction.
func (r Repo) Renumber(ctx context.Context, milestoneID int64, ids []int64) error {
	if _, err := r.DB.ExecContext(ctx, `UPDATE activities SET position=-position-1 WHERE milestone_id=?`, milestoneID); err != nil {
		return fmt.Errorf("park positions: %w", err)
	}
	for i, id := range ids {
		res, err := r.DB.ExecContext(ctx, `UPDATE activities SET position=? WHERE id=? AND milestone_id=?`, i, id, milestoneID)
		if err != nil {
			return fmt.Errorf("position activity %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("activity %d in milestone %d: %w", id, milestoneID, ErrNotFound)
		}
	}
	return nil
}

func (r Repo) ReplaceActivityOutcomes(ctx context.Context, activityID int64, outcomeIDs []string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM activity_outcomes WHERE activity_id=?`, activityID); err != nil {
		return err
	}
	for _, id := range outcomeIDs {
		if _, err := r.DB.ExecContext(ctx, `INSERT OR IGNORE INTO activity_outcomes(activity_id,outcome_id) VALUES (?,?)`, activityID, id); err != nil {
			return fmt.Errorf("link outcome %s: %w", id, err)
		}
	}
	return nil
}

func (r Repo) activityOutcomes(ctx context.Context, ids []int64) (map[int64][]domain.OutcomeLink, error) {
	return r.outcomeLinks(ctx, `SELECT ao.activity_id,`+outcomeColumns+` FROM activity_outcomes ao JOIN outcomes o ON o.id=ao.outcome_id WHERE ao.activity_id IN (%s) ORDER BY o.code, o.id`, ids)
}
