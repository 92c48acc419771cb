package repo

import (
	"context"
	"database/sql"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
)

func scanSubject(sc interface{ Scan(...any) error }) (domain.Subject, error) {
	var (
		s       domain.Subject
		created string
	)
	if err := sc.Scan(&s.ID, &s.Name, &created); err != nil {
		if err == sql.ErrNoRows {
			return s, ErrNotFound
		}
		return s, err
	}
	var err error
	s.CreatedAt, err = parseTime(created)
	return s, err
}

func (r Repo) InsertSubject(ctx context.Context, s domain.Subject) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO subjects(name,created_at) VALUES (?,?)`, s.Name, formatTime(s.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetSubject(ctx context.Context, id int64) (domain.Subject, error) {
	return scanSubject(r.DB.QueryRowContext(ctx, `SELECT id,name,created_at FROM subjects WHERE id=?`, id))
}

func (r Repo) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,created_at FROM subjects ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) UpdateSubject(ctx context.Context, id int64, name string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE subjects SET name=? WHERE id=?`, name, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteSubject(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM subjects WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
