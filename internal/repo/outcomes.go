package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
)

const outcomeColumns = `o.id,o.code,o.description,o.subject,o.grade,COALESCE(o.domain,'')`

// OutcomePage selects a window of the catalog in (code, id) order. A zero
// Limit means no limit; AfterCode/AfterID resume after the given row.
type OutcomePage struct {
	Limit     int
	AfterCode string
	AfterID   string
}

func scanOutcome(sc interface{ Scan(...any) error }, extra ...any) (domain.Outcome, error) {
	var o domain.Outcome
	dest := append(extra, &o.ID, &o.Code, &o.Description, &o.Subject, &o.Grade, &o.Domain)
	err := sc.Scan(dest...)
	return o, err
}

func filterClauses(f domain.OutcomeFilter) ([]string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Subject != "" {
		clauses = append(clauses, "o.subject=?")
		args = append(args, f.Subject)
	}
	if f.Grade != nil {
		clauses = append(clauses, "o.grade=?")
		args = append(args, *f.Grade)
	}
	if f.Domain != "" {
		clauses = append(clauses, "o.domain=?")
		args = append(args, f.Domain)
	}
	return clauses, args
}

func where(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

func (r Repo) UpsertOutcome(ctx context.Context, o domain.Outcome) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO outcomes(id,code,description,subject,grade,domain) VALUES (?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET code=excluded.code, description=excluded.description, subject=excluded.subject, grade=excluded.grade, domain=excluded.domain`,
		o.ID, o.Code, o.Description, o.Subject, o.Grade, nullable(o.Domain))
	return err
}

func (r Repo) ListOutcomes(ctx context.Context, f domain.OutcomeFilter, page OutcomePage) ([]domain.Outcome, error) {
	clauses, args := filterClauses(f)
	if page.AfterCode != "" || page.AfterID != "" {
		clauses = append(clauses, "(o.code > ? OR (o.code = ? AND o.id > ?))")
		args = append(args, page.AfterCode, page.AfterCode, page.AfterID)
	}
	query := `SELECT ` + outcomeColumns + ` FROM outcomes o` + where(clauses) + ` ORDER BY o.code, o.id`
	if page.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, page.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Outcome{}
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

// OutcomeIDsByCode maps each stored code among codes to its outcome ID.
func (r Repo) OutcomeIDsByCode(ctx context.Context, codes []string) (map[string]string, error) {
	out := map[string]string{}
	for _, batch := range chunks(codes) {
		rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`SELECT code, id FROM outcomes WHERE code IN (%s)`, placeholders(len(batch))), anyArgs(batch)...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var code, id string
			if err := rows.Scan(&code, &id); err != nil {
				rows.Close()
				return nil, err
			}
			out[code] = id
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MissingOutcomes returns the IDs that are not in the catalog.
func (r Repo) MissingOutcomes(ctx context.Context, ids []string) ([]string, error) {
	found := map[string]bool{}
	for _, batch := range chunks(ids) {
		rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`SELECT id FROM outcomes WHERE id IN (%s)`, placeholders(len(batch))), anyArgs(batch)...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			found[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	var missing []string
	seen := map[string]bool{}
	for _, id := range ids {
		if !found[id] && !seen[id] {
			missing = append(missing, id)
			seen[id] = true
		}
	}
	return missing, nil
}

// CountCoverage counts the outcomes matching f and how many of them are
// linked to at least one activity.
func (r Repo) CountCoverage(ctx context.Context, f domain.OutcomeFilter) (total, covered int, err error) {
	clauses, args := filterClauses(f)
	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN EXISTS (SELECT 1 FROM activity_outcomes ao WHERE ao.outcome_id=o.id) THEN 1 ELSE 0 END),0) FROM outcomes o` + where(clauses)
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(&total, &covered)
	return total, covered, err
}

// LinksForOutcomes returns every activity link of the given outcomes.
func (r Repo) LinksForOutcomes(ctx context.Context, outcomeIDs []string) ([]domain.ActivityOutcome, error) {
	var res []domain.ActivityOutcome
	for _, batch := range chunks(outcomeIDs) {
		links, err := r.queryLinks(ctx, fmt.Sprintf(` WHERE ao.outcome_id IN (%s)`, placeholders(len(batch))), anyArgs(batch)...)
		if err != nil {
			return nil, err
		}
		res = append(res, links...)
	}
	return res, nil
}

// ActivityLinks returns every activity/outcome link.
func (r Repo) ActivityLinks(ctx context.Context) ([]domain.ActivityOutcome, error) {
	return r.queryLinks(ctx, "")
}

func (r Repo) queryLinks(ctx context.Context, whereSQL string, args ...any) ([]domain.ActivityOutcome, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT ao.activity_id, a.title, ao.outcome_id, a.completed_at IS NOT NULL
FROM activity_outcomes ao JOIN activities a ON a.id=ao.activity_id`+whereSQL+` ORDER BY ao.outcome_id, ao.activity_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ActivityOutcome
	for rows.Next() {
		var (
			l    domain.ActivityOutcome
			done int
		)
		if err := rows.Scan(&l.ActivityID, &l.ActivityTitle, &l.OutcomeID, &done); err != nil {
			return nil, err
		}
		l.Completed = done != 0
		res = append(res, l)
	}
	return res, rows.Err()
}

// outcomeLinks runs a query whose first column is the owner ID followed by
// outcomeColumns; %s in query receives the IN placeholders.
func (r Repo) outcomeLinks(ctx context.Context, query string, ids []int64) (map[int64][]domain.OutcomeLink, error) {
	res := map[int64][]domain.OutcomeLink{}
	for _, batch := range chunks(ids) {
		rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(query, placeholders(len(batch))), anyArgs(batch)...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var owner int64
			o, err := scanOutcome(rows, &owner)
			if err != nil {
				rows.Close()
				return nil, err
			}
			res[owner] = append(res[owner], domain.OutcomeLink{Outcome: o})
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return res, nil
}
