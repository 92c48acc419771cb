package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/db"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/planner"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/repo"
)

// CoverageQuery filters and pages the coverage report. Limit 0 returns every
// matching outcome; larger limits are clamped to coverage.max_page_size.
type CoverageQuery struct {
	Filter domain.OutcomeFilter
	Limit  int
	Cursor string
}

type CoveragePage struct {
	Items      []domain.OutcomeCoverage `json:"items"`
	NextCursor string                   `json:"nextCursor,omitempty"`
	Summary    domain.CoverageSummary   `json:"summary"`
}

// Coverage reports, per catalog outcome, which activities link to it. The
// summary counts the whole filtered catalog regardless of paging.
func (e Engine) Coverage(ctx context.Context, q CoverageQuery) (CoveragePage, error) {
	if q.Limit < 0 {
		return CoveragePage{}, validationf(map[string]any{"limit": q.Limit}, "limit must not be negative")
	}
	limit := q.Limit
	if maxPage := e.Config.Coverage.MaxPageSize; limit > maxPage {
		limit = maxPage
	}
	afterCode, afterID, err := parseCompositeCursor(q.Cursor)
	if err != nil {
		return CoveragePage{}, validationf(map[string]any{"cursor": q.Cursor}, "invalid cursor")
	}
	var page CoveragePage
	err = e.tx(ctx, func(ctx context.Context, _ db.DBTX, r repo.Repo) error {
		fetch := 0
		if limit > 0 {
			fetch = limit + 1
		}
		outcomes, err := r.ListOutcomes(ctx, q.Filter, repo.OutcomePage{Limit: fetch, AfterCode: afterCode, AfterID: afterID})
		if err != nil {
			return err
		}
		if limit > 0 && len(outcomes) > limit {
			outcomes = outcomes[:limit]
			last := outcomes[limit-1]
			page.NextCursor = composeCursor(last.Code, last.ID)
		}
		ids := make([]string, len(outcomes))
		for i, o := range outcomes {
			ids[i] = o.ID
		}
		links, err := r.LinksForOutcomes(ctx, ids)
		if err != nil {
			return err
		}
		page.Items = planner.Coverage(outcomes, links)
		total, covered, err := r.CountCoverage(ctx, q.Filter)
		if err != nil {
			return err
		}
		page.Summary = domain.CoverageSummary{Total: total, Covered: covered, Percent: planner.Percent(covered, total)}
		return nil
	})
	if err != nil {
		return CoveragePage{}, err
	}
	return page, nil
}

func (e Engine) ListOutcomes(ctx context.Context, f domain.OutcomeFilter) ([]domain.Outcome, error) {
	return e.Repo.ListOutcomes(ctx, f, repo.OutcomePage{})
}

// Coverage cursors are the base64url JSON pair [code, id] of the last row
// served. Both parts are free-form catalog strings, so no separator is safe.
func parseCompositeCursor(cursor string) (string, string, error) {
	if cursor == "" {
		return "", "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", "", err
	}
	var pair []string
	if err := json.Unmarshal(raw, &pair); err != nil {
		return "", "", err
	}
	if len(pair) != 2 || pair[0] == "" || pair[1] == "" {
		return "", "", fmt.Errorf("cursor must hold a code and an id")
	}
	return pair[0], pair[1], nil
}

func composeCursor(code, id string) string {
	raw, _ := json.Marshal([]string{code, id})
	return base64.RawURLEncoding.EncodeToString(raw)
}
