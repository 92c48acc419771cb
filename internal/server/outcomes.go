package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/engine"
)

type OutcomeFilterInput struct {
	Subject string `query:"subject" doc:"Subject code, e.g. FRA"`
	Grade   string `query:"grade" doc:"Grade level"`
	Domain  string `query:"domain"`
}

// filter converts query params. Grade arrives as a string so that an absent
// grade can be told apart from grade 0.
func (in OutcomeFilterInput) filter() (domain.OutcomeFilter, error) {
	f := domain.OutcomeFilter{Subject: strings.TrimSpace(in.Subject), Domain: strings.TrimSpace(in.Domain)}
	if g := strings.TrimSpace(in.Grade); g != "" {
		n, err := strconv.Atoi(g)
		if err != nil {
			return f, &engine.ValidationError{Message: "grade must be an integer", Details: map[string]any{"grade": in.Grade}}
		}
		f.Grade = &n
	}
	return f, nil
}

func registerOutcomes(api huma.API, h *handler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-outcomes",
		Method:      http.MethodGet,
		Path:        "/outcomes",
		Summary:     "List catalog outcomes",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *OutcomeFilterInput) (*output[OutcomesResponse], error) {
		f, err := input.filter()
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		items, err := h.e.ListOutcomes(ctx, f)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[OutcomesResponse]{Body: OutcomesResponse{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "outcome-coverage",
		Method:      http.MethodGet,
		Path:        "/outcomes/coverage",
		Summary:     "Outcome coverage report",
		Description: "limit=0 returns every matching outcome. Otherwise follow nextCursor until it is empty.",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		OutcomeFilterInput
		Limit  int    `query:"limit" minimum:"0"`
		Cursor string `query:"cursor"`
	}) (*output[engine.CoveragePage], error) {
		f, err := input.filter()
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		page, err := h.e.Coverage(ctx, engine.CoverageQuery{Filter: f, Limit: input.Limit, Cursor: input.Cursor})
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[engine.CoveragePage]{Body: page}, nil
	})
}
