package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
)

func registerPlanner(api huma.API, h *handler) {
	huma.Register(api, huma.Operation{
		OperationID: "planner-suggestions",
		Method:      http.MethodGet,
		Path:        "/planner/suggestions",
		Summary:     "Suggest next activities",
		Description: "Returns the first incomplete activity of each milestone, preferring those that cover uncovered outcomes.",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		SubjectID int64 `query:"subjectId"`
		Limit     int   `query:"limit" minimum:"0" maximum:"100"`
	}) (*output[[]domain.Suggestion], error) {
		items, err := h.e.Suggestions(ctx, input.SubjectID, input.Limit)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[[]domain.Suggestion]{Body: items}, nil
	})
}
