package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/engine"
)

func registerSubjects(api huma.API, h *handler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-subject",
		Method:        http.MethodPost,
		Path:          "/subjects",
		Summary:       "Create subject",
		DefaultStatus: http.StatusCreated,
		Errors:        errorStatuses,
	}, func(ctx context.Context, input *struct {
		Body CreateSubjectRequest
	}) (*output[domain.Subject], error) {
		s, err := h.e.CreateSubject(ctx, input.Body.Name, actorIDFromContext(ctx))
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[domain.Subject]{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-subjects",
		Method:      http.MethodGet,
		Path:        "/subjects",
		Summary:     "List subjects with progress",
		Errors:      errorStatuses,
	}, func(ctx context.Context, _ *struct{}) (*output[[]engine.SubjectSummary], error) {
		items, err := h.e.ListSubjects(ctx)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[[]engine.SubjectSummary]{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-subject",
		Method:      http.MethodGet,
		Path:        "/subjects/{id}",
		Summary:     "Get subject",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *idPath) (*output[domain.Subject], error) {
		s, err := h.e.GetSubject(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[domain.Subject]{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-subject",
		Method:      http.MethodPut,
		Path:        "/subjects/{id}",
		Summary:     "Rename subject",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		ID   int64 `path:"id"`
		Body UpdateSubjectRequest
	}) (*output[domain.Subject], error) {
		s, err := h.e.RenameSubject(ctx, input.ID, input.Body.Name, actorIDFromContext(ctx))
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[domain.Subject]{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-subject",
		Method:        http.MethodDelete,
		Path:          "/subjects/{id}",
		Summary:       "Delete subject with its milestones and activities",
		DefaultStatus: http.StatusNoContent,
		Errors:        errorStatuses,
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := h.e.DeleteSubject(ctx, input.ID, actorIDFromContext(ctx)); err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "subject-progress",
		Method:      http.MethodGet,
		Path:        "/subjects/{id}/progress",
		Summary:     "Subject progress",
		Description: "Milestones whose activities are all complete over milestones with at least one activity. Empty milestones count on neither side.",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *idPath) (*output[domain.SubjectProgress], error) {
		p, err := h.e.SubjectProgress(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[domain.SubjectProgress]{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-subject-milestones",
		Method:      http.MethodGet,
		Path:        "/subjects/{id}/milestones",
		Summary:     "List milestones of a subject with progress",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *idPath) (*output[[]engine.MilestoneSummary], error) {
		items, err := h.e.ListMilestones(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[[]engine.MilestoneSummary]{Body: items}, nil
	})
}
