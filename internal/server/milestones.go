package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/engine"
)

func registerMilestones(api huma.API, h *handler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-milestone",
		Method:        http.MethodPost,
		Path:          "/milestones",
		Summary:       "Create milestone",
		DefaultStatus: http.StatusCreated,
		Errors:        errorStatuses,
	}, func(ctx context.Context, input *struct {
		Body CreateMilestoneRequest
	}) (*output[domain.Milestone], error) {
		m, err := h.e.CreateMilestone(ctx, engine.MilestoneCreateOptions{
			SubjectID:   input.Body.SubjectID,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			OutcomeIDs:  input.Body.OutcomeIDs,
			ActorID:     actorIDFromContext(ctx),
		})
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[domain.Milestone]{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-milestones",
		Method:      http.MethodGet,
		Path:        "/milestones",
		Summary:     "List milestones with progress",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		SubjectID int64 `query:"subjectId" doc:"Restrict to one subject"`
	}) (*output[[]engine.MilestoneSummary], error) {
		items, err := h.e.ListMilestones(ctx, input.SubjectID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[[]engine.MilestoneSummary]{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-milestone",
		Method:      http.MethodGet,
		Path:        "/milestones/{id}",
		Summary:     "Get milestone",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *idPath) (*output[domain.Milestone], error) {
		m, err := h.e.GetMilestone(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[domain.Milestone]{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-milestone",
		Method:      http.MethodPut,
		Path:        "/milestones/{id}",
		Summary:     "Update milestone",
		Description: "Omitted fields are left unchanged. outcomeIds replaces every outcome link.",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		ID   int64 `path:"id"`
		Body UpdateMilestoneRequest
	}) (*output[domain.Milestone], error) {
		m, err := h.e.UpdateMilestone(ctx, engine.MilestoneUpdateOptions{
			ID:          input.ID,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			OutcomeIDs:  input.Body.OutcomeIDs,
			ActorID:     actorIDFromContext(ctx),
		})
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[domain.Milestone]{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-milestone",
		Method:        http.MethodDelete,
		Path:          "/milestones/{id}",
		Summary:       "Delete milestone with its activities",
		DefaultStatus: http.StatusNoContent,
		Errors:        errorStatuses,
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := h.e.DeleteMilestone(ctx, input.ID, actorIDFromContext(ctx)); err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "milestone-progress",
		Method:      http.MethodGet,
		Path:        "/milestones/{id}/progress",
		Summary:     "Milestone progress",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *idPath) (*output[domain.MilestoneProgress], error) {
		p, err := h.e.MilestoneProgress(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[domain.MilestoneProgress]{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-milestone-activities",
		Method:      http.MethodGet,
		Path:        "/milestones/{id}/activities",
		Summary:     "List activities in stored order",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *idPath) (*output[[]domain.Activity], error) {
		items, err := h.e.ListActivities(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[[]domain.Activity]{Body: items}, nil
	})
}
