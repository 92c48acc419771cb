package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/engine"
)

func registerActivities(api huma.API, h *handler) {
	huma.Register(api, huma.Operation{
		OperationID: "reorder-activities",
		Method:      http.MethodPatch,
		Path:        "/activities/reorder",
		Summary:     "Reorder the activities of a milestone",
		Description: "activityIds must list every activity of the milestone exactly once. Returns the stored order.",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		Body ReorderRequest
	}) (*output[[]domain.Activity], error) {
		items, err := h.e.ReorderActivities(ctx, input.Body.MilestoneID, input.Body.ActivityIDs, actorIDFromContext(ctx))
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[[]domain.Activity]{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-activity",
		Method:        http.MethodPost,
		Path:          "/activities",
		Summary:       "Append an activity to a milestone",
		DefaultStatus: http.StatusCreated,
		Errors:        errorStatuses,
	}, func(ctx context.Context, input *struct {
		Body CreateActivityRequest
	}) (*output[domain.Activity], error) {
		a, err := h.e.CreateActivity(ctx, engine.ActivityCreateOptions{
			MilestoneID:   input.Body.MilestoneID,
			Title:         input.Body.Title,
			MaterialsText: input.Body.MaterialsText,
			OutcomeIDs:    input.Body.OutcomeIDs,
			ActorID:       actorIDFromContext(ctx),
		})
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[domain.Activity]{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-activity",
		Method:      http.MethodGet,
		Path:        "/activities/{id}",
		Summary:     "Get activity",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *idPath) (*output[domain.Activity], error) {
		a, err := h.e.GetActivity(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[domain.Activity]{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-activity",
		Method:      http.MethodPut,
		Path:        "/activities/{id}",
		Summary:     "Update activity",
		Description: "Omitted fields are left unchanged. A new milestoneId moves the activity to the end of that milestone.",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		ID   int64 `path:"id"`
		Body UpdateActivityRequest
	}) (*output[domain.Activity], error) {
		a, err := h.e.UpdateActivity(ctx, engine.ActivityUpdateOptions{
			ID:            input.ID,
			Title:         input.Body.Title,
			MaterialsText: input.Body.MaterialsText,
			OutcomeIDs:    input.Body.OutcomeIDs,
			MilestoneID:   input.Body.MilestoneID,
			ActorID:       actorIDFromContext(ctx),
		})
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[domain.Activity]{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-activity",
		Method:        http.MethodDelete,
		Path:          "/activities/{id}",
		Summary:       "Delete activity",
		DefaultStatus: http.StatusNoContent,
		Errors:        errorStatuses,
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := h.e.DeleteActivity(ctx, input.ID, actorIDFromContext(ctx)); err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-activity-completion",
		Method:      http.MethodPut,
		Path:        "/activities/{id}/complete",
		Summary:     "Mark an activity complete or incomplete",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		ID   int64 `path:"id"`
		Body CompletionRequest
	}) (*output[engine.CompletionResult], error) {
		res, err := h.e.SetCompletion(ctx, input.ID, input.Body.Completed, input.Body.Note, actorIDFromContext(ctx))
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &output[engine.CompletionResult]{Body: res}, nil
	})
}
