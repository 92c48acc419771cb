package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

func registerEvents(api huma.API, h *handler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Event log, newest first",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		Limit  int    `query:"limit" minimum:"0" maximum:"500"`
		Cursor string `query:"cursor"`
	}) (*output[EventsPage], error) {
		limit := input.Limit
		if limit == 0 {
			limit = 100
		}
		var cursor int64
		if input.Cursor != "" {
			n, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil || n <= 0 {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			cursor = n
		}
		items, err := h.e.ListEvents(ctx, limit+1, cursor)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		page := EventsPage{Items: items}
		if len(items) > limit {
			page.Items = items[:limit]
			page.NextCursor = strconv.FormatInt(page.Items[limit-1].ID, 10)
		}
		return &output[EventsPage]{Body: page}, nil
	})
}
