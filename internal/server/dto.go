package server

import (
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
)

// Request payloads

type CreateSubjectRequest struct {
	Name string `json:"name" maxLength:"200"`
}

type UpdateSubjectRequest struct {
	Name string `json:"name" maxLength:"200"`
}

type CreateMilestoneRequest struct {
	SubjectID   int64    `json:"subjectId"`
	Title       string   `json:"title" maxLength:"200"`
	Description string   `json:"description,omitempty"`
	OutcomeIDs  []string `json:"outcomeIds,omitempty"`
}

type UpdateMilestoneRequest struct {
	Title       *string   `json:"title,omitempty" maxLength:"200"`
	Description *string   `json:"description,omitempty"`
	OutcomeIDs  *[]string `json:"outcomeIds,omitempty"`
}

type CreateActivityRequest struct {
	MilestoneID   int64    `json:"milestoneId"`
	Title         string   `json:"title" maxLength:"200"`
	MaterialsText string   `json:"materialsText,omitempty"`
	OutcomeIDs    []string `json:"outcomeIds,omitempty"`
}

type UpdateActivityRequest struct {
	Title         *string   `json:"title,omitempty" maxLength:"200"`
	MaterialsText *string   `json:"materialsText,omitempty"`
	OutcomeIDs    *[]string `json:"outcomeIds,omitempty"`
	MilestoneID   *int64    `json:"milestoneId,omitempty"`
}

// ReorderRequest carries the complete new order of one milestone.
type ReorderRequest struct {
	MilestoneID int64   `json:"milestoneId"`
	ActivityIDs []int64 `json:"activityIds"`
}

type CompletionRequest struct {
	Completed bool   `json:"completed"`
	Note      string `json:"note,omitempty" maxLength:"2000"`
}

// Response payloads

type EventsPage struct {
	Items      []domain.Event `json:"items"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

type OutcomesResponse struct {
	Items []domain.Outcome `json:"items"`
}

type output[T any] struct {
	Body T
}

type idPath struct {
	ID int64 `path:"id"`
}
