package teachsdk

import "time"

// Subject mirrors the API subject model. Progress is only set by list calls.
type Subject struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"createdAt"`
	Progress  *SubjectProgress `json:"progress,omitempty"`
}

type SubjectProgress struct {
	SubjectID           int64 `json:"subjectId"`
	CompletedMilestones int   `json:"completedMilestones"`
	CountedMilestones   int   `json:"countedMilestones"`
	EmptyMilestones     int   `json:"emptyMilestones"`
	Percent             int   `json:"percent"`
}

type Milestone struct {
	ID          int64              `json:"id"`
	SubjectID   int64              `json:"subjectId"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Outcomes    []OutcomeLink      `json:"outcomes"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	Progress    *MilestoneProgress `json:"progress,omitempty"`
}

type MilestoneProgress struct {
	MilestoneID int64 `json:"milestoneId"`
	Completed   int   `json:"completed"`
	Total       int   `json:"total"`
	Percent     int   `json:"percent"`
}

// Activity mirrors the API activity model. CompletedAt is nil while the
// activity is incomplete.
type Activity struct {
	ID            int64         `json:"id"`
	MilestoneID   int64         `json:"milestoneId"`
	Title         string        `json:"title"`
	MaterialsText string        `json:"materialsText,omitempty"`
	Position      int           `json:"position"`
	CompletedAt   *time.Time    `json:"completedAt"`
	Outcomes      []OutcomeLink `json:"outcomes"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (a Activity) Completed() bool { return a.CompletedAt != nil }

type Outcome struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	Grade       int    `json:"grade"`
	Domain      string `json:"domain,omitempty"`
}

type OutcomeLink struct {
	Outcome Outcome `json:"outcome"`
}

// OutcomeFilter narrows catalog and coverage queries. A nil Grade matches
// every grade.
type OutcomeFilter struct {
	Subject string
	Grade   *int
	Domain  string
}

type ActivityRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// OutcomeCoverage lists the activities linked to one outcome. CoveredBy is a
// set; its order carries no meaning.
type OutcomeCoverage struct {
	OutcomeID string        `json:"outcomeId"`
	Code      string        `json:"code"`
	IsCovered bool          `json:"isCovered"`
	CoveredBy []ActivityRef `json:"coveredBy"`
}

type CoverageSummary struct {
	Total   int `json:"total"`
	Covered int `json:"covered"`
	Percent int `json:"percent"`
}

type CoveragePage struct {
	Items      []OutcomeCoverage `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
	Summary    CoverageSummary   `json:"summary"`
}

type CompletionResult struct {
	Activity          Activity          `json:"activity"`
	ShowNotePrompt    bool              `json:"showNotePrompt"`
	MilestoneProgress MilestoneProgress `json:"milestoneProgress"`
}

type Suggestion struct {
	Activity          Activity `json:"activity"`
	SubjectID         int64    `json:"subjectId"`
	MilestoneTitle    string   `json:"milestoneTitle"`
	UncoveredOutcomes []string `json:"uncoveredOutcomes"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entityKind"`
	EntityID   string `json:"entityId,omitempty"`
	ActorID    string `json:"actorId"`
	Payload    string `json:"payloadJson"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"nextCursor"`
}

type MilestoneInput struct {
	SubjectID   int64    `json:"subjectId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	OutcomeIDs  []string `json:"outcomeIds,omitempty"`
}

// MilestoneUpdate leaves nil fields unchanged.
type MilestoneUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	OutcomeIDs  *[]string `json:"outcomeIds,omitempty"`
}

type ActivityInput struct {
	MilestoneID   int64    `json:"milestoneId"`
	Title         string   `json:"title"`
	MaterialsText string   `json:"materialsText,omitempty"`
	OutcomeIDs    []string `json:"outcomeIds,omitempty"`
}

// ActivityUpdate leaves nil fields unchanged. A new MilestoneID moves the
// activity to the end of that milestone.
type ActivityUpdate struct {
	Title         *string   `json:"title,omitempty"`
	MaterialsText *string   `json:"materialsText,omitempty"`
	OutcomeIDs    *[]string `json:"outcomeIds,omitempty"`
	MilestoneID   *int64    `json:"milestoneId,omitempty"`
}
