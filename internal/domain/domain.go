package domain

import "time"

type Subject struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Milestone struct {
	ID          int64         `json:"id"`
	SubjectID   int64         `json:"subjectId"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Outcomes    []OutcomeLink `json:"outcomes"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Activity is one step of a milestone. Position is its zero-based place in
// the milestone order; CompletedAt is nil until the activity is marked done.
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

// Outcome is a curriculum catalog entry. Catalog rows are reference data and
// are never written through the API.
type Outcome struct {
	ID          string `json:"id" yaml:"id"`
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
	Subject     string `json:"subject" yaml:"subject"`
	Grade       int    `json:"grade" yaml:"grade"`
	Domain      string `json:"domain,omitempty" yaml:"domain,omitempty"`
}

type OutcomeLink struct {
	Outcome Outcome `json:"outcome"`
}

type OutcomeFilter struct {
	Subject string
	Grade   *int
	Domain  string
}

// ActivityOutcome is one row of the activity/outcome link table joined with
// the activity title.
type ActivityOutcome struct {
	ActivityID    int64
	ActivityTitle string
	OutcomeID     string
	Completed     bool
}

type ActivityRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// OutcomeCoverage is derived on every request and never stored.
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

type MilestoneProgress struct {
	MilestoneID int64 `json:"milestoneId"`
	Completed   int   `json:"completed"`
	Total       int   `json:"total"`
	Percent     int   `json:"percent"`
}

// SubjectProgress counts milestones. Milestones without activities are
// reported in EmptyMilestones and excluded from both counts.
type SubjectProgress struct {
	SubjectID           int64 `json:"subjectId"`
	CompletedMilestones int   `json:"completedMilestones"`
	CountedMilestones   int   `json:"countedMilestones"`
	EmptyMilestones     int   `json:"emptyMilestones"`
	Percent             int   `json:"percent"`
}

type Suggestion struct {
	Activity          Activity `json:"activity"`
	SubjectID         int64    `json:"subjectId"`
	MilestoneTitle    string   `json:"milestoneTitle"`
	UncoveredOutcomes []string `json:"uncoveredOutcomes"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entityKind"`
	EntityID   string `json:"entityId,omitempty"`
	ActorID    string `json:"actorId"`
	Payload    string `json:"payloadJson"`
}
