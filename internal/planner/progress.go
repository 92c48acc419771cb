package planner

import "math"

// Counts is the number of activities of one milestone and how many of them
// are completed.
type Counts struct {
	Total     int
	Completed int
}

// Complete reports whether every activity is done. A milestone without
// activities is never complete.
func (c Counts) Complete() bool {
	return c.Total > 0 && c.Completed == c.Total
}

// Percent rounds 100*n/d to the nearest integer; a zero denominator is 0%.
func Percent(n, d int) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(n) / float64(d)))
}

func MilestonePercent(c Counts) int {
	return Percent(c.Completed, c.Total)
}

// SubjectTally is the milestone-level aggregate for a subject.
type SubjectTally struct {
	Completed int
	Counted   int
	Empty     int
}

func (t SubjectTally) Percent() int {
	return Percent(t.Completed, t.Counted)
}

// TallySubject counts complete milestones over milestones that have at least
// one activity; empty milestones are left out of both sides.
func TallySubject(milestones []Counts) SubjectTally {
	var t SubjectTally
	for _, c := range milestones {
		if c.Total == 0 {
			t.Empty++
			continue
		}
		t.Counted++
		if c.Complete() {
			t.Completed++
		}
	}
	return t
}
