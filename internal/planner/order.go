// Package planner holds the side-effect free rules behind activity ordering,
// progress percentages, outcome coverage and next-activity suggestions.
package planner

import (
	"fmt"
	"sort"
	"strings"
)

// Move returns a copy of ids with the element at from removed and reinserted
// at to. from == to yields an unchanged copy.
func Move(ids []int64, from, to int) ([]int64, error) {
	if from < 0 || from >= len(ids) {
		return nil, fmt.Errorf("source index %d out of range [0,%d)", from, len(ids))
	}
	if to < 0 || to >= len(ids) {
		return nil, fmt.Errorf("target index %d out of range [0,%d)", to, len(ids))
	}
	out := make([]int64, len(ids))
	copy(out, ids)
	if from == to {
		return out, nil
	}
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]int64{item}, out[to:]...)...)
	return out, nil
}

// PermutationError describes why a proposed order is not a permutation of the
// current one. Foreign IDs are references outside the current set; duplicates
// and missing IDs are malformed payloads.
type PermutationError struct {
	Duplicates []int64
	Missing    []int64
	Foreign    []int64
}

func (e *PermutationError) Error() string {
	var parts []string
	if len(e.Foreign) > 0 {
		parts = append(parts, fmt.Sprintf("unknown activity ids %v", e.Foreign))
	}
	if len(e.Duplicates) > 0 {
		parts = append(parts, fmt.Sprintf("duplicate activity ids %v", e.Duplicates))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing activity ids %v", e.Missing))
	}
	return "invalid order: " + strings.Join(parts, "; ")
}

// HasForeign reports whether the order referenced IDs outside the current set.
func (e *PermutationError) HasForeign() bool { return len(e.Foreign) > 0 }

// CheckPermutation verifies that proposed contains every id of current exactly
// once and nothing else.
func CheckPermutation(current, proposed []int64) error {
	known := make(map[int64]bool, len(current))
	for _, id := range current {
		known[id] = true
	}
	seen := make(map[int64]bool, len(proposed))
	perr := &PermutationError{}
	for _, id := range proposed {
		switch {
		case !known[id]:
			perr.Foreign = append(perr.Foreign, id)
		case seen[id]:
			perr.Duplicates = append(perr.Duplicates, id)
		}
		seen[id] = true
	}
	for _, id := range current {
		if !seen[id] {
			perr.Missing = append(perr.Missing, id)
		}
	}
	if len(perr.Foreign)+len(perr.Duplicates)+len(perr.Missing) == 0 {
		return nil
	}
	sortIDs(perr.Foreign)
	sortIDs(perr.Duplicates)
	sortIDs(perr.Missing)
	return perr
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
