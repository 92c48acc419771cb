package teachsdk

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/planner"
)

// Board is the client view of one milestone's ordered activities.
//
// It keeps the last server-confirmed list and, while a reorder or completion
// request is in flight, an optimistic overlay that is shown instead. Every
// mutation takes a sequence number and only the newest one may settle the
// overlay: on success the server's answer becomes the confirmed list, on
// failure the overlay is dropped so the confirmed list shows again. Results
// of superseded mutations are discarded, and once nothing is in flight the
// board refetches so overlapping requests converge on what the server stored
// last. A fetch always replaces the confirmed list wholesale.
type Board struct {
	client      *Client
	milestoneID int64
	// OnError receives every failure of the newest mutation, for display.
	OnError func(error)
	// Now stamps optimistic completions.
	Now func() time.Time

	mu         sync.Mutex
	confirmed  []Activity
	overlay    []Activity
	seq        uint64
	inFlight   int
	superseded bool
	gone       bool
}

func NewBoard(c *Client, milestoneID int64) *Board {
	return &Board{client: c, milestoneID: milestoneID, Now: time.Now}
}

func (b *Board) MilestoneID() int64 { return b.milestoneID }

// Load replaces the confirmed list and drops any overlay. The result is
// discarded if a mutation started while the fetch was running, since that
// mutation settles the board itself.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	start := b.seq
	b.mu.Unlock()

	b.client.invalidate(idKey(CacheActivities, b.milestoneID))
	list, err := b.client.ListActivities(ctx, b.milestoneID)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil && !IsNotFound(err) {
		return err
	}
	if b.seq != start {
		return err
	}
	b.overlay = nil
	if err != nil {
		b.gone = true
		b.confirmed = nil
		return err
	}
	b.gone = false
	b.confirmed = slices.Clone(list)
	return nil
}

// Activities returns what should be displayed: the overlay if a mutation is
// pending, else the confirmed list.
func (b *Board) Activities() []Activity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.view())
}

func (b *Board) Confirmed() []Activity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.confirmed)
}

// Pending reports whether an optimistic overlay is displayed.
func (b *Board) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overlay != nil
}

// Gone reports whether the milestone no longer exists on the server.
func (b *Board) Gone() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gone
}

func (b *Board) view() []Activity {
	if b.overlay != nil {
		return b.overlay
	}
	return b.confirmed
}

// Move drags the activity at from to index to and submits the full new order.
// Equal indexes are a no-op.
func (b *Board) Move(ctx context.Context, from, to int) error {
	b.mu.Lock()
	view := b.view()
	ids := make([]int64, len(view))
	for i, a := range view {
		ids[i] = a.ID
	}
	next, err := planner.Move(ids, from, to)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	if from == to {
		b.mu.Unlock()
		return nil
	}
	b.overlay = arrange(view, next)
	seq := b.begin()
	b.mu.Unlock()

	echo, err := b.client.ReorderActivities(ctx, b.milestoneID, next)
	return b.settle(ctx, seq, err, func() {
		b.confirmed = slices.Clone(echo)
	})
}

// Toggle flips the completion of one activity as currently displayed. The
// result carries the server's prompt flag and the milestone's new progress.
func (b *Board) Toggle(ctx context.Context, activityID int64) (CompletionResult, error) {
	return b.complete(ctx, activityID, func(current bool) bool { return !current }, "")
}

// SetCompletion applies the completion state optimistically and submits it.
func (b *Board) SetCompletion(ctx context.Context, activityID int64, completed bool, note string) (CompletionResult, error) {
	return b.complete(ctx, activityID, func(bool) bool { return completed }, note)
}

// complete picks the target state from the displayed one and applies it to
// the overlay in a single critical section, so concurrent toggles each see
// the previous toggle's result.
func (b *Board) complete(ctx context.Context, activityID int64, target func(current bool) bool, note string) (CompletionResult, error) {
	b.mu.Lock()
	overlay := slices.Clone(b.view())
	// activities missing from the board count as incomplete
	completed := target(false)
	for i := range overlay {
		if overlay[i].ID != activityID {
			continue
		}
		completed = target(overlay[i].Completed())
		if completed {
			ts := b.Now().UTC()
			overlay[i].CompletedAt = &ts
		} else {
			overlay[i].CompletedAt = nil
		}
	}
	b.overlay = overlay
	seq := b.begin()
	b.mu.Unlock()

	res, err := b.client.SetCompletion(ctx, activityID, completed, note)
	err = b.settle(ctx, seq, err, func() {
		confirmed := slices.Clone(b.confirmed)
		for i := range confirmed {
			if confirmed[i].ID == activityID {
				confirmed[i] = res.Activity
			}
		}
		b.confirmed = confirmed
	})
	if err != nil {
		return CompletionResult{}, err
	}
	return res, nil
}

// begin must be called with mu held.
func (b *Board) begin() uint64 {
	b.seq++
	b.inFlight++
	return b.seq
}

// settle finishes mutation seq. apply runs under the lock when seq succeeded
// and is still the newest mutation. A not-found failure or a superseded
// mutation triggers a refetch.
func (b *Board) settle(ctx context.Context, seq uint64, err error, apply func()) error {
	b.mu.Lock()
	b.inFlight--
	latest := seq == b.seq
	refetch := false
	switch {
	case !latest:
		b.superseded = true
	case err == nil:
		apply()
		b.overlay = nil
	default:
		b.overlay = nil
		refetch = IsNotFound(err)
	}
	if b.inFlight == 0 && b.superseded {
		b.superseded = false
		refetch = true
	}
	onError := b.OnError
	b.mu.Unlock()

	if err != nil && latest && onError != nil {
		onError(err)
	}
	if refetch {
		if lerr := b.Load(ctx); lerr != nil && err == nil && !IsNotFound(lerr) {
			err = lerr
		}
	}
	return err
}

// arrange orders acts by ids; both hold the same set.
func arrange(acts []Activity, ids []int64) []Activity {
	byID := make(map[int64]Activity, len(acts))
	for _, a := range acts {
		byID[a.ID] = a
	}
	out := make([]Activity, len(ids))
	for i, id := range ids {
		a := byID[id]
		a.Position = i
		out[i] = a
	}
	return out
}
