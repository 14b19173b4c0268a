package events

import (
	"testing"

	"colonysim/internal/sim/grid"
	"colonysim/internal/sim/jobs"
)

func TestPublishDispatchesInSubscriptionOrder(t *testing.T) {
	b := NewBus()
	var order []int

	b.Subscribe(JobCompleted, func(Event) { order = append(order, 1) })
	b.Subscribe(JobCompleted, func(Event) { order = append(order, 2) })
	b.Subscribe(PathFailed, func(Event) { order = append(order, 99) })

	b.Publish(Event{Kind: JobCompleted, Job: jobs.Chop, A: grid.Cell{X: 5, Y: 3}})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("handler order = %v, want [1 2]", order)
	}
}

func TestReplaySequenceIsMonotonic(t *testing.T) {
	b := NewBus()
	b.Publish(Event{Kind: JobStarted})
	b.Publish(Event{Kind: PathFound})
	b.Publish(Event{Kind: JobCompleted})

	rep := b.Replay()
	if len(rep) != 3 {
		t.Fatalf("replay length = %d", len(rep))
	}
	for i, e := range rep {
		if e.Seq != uint64(i) {
			t.Fatalf("seq[%d] = %d", i, e.Seq)
		}
	}

	b.ClearReplay()
	if len(b.Replay()) != 0 {
		t.Fatalf("replay must clear")
	}

	// Sequence keeps climbing after a clear; the log is append-only.
	b.Publish(Event{Kind: Debug, Msg: "x"})
	if got := b.Replay()[0].Seq; got != 3 {
		t.Fatalf("seq after clear = %d, want 3", got)
	}
}

func TestUnsubscribeAll(t *testing.T) {
	b := NewBus()
	fired := false
	b.Subscribe(TileChanged, func(Event) { fired = true })
	b.UnsubscribeAll()
	b.Publish(Event{Kind: TileChanged})
	if fired {
		t.Fatalf("handler fired after UnsubscribeAll")
	}
}
