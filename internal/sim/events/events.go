// Package events provides the simulation event bus: an ordered replay log
// plus synchronous per-kind subscriber dispatch. Handler panics are not
// caught; misbehaving handlers are the subscriber's problem.
package events

import (
	"colonysim/internal/sim/grid"
	"colonysim/internal/sim/jobs"
)

type Kind uint8

const (
	JobStarted Kind = iota
	JobCompleted
	PathFound
	PathFailed
	TileChanged
	Debug
)

func (k Kind) String() string {
	switch k {
	case JobStarted:
		return "JobStarted"
	case JobCompleted:
		return "JobCompleted"
	case PathFound:
		return "PathFound"
	case PathFailed:
		return "PathFailed"
	case TileChanged:
		return "TileChanged"
	default:
		return "Debug"
	}
}

type Event struct {
	Kind    Kind
	A, B    grid.Cell
	AgentID int
	Job     jobs.Kind
	Msg     string
}

type Handler func(Event)

// ReplayEntry pairs an event with its monotonic publish sequence.
type ReplayEntry struct {
	Seq   uint64
	Event Event
}

type subscription struct {
	id int
	h  Handler
}

type Bus struct {
	nextSub int
	seq     uint64
	subs    map[Kind][]subscription
	replay  []ReplayEntry
}

func NewBus() *Bus {
	return &Bus{subs: map[Kind][]subscription{}}
}

// Subscribe registers a handler for one event kind. Handlers fire in
// subscription order.
func (b *Bus) Subscribe(k Kind, h Handler) int {
	b.nextSub++
	b.subs[k] = append(b.subs[k], subscription{id: b.nextSub, h: h})
	return b.nextSub
}

func (b *Bus) UnsubscribeAll() { b.subs = map[Kind][]subscription{} }

// Publish appends to the replay log and synchronously invokes handlers
// registered for the event's kind.
func (b *Bus) Publish(e Event) {
	b.replay = append(b.replay, ReplayEntry{Seq: b.seq, Event: e})
	b.seq++
	for _, s := range b.subs[e.Kind] {
		s.h(e)
	}
}

func (b *Bus) Replay() []ReplayEntry { return b.replay }
func (b *Bus) ClearReplay()          { b.replay = nil }
