// Package goap is a deliberately small goal-oriented planner: a library of
// actions with declarative preconditions and effects, selected by a linear
// first-match scan rather than search. Registration order is therefore part
// of the contract; later actions act as fallbacks.
package goap

import (
	"colonysim/internal/sim/buildings"
	"colonysim/internal/sim/grid"
	"colonysim/internal/sim/items"
	"colonysim/internal/sim/jobs"
)

// State is the projection an action plans against; effects mutate the
// projection, never the world.
type State struct {
	Hunger  int
	Rest    int
	Morale  int
	HasMeal bool
}

// AgentInfo carries the agent fields actions may read.
type AgentInfo struct {
	ID     int
	Pos    grid.Cell
	Hunger int
	Rest   int
	Morale int
}

// Context is the narrow window actions get into the simulation: lookups
// only, no mutation and no ticking.
type Context interface {
	Ground() *items.GroundItems
	Buildings() *buildings.Manager
	Stockpiles() *items.Stockpiles
}

type Action interface {
	Name() string
	Cost() int
	Applicable(a AgentInfo, ctx Context, st State) bool
	Apply(st *State)
	// Jobs synthesizes the concrete job sequence realizing the action.
	Jobs(a AgentInfo, ctx Context) []jobs.Job
}

type Library struct {
	actions []Action
}

func NewLibrary() *Library { return &Library{} }

func (l *Library) Add(a Action)  { l.actions = append(l.actions, a) }
func (l *Library) All() []Action { return l.actions }

// Plan evaluates actions in registration order and returns the job sequence
// of the first applicable one (with its effect applied to st), or nil.
func (l *Library) Plan(a AgentInfo, ctx Context, st *State) (string, []jobs.Job) {
	for _, act := range l.actions {
		if act.Applicable(a, ctx, *st) {
			act.Apply(st)
			return act.Name(), act.Jobs(a, ctx)
		}
	}
	return "", nil
}

// DefaultLibrary registers the built-in actions. Patrol goes last on
// purpose: it is always applicable and would shadow everything after it.
func DefaultLibrary() *Library {
	l := NewLibrary()
	l.Add(EatAction{})
	l.Add(SleepAction{})
	l.Add(CraftPlanksAction{})
	l.Add(ResearchAction{})
	l.Add(PatrolAction{})
	return l
}

// EatAction feeds a hungry agent: cook first if no meal is stocked at the
// kitchen, then deliver a meal to the agent. Falls back to farming a crop on
// the spot when the colony has no kitchen at all.
type EatAction struct{}

func (EatAction) Name() string { return "Eat" }
func (EatAction) Cost() int    { return 1 }

func (EatAction) Applicable(_ AgentInfo, _ Context, st State) bool {
	return st.Hunger > 60
}

func (EatAction) Apply(st *State) {
	st.Hunger -= 40
	if st.Hunger < 0 {
		st.Hunger = 0
	}
	st.HasMeal = true
}

func (EatAction) Jobs(a AgentInfo, ctx Context) []jobs.Job {
	k := ctx.Buildings().Nearest(buildings.Kitchen, a.Pos)
	if k == nil {
		return []jobs.Job{jobs.NewFarm(a.Pos, 80)}
	}
	var js []jobs.Job
	if ctx.Ground().CountAt(k.Pos, items.Meal) <= 0 {
		if src, _, ok := ctx.Ground().Nearest(items.RawFood, k.Pos); ok {
			js = append(js, jobs.NewHaul(src, k.Pos, items.RawFood, 1))
		}
		js = append(js, jobs.NewCook(k.Pos, 140))
	}
	js = append(js, jobs.NewDeliver(k.Pos, a.Pos, items.Meal, 1))
	return js
}

// SleepAction is a plan placeholder; actual rest happens in the Sleep state.
type SleepAction struct{}

func (SleepAction) Name() string { return "Sleep" }
func (SleepAction) Cost() int    { return 1 }

func (SleepAction) Applicable(a AgentInfo, _ Context, _ State) bool {
	return a.Rest < 30
}

func (SleepAction) Apply(st *State) {
	st.Rest += 60
	if st.Rest > 100 {
		st.Rest = 100
	}
}

func (SleepAction) Jobs(a AgentInfo, _ Context) []jobs.Job {
	return []jobs.Job{jobs.NewMoveTo(a.Pos)}
}

// CraftPlanksAction turns loose logs into stockpiled planks via the nearest
// sawmill.
type CraftPlanksAction struct{}

func (CraftPlanksAction) Name() string { return "CraftPlanks" }
func (CraftPlanksAction) Cost() int    { return 2 }

func (CraftPlanksAction) Applicable(_ AgentInfo, ctx Context, _ State) bool {
	for _, c := range ctx.Ground().Cells() {
		if ctx.Ground().CountAt(c, items.Log) > 0 {
			return true
		}
	}
	return false
}

func (CraftPlanksAction) Apply(st *State) {
	if st.Morale < 100 {
		st.Morale++
	}
}

func (CraftPlanksAction) Jobs(a AgentInfo, ctx Context) []jobs.Job {
	s := ctx.Buildings().Nearest(buildings.Sawmill, a.Pos)
	if s == nil {
		return nil
	}
	var js []jobs.Job
	if src, _, ok := ctx.Ground().Nearest(items.Log, s.Pos); ok {
		js = append(js, jobs.NewHaul(src, s.Pos, items.Log, 1))
	}
	js = append(js, jobs.NewCraft(s.Pos, 120, items.Plank, 1))
	if dest, ok := ctx.Stockpiles().PickDestination(items.Plank, a.Pos); ok {
		js = append(js, jobs.NewDeliver(s.Pos, dest, items.Plank, 1))
	}
	return js
}

// ResearchAction consumes loose paper at the research bench.
type ResearchAction struct{}

func (ResearchAction) Name() string { return "Research" }
func (ResearchAction) Cost() int    { return 2 }

func (ResearchAction) Applicable(_ AgentInfo, ctx Context, _ State) bool {
	for _, c := range ctx.Ground().Cells() {
		if ctx.Ground().CountAt(c, items.Paper) > 0 {
			return true
		}
	}
	return false
}

func (ResearchAction) Apply(st *State) {
	st.Morale += 2
	if st.Morale > 100 {
		st.Morale = 100
	}
}

func (ResearchAction) Jobs(a AgentInfo, ctx Context) []jobs.Job {
	r := ctx.Buildings().Nearest(buildings.ResearchBench, a.Pos)
	if r == nil {
		return nil
	}
	var js []jobs.Job
	if src, _, ok := ctx.Ground().Nearest(items.Paper, r.Pos); ok {
		js = append(js, jobs.NewHaul(src, r.Pos, items.Paper, 1))
	}
	js = append(js, jobs.NewResearch(r.Pos, 200))
	return js
}

// PatrolAction is the always-applicable fallback: a short walk-and-return
// loop near the agent.
type PatrolAction struct{}

func (PatrolAction) Name() string { return "Patrol" }
func (PatrolAction) Cost() int    { return 3 }

func (PatrolAction) Applicable(AgentInfo, Context, State) bool { return true }
func (PatrolAction) Apply(*State)                              {}

func (PatrolAction) Jobs(a AgentInfo, _ Context) []jobs.Job {
	return []jobs.Job{
		jobs.NewPatrol(a.Pos, a.Pos.Add(grid.Cell{X: 2})),
		jobs.NewMoveTo(a.Pos),
	}
}
