package world

import (
	"testing"

	"colonysim/internal/sim/buildings"
	"colonysim/internal/sim/events"
	"colonysim/internal/sim/grid"
	"colonysim/internal/sim/items"
	"colonysim/internal/sim/jobs"
	"colonysim/internal/sim/tuning"
)

func newTestWorld(t *testing.T, w, h int) *World {
	t.Helper()
	return New(w, h)
}

func tickUntil(w *World, jq *jobs.Queue, maxTicks int, done func() bool) bool {
	for i := 0; i < maxTicks; i++ {
		w.Tick(jq)
		if done() {
			return true
		}
	}
	return done()
}

func sawCompleted(w *World, kind jobs.Kind) bool {
	for _, e := range w.Events().Replay() {
		if e.Event.Kind == events.JobCompleted && e.Event.Job == kind {
			return true
		}
	}
	return false
}

func TestUpdateRunsFixedTicks(t *testing.T) {
	w := newTestWorld(t, 4, 4)
	jq := jobs.NewQueue()

	w.Update(0.05, jq)
	if w.TickCount() != 0 {
		t.Fatalf("0.05s should not tick, count=%d", w.TickCount())
	}
	w.Update(0.05, jq)
	if w.TickCount() != 1 {
		t.Fatalf("accumulated 0.1s should tick once, count=%d", w.TickCount())
	}
	w.Update(0.35, jq)
	if w.TickCount() != 4 {
		t.Fatalf("0.35s more should add 3 ticks, count=%d", w.TickCount())
	}
}

func TestMinuteOfDayAdvancesAndWraps(t *testing.T) {
	w := newTestWorld(t, 4, 4)
	if w.MinuteOfDay() != 480 {
		t.Fatalf("worlds start at 08:00, got %d", w.MinuteOfDay())
	}
	jq := jobs.NewQueue()
	w.Tick(jq)
	if w.MinuteOfDay() != 481 {
		t.Fatalf("one tick is one minute, got %d", w.MinuteOfDay())
	}
}

func TestChopScenario(t *testing.T) {
	w := newTestWorld(t, 12, 12)
	w.SpawnColonist(grid.Cell{X: 3, Y: 3})
	target := grid.Cell{X: 5, Y: 3}
	w.Grid().SetMaterial(target, grid.MatTree)

	jq := jobs.NewQueue()
	jq.Push(jobs.NewChop(target), 5)

	ok := tickUntil(w, jq, 300, func() bool { return sawCompleted(w, jobs.Chop) })
	if !ok {
		t.Fatalf("chop never completed")
	}
	if w.Ground().CountAt(target, items.Log) != 1 {
		t.Fatalf("chop must drop one log, ground=%v", w.Ground().At(target))
	}
	if w.Grid().At(target).Material != grid.MatSoil {
		t.Fatalf("tree must be cleared, material=%d", w.Grid().At(target).Material)
	}
}

func TestPathFailureDropsJob(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	id := w.SpawnColonist(grid.Cell{X: 1, Y: 1})
	target := grid.Cell{X: 5, Y: 5}
	for _, n := range w.Grid().Neighbors8(target) {
		w.Grid().SetObstacle(n, true)
	}

	jq := jobs.NewQueue()
	jq.Push(jobs.NewMoveTo(target), 5)

	failed := func() bool {
		for _, e := range w.Events().Replay() {
			if e.Event.Kind == events.PathFailed && e.Event.AgentID == id {
				return true
			}
		}
		return false
	}
	if !tickUntil(w, jq, 10, failed) {
		t.Fatalf("walled-off target must produce PathFailed")
	}
	a := w.AgentByID(id)
	if a.Job != nil || a.State != Idle {
		t.Fatalf("job must be dropped on path failure: job=%v state=%v", a.Job, a.State)
	}
}

func TestScheduleDrivesSleepAndLeisure(t *testing.T) {
	w := newTestWorld(t, 6, 6)
	tun := tuning.Defaults()
	tun.StartMinuteOfDay = 0 // sleep block
	w.ApplyTuning(tun)
	id := w.SpawnColonist(grid.Cell{X: 2, Y: 2})

	jq := jobs.NewQueue()
	w.Tick(jq)
	a := w.AgentByID(id)
	if a.State != Sleep {
		t.Fatalf("00:01 with rest<95 should sleep, state=%v", a.State)
	}
	restBefore := a.Rest
	w.Tick(jq)
	if a.Rest <= restBefore {
		t.Fatalf("sleep must regenerate rest: %d -> %d", restBefore, a.Rest)
	}

	w2 := newTestWorld(t, 6, 6)
	tun.StartMinuteOfDay = 6 * 60 // leisure block
	w2.ApplyTuning(tun)
	id2 := w2.SpawnColonist(grid.Cell{X: 2, Y: 2})
	w2.Tick(jq)
	a2 := w2.AgentByID(id2)
	if a2.State != Leisure {
		t.Fatalf("06:01 should be leisure, state=%v", a2.State)
	}
	pos := a2.Pos
	moraleBefore := a2.Morale
	w2.Tick(jq)
	if a2.Pos == pos {
		t.Fatalf("leisure agents wander, still at %v", pos)
	}
	if a2.Morale <= moraleBefore {
		t.Fatalf("leisure must raise morale: %d -> %d", moraleBefore, a2.Morale)
	}
}

func TestKitchenChainHaulCookMeal(t *testing.T) {
	w := newTestWorld(t, 12, 12)
	kitchen := grid.Cell{X: 6, Y: 6}
	w.Buildings().Add(buildings.Kitchen, kitchen)
	w.SpawnColonist(grid.Cell{X: 5, Y: 6})
	w.Drop(grid.Cell{X: 2, Y: 6}, items.RawFood, 2)

	jq := jobs.NewQueue()
	ok := tickUntil(w, jq, 800, func() bool {
		return w.Ground().CountAt(kitchen, items.Meal) >= 1
	})
	if !ok {
		t.Fatalf("auto spawner + haul + cook never produced a meal\n%s", w.RenderASCII(0, 0, -1, -1))
	}
	if !sawCompleted(w, jobs.Haul) || !sawCompleted(w, jobs.Cook) {
		t.Fatalf("expected completed Haul and Cook jobs in the replay log")
	}
}

func TestStockpileRectPaintsZone(t *testing.T) {
	w := newTestWorld(t, 8, 8)
	id := w.AddStockpileRect(grid.Cell{X: 1, Y: 1}, grid.Cell{X: 2, Y: 2}, 3, []items.ItemID{items.Plank})
	if id == 0 {
		t.Fatalf("zone id must be nonzero")
	}
	if w.Grid().At(grid.Cell{X: 2, Y: 1}).ZoneID != id {
		t.Fatalf("grid tiles must carry the zone id")
	}
	dest, ok := w.Stockpiles().PickDestination(items.Plank, grid.Cell{X: 0, Y: 0})
	if !ok || dest != (grid.Cell{X: 1, Y: 1}) {
		t.Fatalf("destination = %v ok=%v", dest, ok)
	}
	if _, ok := w.Stockpiles().PickDestination(items.Ore, grid.Cell{}); ok {
		t.Fatalf("allow list must filter items")
	}
}

func TestRenderASCII(t *testing.T) {
	w := newTestWorld(t, 3, 1)
	w.Grid().SetObstacle(grid.Cell{X: 0, Y: 0}, true)
	w.Grid().SetMaterial(grid.Cell{X: 1, Y: 0}, grid.MatTree)
	w.SpawnColonist(grid.Cell{X: 2, Y: 0})
	if got := w.RenderASCII(0, 0, -1, -1); got != "#T@\n" {
		t.Fatalf("render = %q", got)
	}
	// A negative origin clamps to the top-left corner instead of reading
	// out of bounds.
	if got := w.RenderASCII(-1, -1, -1, -1); got != "#T@\n" {
		t.Fatalf("render with negative origin = %q", got)
	}
}
