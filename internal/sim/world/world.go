// Package world is the simulation orchestrator: a fixed-tick loop driving
// the grid, pathfinder, job queue, workstations, planner and agents. All
// state is owned by one World and mutated only inside a tick; nothing here
// is safe for concurrent use.
package world

import (
	"math/rand"

	"colonysim/internal/sim/buildings"
	"colonysim/internal/sim/events"
	"colonysim/internal/sim/goap"
	"colonysim/internal/sim/grid"
	"colonysim/internal/sim/items"
	"colonysim/internal/sim/jobs"
	"colonysim/internal/sim/path"
	"colonysim/internal/sim/tuning"
)

type World struct {
	grid       *grid.Grid
	finder     *path.Finder
	bus        *events.Bus
	agents     []*Agent
	ground     *items.GroundItems
	stockpiles *items.Stockpiles
	buildings  *buildings.Manager
	actions    *goap.Library
	recipes    buildings.RecipeSet

	occupied map[grid.Cell]bool

	tun         tuning.Tuning
	timeAcc     float64
	tickCount   uint64
	minuteOfDay int
	nextAgentID int
}

func New(w, h int) *World {
	wd := &World{
		grid:        grid.New(w, h),
		bus:         events.NewBus(),
		ground:      items.NewGroundItems(),
		stockpiles:  items.NewStockpiles(),
		actions:     goap.DefaultLibrary(),
		occupied:    map[grid.Cell]bool{},
		tun:         tuning.Defaults(),
		nextAgentID: 1,
	}
	wd.buildings = buildings.NewManager(nil)
	wd.minuteOfDay = wd.tun.StartMinuteOfDay
	wd.rebindFinder()
	return wd
}

// SetRecipes replaces the workstation recipe table. Existing stations keep
// the recipes they were placed with.
func (w *World) SetRecipes(set buildings.RecipeSet) {
	w.recipes = set
	w.buildings = buildings.NewManager(set)
}

// ApplyTuning reconfigures tick rate, pathfinder and queue sampling. The
// start-of-day minute only applies to a world that has not ticked yet.
func (w *World) ApplyTuning(t tuning.Tuning) {
	w.tun = t
	if w.tickCount == 0 {
		w.minuteOfDay = t.StartMinuteOfDay
	}
	w.applyPathTuning()
}

func (w *World) applyPathTuning() {
	p := w.tun.Path
	if p.CacheMax > 0 {
		w.finder.SetCacheMax(p.CacheMax)
	}
	if p.MaxSearch > 0 {
		w.finder.SetMaxSearch(p.MaxSearch)
	}
	w.finder.SetDiagonal(p.AllowDiagonal)
	w.finder.SetJPS(p.EnableJPS)
	w.finder.SetSmoothing(p.Smoothing)
	w.finder.SetCrossCorners(p.CrossCorners)
}

// rebindFinder builds a fresh pathfinder against the current grid and hooks
// the occupied-cell set in as its dynamic blocker.
func (w *World) rebindFinder() {
	w.finder = path.NewFinder(w.grid)
	w.finder.SetDynamicBlocker(path.BlockerFunc(func(c grid.Cell) bool {
		return w.occupied[c]
	}))
	w.applyPathTuning()
}

func (w *World) Grid() *grid.Grid              { return w.grid }
func (w *World) Events() *events.Bus           { return w.bus }
func (w *World) Pathfinder() *path.Finder      { return w.finder }
func (w *World) Ground() *items.GroundItems    { return w.ground }
func (w *World) Stockpiles() *items.Stockpiles { return w.stockpiles }
func (w *World) Buildings() *buildings.Manager { return w.buildings }
func (w *World) Actions() *goap.Library        { return w.actions }
func (w *World) Agents() []*Agent              { return w.agents }
func (w *World) TickCount() uint64             { return w.tickCount }
func (w *World) MinuteOfDay() int              { return w.minuteOfDay }

func (w *World) AgentByID(id int) *Agent {
	for _, a := range w.agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// SpawnColonist adds an agent at p with default needs and a skill spread
// biased toward woodcutting and mining.
func (w *World) SpawnColonist(p grid.Cell) int {
	a := &Agent{
		ID:       w.nextAgentID,
		Pos:      p,
		Inv:      items.NewInventory(8),
		Hunger:   20,
		Rest:     80,
		Morale:   70,
		Schedule: DefaultSchedule(),
		Skills:   Skills{},
	}
	w.nextAgentID++
	for k := jobs.Kind(0); k < jobs.KindCount; k++ {
		a.Skills[k] = 1
	}
	a.Skills[jobs.Chop] = 3
	a.Skills[jobs.Mine] = 2
	a.Skills[jobs.Craft] = 2
	a.Skills[jobs.Cook] = 1
	w.agents = append(w.agents, a)
	return a.ID
}

// AddStockpileRect creates a stockpile zone covering the inclusive rectangle
// between a and b and paints the zone id onto the grid tiles.
func (w *World) AddStockpileRect(a, b grid.Cell, priority int, allow []items.ItemID) uint16 {
	id := w.stockpiles.CreateZone(priority)
	x0, x1 := min(a.X, b.X), max(a.X, b.X)
	y0, y1 := min(a.Y, b.Y), max(a.Y, b.Y)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			c := grid.Cell{X: x, Y: y}
			w.stockpiles.AddCell(id, c)
			w.grid.SetZoneID(c, id)
		}
	}
	w.stockpiles.SetAllow(id, allow)
	return id
}

func (w *World) Drop(p grid.Cell, id items.ItemID, qty int) {
	w.ground.Drop(p, id, qty)
}

// SeedTerrain scatters obstacles and harvestable materials and places the
// starter workstations. Deterministic for a given seed.
func (w *World) SeedTerrain(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for y := 0; y < w.grid.Height(); y++ {
		for x := 0; x < w.grid.Width(); x++ {
			c := grid.Cell{X: x, Y: y}
			if rng.Float64() < 0.02 {
				w.grid.SetObstacle(c, true)
			}
			switch r := rng.Float64(); {
			case r < 0.05:
				w.grid.SetMaterial(c, grid.MatTree)
			case r < 0.08:
				w.grid.SetMaterial(c, grid.MatRock)
			}
			w.grid.SetTerrainCost(c, grid.BaseMoveCost)
		}
	}
	cx, cy := w.grid.Width()/2, w.grid.Height()/2
	w.buildings.Add(buildings.Sawmill, grid.Cell{X: cx - 3, Y: cy})
	w.buildings.Add(buildings.Kitchen, grid.Cell{X: cx, Y: cy})
	w.buildings.Add(buildings.ResearchBench, grid.Cell{X: cx + 3, Y: cy})
	w.buildings.Add(buildings.Forge, grid.Cell{X: cx + 6, Y: cy})
}

// Update accumulates real time and runs as many fixed ticks as fit.
func (w *World) Update(dt float64, jq *jobs.Queue) {
	w.timeAcc += dt
	for w.timeAcc >= w.tun.TickSeconds {
		w.timeAcc -= w.tun.TickSeconds
		w.tick(jq)
	}
}

// Tick runs exactly one simulation step; exposed for tests and replay.
func (w *World) Tick(jq *jobs.Queue) { w.tick(jq) }

func (w *World) tick(jq *jobs.Queue) {
	w.tickCount++
	w.minuteOfDay = (w.minuteOfDay + 1) % 1440

	for c := range w.occupied {
		delete(w.occupied, c)
	}
	for _, a := range w.agents {
		w.occupied[a.Pos] = true
	}

	w.buildings.AutoSpawn(w.ground, jq)

	for _, a := range w.agents {
		a.Hunger = min(100, a.Hunger+1)
		a.Rest = max(0, a.Rest-1)
		if a.State == Sleep {
			a.Rest = min(100, a.Rest+3)
		}
		if a.State == Leisure {
			a.Morale = min(100, a.Morale+1)
		}

		switch a.State {
		case Idle:
			w.handleIdle(a)
		case AcquireJob:
			w.handleAcquireJob(a, jq)
		case Plan:
			w.handlePlan(a)
		case Navigate:
			w.handleNavigate(a)
		case Work:
			w.handleWork(a)
		case Deliver:
			w.handleDeliver(a)
		case Sleep:
			w.handleSleep(a)
		case Leisure:
			w.handleLeisure(a)
		}
	}
}

func (w *World) handleIdle(a *Agent) {
	switch a.Schedule.BlockAtMinute(w.minuteOfDay) {
	case BlockSleep:
		if a.Rest < 95 {
			a.State = Sleep
			return
		}
	case BlockLeisure:
		a.State = Leisure
		return
	}
	a.State = AcquireJob
}

func (w *World) handleAcquireJob(a *Agent, jq *jobs.Queue) {
	if len(a.Plan) > 0 {
		j := a.Plan[0]
		a.Plan = a.Plan[1:]
		a.Job = &j
		w.beginJob(a)
		return
	}
	if a.Hunger > 70 {
		a.State = Plan
		return
	}
	view := jobs.AgentView{
		Pos:         a.Pos,
		Hunger:      a.Hunger,
		InWorkBlock: a.Schedule.BlockAtMinute(w.minuteOfDay) == BlockWork,
		Skills:      a.Skills,
	}
	j, ok := jq.PopBestFor(view, w.tun.Queue.SampleK)
	if !ok {
		a.State = Idle
		return
	}
	a.Job = &j
	w.beginJob(a)
}

func (w *World) handlePlan(a *Agent) {
	st := goap.State{
		Hunger:  a.Hunger,
		Rest:    a.Rest,
		Morale:  a.Morale,
		HasMeal: a.Inv.Has(items.Meal, 1),
	}
	info := goap.AgentInfo{ID: a.ID, Pos: a.Pos, Hunger: a.Hunger, Rest: a.Rest, Morale: a.Morale}
	if _, js := w.actions.Plan(info, w, &st); len(js) > 0 {
		a.Plan = append(a.Plan, js...)
	}
	a.State = AcquireJob
}

func (w *World) handleNavigate(a *Agent) {
	if len(a.Path.Points) == 0 {
		if a.Job != nil && a.Pos == a.Job.Target {
			if t := w.grid.At(a.Pos); t.IsDoor && !t.DoorOpen {
				w.grid.OpenDoor(a.Pos)
				w.bus.Publish(events.Event{
					Kind: events.TileChanged, A: a.Pos, AgentID: a.ID,
					Job: a.Job.Kind, Msg: "Door opened",
				})
			}
			a.WorkLeft = max(0, a.Job.WorkTicks)
			a.State = Work
		} else {
			a.State = Idle
		}
		return
	}
	next := a.Path.Points[0]
	if next == a.Pos {
		a.Path.Points = a.Path.Points[1:]
		if len(a.Path.Points) == 0 {
			return
		}
		next = a.Path.Points[0]
	}
	a.Pos = next
}

func (w *World) handleWork(a *Agent) {
	if a.Job == nil {
		a.State = Idle
		return
	}
	if a.WorkLeft > 0 {
		a.WorkLeft--
		return
	}
	job := *a.Job
	w.applyJobEffect(a, job)
	w.bus.Publish(events.Event{
		Kind: events.JobCompleted, A: job.Target, B: job.Aux,
		AgentID: a.ID, Job: job.Kind,
	})

	if job.Kind == jobs.Haul {
		a.CarryTo = job.Aux
		a.Path = w.finder.Find(a.Pos, a.CarryTo, w.tickCount)
		if a.Path.Empty() {
			a.State = Idle
		} else {
			a.State = Deliver
		}
		return
	}
	a.dropJob()
	a.State = AcquireJob
}

func (w *World) handleDeliver(a *Agent) {
	if len(a.Path.Points) == 0 {
		if a.Job != nil {
			removed := a.Inv.Remove(a.Job.Item, a.Job.Amount)
			w.ground.Drop(a.Pos, a.Job.Item, removed)
		}
		a.dropJob()
		a.State = AcquireJob
		return
	}
	next := a.Path.Points[0]
	if next == a.Pos {
		a.Path.Points = a.Path.Points[1:]
		if len(a.Path.Points) == 0 {
			return
		}
		next = a.Path.Points[0]
	}
	a.Pos = next
}

func (w *World) handleSleep(a *Agent) {
	if a.Rest >= 95 {
		a.State = Idle
		return
	}
	// very high hunger interrupts sleep
	if a.Hunger > 90 {
		a.State = Plan
	}
}

func (w *World) handleLeisure(a *Agent) {
	for _, np := range w.grid.Neighbors4(a.Pos) {
		if w.grid.Occupiable(np) {
			a.Pos = np
			break
		}
	}
	if a.Hunger > 80 {
		a.State = Plan
	}
}

// beginJob routes the agent toward its job target, or straight to Work when
// already standing on it. Path failure drops the job.
func (w *World) beginJob(a *Agent) {
	w.bus.Publish(events.Event{
		Kind: events.JobStarted, A: a.Job.Target, B: a.Job.Aux,
		AgentID: a.ID, Job: a.Job.Kind,
	})
	if a.Pos != a.Job.Target {
		a.Path = w.finder.Find(a.Pos, a.Job.Target, w.tickCount)
		if a.Path.Empty() {
			w.bus.Publish(events.Event{
				Kind: events.PathFailed, A: a.Pos, B: a.Job.Target,
				AgentID: a.ID, Job: a.Job.Kind,
			})
			a.dropJob()
			a.State = Idle
			return
		}
		w.bus.Publish(events.Event{
			Kind: events.PathFound, A: a.Pos, B: a.Job.Target,
			AgentID: a.ID, Job: a.Job.Kind,
		})
		a.State = Navigate
		return
	}
	a.WorkLeft = max(0, a.Job.WorkTicks)
	a.State = Work
}

// applyJobEffect runs the resource side effect of a completed job. Inputs
// are re-checked here; a shortfall silently no-ops.
func (w *World) applyJobEffect(a *Agent, j jobs.Job) {
	switch j.Kind {
	case jobs.Chop:
		if w.grid.At(j.Target).Material == grid.MatTree {
			w.grid.SetMaterial(j.Target, grid.MatSoil)
			w.ground.Drop(j.Target, items.Log, 1)
		}
	case jobs.Mine:
		if w.grid.At(j.Target).Material == grid.MatRock {
			w.grid.SetMaterial(j.Target, grid.MatSoil)
			w.ground.Drop(j.Target, items.Stone, 1)
			w.ground.Drop(j.Target, items.Ore, 1)
		}
	case jobs.Build:
		w.grid.SetObstacle(j.Target, false)
	case jobs.Farm:
		w.grid.SetMaterial(j.Target, grid.MatCrop)
		w.ground.Drop(j.Target, items.Crop, 1)
	case jobs.Haul:
		got := w.ground.Take(j.Target, j.Item, j.Amount)
		if left := a.Inv.Add(j.Item, got); left > 0 {
			w.ground.Drop(j.Target, j.Item, left) // overflow back to ground
		}
	case jobs.Cook, jobs.Craft:
		w.runStationRecipe(a, j)
	case jobs.Research:
		w.ground.Take(j.Target, items.Paper, 1)
		w.ground.Drop(j.Target, items.ResearchData, 1)
		a.Morale = min(100, a.Morale+2)
	case jobs.Heal:
		if a.Inv.Remove(items.Medicine, 1) > 0 {
			a.Morale = min(100, a.Morale+10)
		}
	case jobs.Train:
		a.Skills[jobs.Craft] = min(10, a.Skills[jobs.Craft]+1)
	case jobs.Tame:
		a.Morale = min(100, a.Morale+5)
	case jobs.Trade:
		removed := a.Inv.Remove(j.Item, j.Amount)
		w.ground.Drop(j.Aux, j.Item, removed)
		if j.Item == items.Log {
			w.ground.Drop(j.Aux, items.Plank, removed/2)
		}
	}
	w.bus.Publish(events.Event{Kind: events.TileChanged, A: j.Target, AgentID: a.ID, Job: j.Kind})
}

// runStationRecipe consumes recipe inputs from the station's ground tile and
// drops the outputs there. Cooking also feeds the cook.
func (w *World) runStationRecipe(a *Agent, j jobs.Job) {
	ws := w.buildings.At(j.Target)
	if ws == nil {
		return
	}
	var rec *buildings.Recipe
	for i := range ws.Recipes {
		if ws.Recipes[i].JobKind == j.Kind {
			rec = &ws.Recipes[i]
			break
		}
	}
	if rec == nil {
		return
	}
	for _, in := range rec.Inputs {
		if got := w.ground.Take(ws.Pos, in.ID, in.Qty); got < in.Qty {
			w.ground.Drop(ws.Pos, in.ID, got) // put back the partial take
			return
		}
	}
	for _, out := range rec.Outputs {
		w.ground.Drop(ws.Pos, out.ID, out.Qty)
	}
	if j.Kind == jobs.Cook {
		a.Hunger = max(0, a.Hunger-25)
		a.Morale = min(100, a.Morale+3)
	}
}

// goap.Context is satisfied by the accessor methods above.
var _ goap.Context = (*World)(nil)
