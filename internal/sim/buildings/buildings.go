// Package buildings tracks workstations, their recipes and the auto job
// spawner that keeps stations fed and busy.
package buildings

import (
	"colonysim/internal/sim/grid"
	"colonysim/internal/sim/items"
	"colonysim/internal/sim/jobs"
)

type Type uint8

const (
	None Type = iota
	Sawmill
	Kitchen
	ResearchBench
	Forge
)

func (t Type) String() string {
	switch t {
	case Sawmill:
		return "Sawmill"
	case Kitchen:
		return "Kitchen"
	case ResearchBench:
		return "ResearchBench"
	case Forge:
		return "Forge"
	default:
		return "None"
	}
}

type Recipe struct {
	Name      string
	Inputs    []items.Stack
	Outputs   []items.Stack
	WorkTicks int
	JobKind   jobs.Kind
}

// Workstation is a placed building. Recipes are fixed at construction; the
// in/out buffers are lightweight staging areas for station-local stock.
type Workstation struct {
	Type    Type
	Pos     grid.Cell
	Recipes []Recipe
	Busy    bool
	Inbuf   []items.Stack
	Outbuf  []items.Stack
}

// RecipeSet maps a building type to the recipes it is constructed with.
type RecipeSet map[Type][]Recipe

// DefaultRecipeSet is the built-in production chain; catalogs may override
// it from configs/recipes.json.
func DefaultRecipeSet() RecipeSet {
	return RecipeSet{
		Sawmill: {{
			Name:    "Planks",
			Inputs:  []items.Stack{{ID: items.Log, Qty: 1}},
			Outputs: []items.Stack{{ID: items.Plank, Qty: 1}},
			WorkTicks: 120, JobKind: jobs.Craft,
		}},
		Kitchen: {{
			Name:    "CookMeal",
			Inputs:  []items.Stack{{ID: items.RawFood, Qty: 1}},
			Outputs: []items.Stack{{ID: items.Meal, Qty: 1}},
			WorkTicks: 140, JobKind: jobs.Cook,
		}},
		ResearchBench: {{
			Name:    "Research",
			Inputs:  []items.Stack{{ID: items.Paper, Qty: 1}},
			Outputs: []items.Stack{{ID: items.ResearchData, Qty: 1}},
			WorkTicks: 200, JobKind: jobs.Research,
		}},
		Forge: {{
			Name:    "Smelt",
			Inputs:  []items.Stack{{ID: items.Ore, Qty: 1}},
			Outputs: []items.Stack{{ID: items.Ingot, Qty: 1}},
			WorkTicks: 180, JobKind: jobs.Craft,
		}},
	}
}

// Manager owns all workstations. Station order is placement order, which
// keeps the auto spawner deterministic.
type Manager struct {
	recipes RecipeSet
	ws      []*Workstation
}

func NewManager(recipes RecipeSet) *Manager {
	if recipes == nil {
		recipes = DefaultRecipeSet()
	}
	return &Manager{recipes: recipes}
}

// Add places a workstation and returns its index.
func (m *Manager) Add(t Type, p grid.Cell) int {
	w := &Workstation{Type: t, Pos: p}
	w.Recipes = append(w.Recipes, m.recipes[t]...)
	m.ws = append(m.ws, w)
	return len(m.ws) - 1
}

func (m *Manager) All() []*Workstation { return m.ws }

func (m *Manager) At(p grid.Cell) *Workstation {
	for _, w := range m.ws {
		if w.Pos == p {
			return w
		}
	}
	return nil
}

// Nearest returns the closest workstation of the given type by Manhattan
// distance, or nil.
func (m *Manager) Nearest(t Type, from grid.Cell) *Workstation {
	var best *Workstation
	bestD := int(^uint(0) >> 1)
	for _, w := range m.ws {
		if w.Type != t {
			continue
		}
		if d := grid.Manhattan(from, w.Pos); d < bestD {
			bestD, best = d, w
		}
	}
	return best
}

// Spawner priorities: hauling inputs outranks running the station, and food
// outranks research outranks generic crafting.
const (
	HaulPriority     = 6
	CookPriority     = 5
	ResearchPriority = 4
	CraftPriority    = 3
)

// AutoSpawn walks every station and recipe once. If the station's ground
// tile holds enough inputs, the production job is enqueued; otherwise a haul
// is enqueued per missing input from the nearest ground stack that has any.
// Shortfalls are re-checked at execution time, so over-enqueueing is benign.
func (m *Manager) AutoSpawn(ground *items.GroundItems, q *jobs.Queue) {
	for _, w := range m.ws {
		for _, r := range w.Recipes {
			hasInput := true
			for _, in := range r.Inputs {
				if ground.CountAt(w.Pos, in.ID) < in.Qty {
					hasInput = false
					break
				}
			}
			if hasInput {
				switch r.JobKind {
				case jobs.Cook:
					q.Push(jobs.NewCook(w.Pos, r.WorkTicks), CookPriority)
				case jobs.Research:
					q.Push(jobs.NewResearch(w.Pos, r.WorkTicks), ResearchPriority)
				default:
					out := items.Stack{}
					if len(r.Outputs) > 0 {
						out = r.Outputs[0]
					}
					q.Push(jobs.NewCraft(w.Pos, r.WorkTicks, out.ID, out.Qty), CraftPriority)
				}
				continue
			}
			for _, in := range r.Inputs {
				need := in.Qty - ground.CountAt(w.Pos, in.ID)
				if need <= 0 {
					continue
				}
				src, qty, ok := ground.Nearest(in.ID, w.Pos)
				if !ok || src == w.Pos {
					continue
				}
				if qty > need {
					qty = need
				}
				q.Push(jobs.NewHaul(src, w.Pos, in.ID, qty), HaulPriority)
			}
		}
	}
}
