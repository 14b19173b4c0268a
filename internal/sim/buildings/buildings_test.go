package buildings

import (
	"testing"

	"colonysim/internal/sim/grid"
	"colonysim/internal/sim/items"
	"colonysim/internal/sim/jobs"
)

func TestAddAttachesRecipes(t *testing.T) {
	m := NewManager(nil)
	idx := m.Add(Sawmill, grid.Cell{X: 4, Y: 4})
	w := m.All()[idx]
	if len(w.Recipes) != 1 || w.Recipes[0].Name != "Planks" {
		t.Fatalf("sawmill recipes = %+v", w.Recipes)
	}
	if m.At(grid.Cell{X: 4, Y: 4}) != w {
		t.Fatalf("At must find the placed station")
	}
}

func TestNearest(t *testing.T) {
	m := NewManager(nil)
	m.Add(Kitchen, grid.Cell{X: 1, Y: 1})
	m.Add(Kitchen, grid.Cell{X: 9, Y: 9})
	m.Add(Forge, grid.Cell{X: 2, Y: 2})

	if w := m.Nearest(Kitchen, grid.Cell{X: 8, Y: 8}); w == nil || w.Pos != (grid.Cell{X: 9, Y: 9}) {
		t.Fatalf("nearest kitchen wrong: %+v", w)
	}
	if w := m.Nearest(ResearchBench, grid.Cell{X: 0, Y: 0}); w != nil {
		t.Fatalf("no bench placed, got %+v", w)
	}
}

func TestAutoSpawnEnqueuesProductionWhenFed(t *testing.T) {
	m := NewManager(nil)
	m.Add(Kitchen, grid.Cell{X: 5, Y: 5})

	ground := items.NewGroundItems()
	ground.Drop(grid.Cell{X: 5, Y: 5}, items.RawFood, 1)

	q := jobs.NewQueue()
	m.AutoSpawn(ground, q)

	j, ok := q.Pop()
	if !ok || j.Kind != jobs.Cook || j.Target != (grid.Cell{X: 5, Y: 5}) {
		t.Fatalf("expected Cook at station, got %+v ok=%v", j, ok)
	}
	if q.Len() != 0 {
		t.Fatalf("only one job expected, %d left", q.Len())
	}
}

func TestAutoSpawnEnqueuesHaulForShortfall(t *testing.T) {
	m := NewManager(nil)
	m.Add(Sawmill, grid.Cell{X: 5, Y: 5})

	ground := items.NewGroundItems()
	ground.Drop(grid.Cell{X: 1, Y: 5}, items.Log, 3)

	q := jobs.NewQueue()
	m.AutoSpawn(ground, q)

	j, ok := q.Pop()
	if !ok || j.Kind != jobs.Haul {
		t.Fatalf("expected Haul, got %+v ok=%v", j, ok)
	}
	if j.Target != (grid.Cell{X: 1, Y: 5}) || j.Aux != (grid.Cell{X: 5, Y: 5}) {
		t.Fatalf("haul route = %v -> %v", j.Target, j.Aux)
	}
	if j.Item != items.Log || j.Amount != 1 {
		t.Fatalf("haul payload = %v x%d, want Log x1 (clamped to shortfall)", j.Item, j.Amount)
	}
}

func TestAutoSpawnSilentWhenNoSource(t *testing.T) {
	m := NewManager(nil)
	m.Add(Forge, grid.Cell{X: 3, Y: 3})

	q := jobs.NewQueue()
	m.AutoSpawn(items.NewGroundItems(), q)
	if q.Len() != 0 {
		t.Fatalf("no ore anywhere: spawner must stay silent, len=%d", q.Len())
	}
}
