package world

import (
	"path/filepath"
	"reflect"
	"testing"

	"colonysim/internal/persistence/save"
	"colonysim/internal/sim/buildings"
	"colonysim/internal/sim/grid"
	"colonysim/internal/sim/items"
	"colonysim/internal/sim/jobs"
)

func populatedWorld() *World {
	w := New(8, 8)
	w.Grid().SetObstacle(grid.Cell{X: 3, Y: 3}, true)
	w.Grid().SetMaterial(grid.Cell{X: 4, Y: 4}, grid.MatTree)
	w.Grid().SetDoor(grid.Cell{X: 5, Y: 5}, true, false)
	w.SpawnColonist(grid.Cell{X: 1, Y: 1})
	w.Agents()[0].Inv.Add(items.Log, 3)
	w.Drop(grid.Cell{X: 2, Y: 2}, items.RawFood, 4)
	w.AddStockpileRect(grid.Cell{X: 6, Y: 0}, grid.Cell{X: 7, Y: 1}, 2, []items.ItemID{items.Plank})
	w.Buildings().Add(buildings.Sawmill, grid.Cell{X: 0, Y: 7})
	return w
}

func TestSaveLoadRoundTrip(t *testing.T) {
	w := populatedWorld()
	jq := jobs.NewQueue()
	for i := 0; i < 5; i++ {
		w.Tick(jq)
	}

	file := filepath.Join(t.TempDir(), "world.sav")
	if err := w.Save(file); err != nil {
		t.Fatalf("save: %v", err)
	}

	w2 := New(1, 1)
	if err := w2.Load(file); err != nil {
		t.Fatalf("load: %v", err)
	}

	if !reflect.DeepEqual(w.Export(), w2.Export()) {
		t.Fatalf("round trip diverged:\n got %+v\nwant %+v", w2.Export(), w.Export())
	}
	if w2.MinuteOfDay() != w.MinuteOfDay() || w2.TickCount() != w.TickCount() {
		t.Fatalf("clock lost: %d/%d vs %d/%d",
			w2.MinuteOfDay(), w2.TickCount(), w.MinuteOfDay(), w.TickCount())
	}
	a := w2.AgentByID(1)
	if a == nil || a.Inv.Count(items.Log) != 3 {
		t.Fatalf("agent inventory lost: %+v", a)
	}
}

func TestLoadedWorldKeepsTicking(t *testing.T) {
	w := populatedWorld()
	file := filepath.Join(t.TempDir(), "world.sav")
	if err := w.Save(file); err != nil {
		t.Fatalf("save: %v", err)
	}
	w2 := New(1, 1)
	if err := w2.Load(file); err != nil {
		t.Fatalf("load: %v", err)
	}
	jq := jobs.NewQueue()
	for i := 0; i < 20; i++ {
		w2.Tick(jq)
	}
	if w2.TickCount() != 20 {
		t.Fatalf("tick count = %d", w2.TickCount())
	}
}

// Zone ids are not preserved across a load: zones come back with fresh
// sequential ids while priorities, cells and allow lists survive. Tile zone
// ids are restored verbatim and keep the serialized numbering.
func TestImportResequencesZoneIDs(t *testing.T) {
	d := &save.Doc{
		Width: 4, Height: 4,
		Zones: []save.Zone{
			{ID: 7, Priority: 1, Allow: []int{int(items.Plank)}, Cells: [][2]int{{0, 0}, {1, 0}}},
			{ID: 42, Priority: 9, Cells: [][2]int{{3, 3}}},
		},
	}
	w := New(1, 1)
	w.Import(d)

	zones := w.Stockpiles().Zones()
	if len(zones) != 2 {
		t.Fatalf("zones = %d", len(zones))
	}
	if zones[0].ID != 1 || zones[1].ID != 2 {
		t.Fatalf("ids must be resequenced from 1: %d, %d", zones[0].ID, zones[1].ID)
	}
	if zones[0].Priority != 1 || zones[1].Priority != 9 {
		t.Fatalf("priorities lost: %+v", zones)
	}
	if !zones[0].Allow[items.Plank] || len(zones[1].Allow) != 0 {
		t.Fatalf("allow lists lost: %+v", zones)
	}
	if !zones[0].Cells[grid.Cell{X: 1, Y: 0}] || !zones[1].Cells[grid.Cell{X: 3, Y: 3}] {
		t.Fatalf("cell sets lost: %+v", zones)
	}
	// Routing works against the rebuilt zones.
	dest, ok := w.Stockpiles().PickDestination(items.Plank, grid.Cell{X: 0, Y: 0})
	if !ok || dest != (grid.Cell{X: 3, Y: 3}) {
		t.Fatalf("highest-priority zone must win: %v ok=%v", dest, ok)
	}
}
