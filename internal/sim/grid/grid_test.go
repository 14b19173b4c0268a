package grid

import "testing"

func TestWalkableOccupiableDoors(t *testing.T) {
	g := New(4, 4)
	p := Cell{1, 1}

	if !g.Walkable(p) || !g.Occupiable(p) {
		t.Fatalf("fresh tile should be walkable and occupiable")
	}

	g.SetDoor(p, true, false)
	if g.Walkable(p) {
		t.Fatalf("closed door must block pathing")
	}
	if !g.Occupiable(p) {
		t.Fatalf("closed door must still be occupiable")
	}

	g.OpenDoor(p)
	if !g.Walkable(p) {
		t.Fatalf("open door must be walkable")
	}

	g.Reserve(p)
	if g.Walkable(p) || g.Occupiable(p) {
		t.Fatalf("reserved tile must be neither walkable nor occupiable")
	}
}

func TestMoveCostPenalties(t *testing.T) {
	g := New(4, 4)
	p := Cell{2, 2}

	if got := g.MoveCost(p); got != BaseMoveCost {
		t.Fatalf("base cost = %d, want %d", got, BaseMoveCost)
	}

	g.SetTerrain(p, TerrainShallowWater)
	if got := g.MoveCost(p); got != BaseMoveCost+15 {
		t.Fatalf("shallow water cost = %d, want %d", got, BaseMoveCost+15)
	}

	g.SetTerrain(p, 0)
	g.SetMaterial(p, MatCrop)
	if got := g.MoveCost(p); got != BaseMoveCost+5 {
		t.Fatalf("crop cost = %d, want %d", got, BaseMoveCost+5)
	}

	g.SetMaterial(p, MatSoil)
	g.SetDoor(p, true, false)
	if got := g.MoveCost(p); got != BaseMoveCost+25 {
		t.Fatalf("closed door cost = %d, want %d", got, BaseMoveCost+25)
	}
	g.OpenDoor(p)
	if got := g.MoveCost(p); got != BaseMoveCost {
		t.Fatalf("open door cost = %d, want %d", got, BaseMoveCost)
	}

	if got := g.MoveCost(Cell{-1, 0}); got < 1<<20 {
		t.Fatalf("out of bounds cost must be prohibitive, got %d", got)
	}
}

func TestTerrainCostFloor(t *testing.T) {
	g := New(2, 2)
	g.SetTerrainCost(Cell{0, 0}, 3)
	if got := g.At(Cell{0, 0}).MoveCost; got != BaseMoveCost {
		t.Fatalf("move cost floor = %d, want %d", got, BaseMoveCost)
	}
	g.SetTerrainCost(Cell{0, 0}, 40)
	if got := g.At(Cell{0, 0}).MoveCost; got != 40 {
		t.Fatalf("move cost = %d, want 40", got)
	}
}

func TestStampBumpsOnMutation(t *testing.T) {
	g := New(3, 3)
	s0 := g.Stamp()

	g.SetObstacle(Cell{1, 1}, true)
	if g.Stamp() == s0 {
		t.Fatalf("SetObstacle must bump stamp")
	}

	s1 := g.Stamp()
	g.SetObstacle(Cell{-5, -5}, true) // ignored
	if g.Stamp() != s1 {
		t.Fatalf("out-of-range mutation must not bump stamp")
	}

	g.SetZoneID(Cell{0, 2}, 7)
	g.SetMaterial(Cell{2, 0}, MatTree)
	g.Reserve(Cell{0, 0})
	g.Unreserve(Cell{0, 0})
	if g.Stamp() != s1+4 {
		t.Fatalf("each mutator must bump stamp exactly once, got %d want %d", g.Stamp(), s1+4)
	}
}
