package grid

// Tile materials. Stored as small ints so the text save format stays stable.
const (
	MatSoil uint8 = iota
	MatTree
	MatRock
	MatWater
	MatCrop
)

// Terrain kinds are user-defined; TerrainShallowWater carries a movement
// penalty in MoveCost.
const TerrainShallowWater uint8 = 3

// BaseMoveCost is the floor for per-tile movement cost.
const BaseMoveCost = 10

type Tile struct {
	Walkable bool
	Reserved bool
	Material uint8
	Terrain  uint8
	IsDoor   bool
	DoorOpen bool
	ZoneID   uint16
	MoveCost uint16
}

// Grid owns the tile array. Every mutator bumps a monotonic stamp that path
// caches compare against; out-of-range mutations are silently ignored.
type Grid struct {
	w, h  int
	tiles []Tile
	stamp uint64
}

func New(w, h int) *Grid {
	g := &Grid{w: w, h: h, tiles: make([]Tile, w*h), stamp: 1}
	for i := range g.tiles {
		g.tiles[i] = Tile{Walkable: true, MoveCost: BaseMoveCost}
	}
	return g
}

func (g *Grid) Width() int  { return g.w }
func (g *Grid) Height() int { return g.h }

// Stamp increments on any structural change.
func (g *Grid) Stamp() uint64 { return g.stamp }

func (g *Grid) InBounds(p Cell) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.w && p.Y < g.h
}

func (g *Grid) At(p Cell) Tile {
	return g.tiles[g.idx(p)]
}

// Walkable reports whether a path may pass through p. A closed door blocks
// here; the agent opens it on arrival instead (see Occupiable).
func (g *Grid) Walkable(p Cell) bool {
	if !g.InBounds(p) {
		return false
	}
	t := g.tiles[g.idx(p)]
	return t.Walkable && !t.Reserved && (!t.IsDoor || t.DoorOpen)
}

// Occupiable reports whether an agent may stand on p. Doors count even when
// closed.
func (g *Grid) Occupiable(p Cell) bool {
	if !g.InBounds(p) {
		return false
	}
	t := g.tiles[g.idx(p)]
	return t.Walkable && !t.Reserved
}

// MoveCost is the base tile cost plus terrain/material/door penalties.
func (g *Grid) MoveCost(p Cell) int {
	if !g.InBounds(p) {
		return 1 << 20
	}
	t := g.tiles[g.idx(p)]
	c := int(t.MoveCost)
	if t.Terrain == TerrainShallowWater {
		c += 15
	}
	if t.Material == MatCrop {
		c += 5
	}
	if t.IsDoor && !t.DoorOpen {
		c += 25
	}
	return c
}

func (g *Grid) Neighbors4(p Cell) [4]Cell {
	return [4]Cell{{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1}}
}

func (g *Grid) Neighbors8(p Cell) [8]Cell {
	return [8]Cell{
		{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1},
		{p.X + 1, p.Y + 1}, {p.X + 1, p.Y - 1}, {p.X - 1, p.Y + 1}, {p.X - 1, p.Y - 1},
	}
}

func (g *Grid) SetObstacle(p Cell, blocked bool) {
	if !g.InBounds(p) {
		return
	}
	g.tiles[g.idx(p)].Walkable = !blocked
	g.bump()
}

func (g *Grid) SetMaterial(p Cell, m uint8) {
	if !g.InBounds(p) {
		return
	}
	g.tiles[g.idx(p)].Material = m
	g.bump()
}

func (g *Grid) SetTerrain(p Cell, terrain uint8) {
	if !g.InBounds(p) {
		return
	}
	g.tiles[g.idx(p)].Terrain = terrain
	g.bump()
}

// SetTerrainCost clamps to the BaseMoveCost floor.
func (g *Grid) SetTerrainCost(p Cell, cost uint16) {
	if !g.InBounds(p) {
		return
	}
	if cost < BaseMoveCost {
		cost = BaseMoveCost
	}
	g.tiles[g.idx(p)].MoveCost = cost
	g.bump()
}

func (g *Grid) SetZoneID(p Cell, id uint16) {
	if !g.InBounds(p) {
		return
	}
	g.tiles[g.idx(p)].ZoneID = id
	g.bump()
}

func (g *Grid) SetDoor(p Cell, isDoor, open bool) {
	if !g.InBounds(p) {
		return
	}
	t := &g.tiles[g.idx(p)]
	t.IsDoor = isDoor
	t.DoorOpen = open
	g.bump()
}

func (g *Grid) OpenDoor(p Cell) {
	if !g.InBounds(p) {
		return
	}
	g.tiles[g.idx(p)].DoorOpen = true
	g.bump()
}

func (g *Grid) CloseDoor(p Cell) {
	if !g.InBounds(p) {
		return
	}
	g.tiles[g.idx(p)].DoorOpen = false
	g.bump()
}

func (g *Grid) Reserve(p Cell) {
	if !g.InBounds(p) {
		return
	}
	g.tiles[g.idx(p)].Reserved = true
	g.bump()
}

func (g *Grid) Unreserve(p Cell) {
	if !g.InBounds(p) {
		return
	}
	g.tiles[g.idx(p)].Reserved = false
	g.bump()
}

// SetTile restores a whole tile record; used by the save loader.
func (g *Grid) SetTile(p Cell, t Tile) {
	if !g.InBounds(p) {
		return
	}
	if t.MoveCost < BaseMoveCost {
		t.MoveCost = BaseMoveCost
	}
	g.tiles[g.idx(p)] = t
	g.bump()
}

func (g *Grid) idx(p Cell) int { return p.Y*g.w + p.X }
func (g *Grid) bump()          { g.stamp++ }
