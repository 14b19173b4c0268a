package world

import (
	"fmt"
	"os"
	"sort"

	"colonysim/internal/persistence/save"
	"colonysim/internal/sim/buildings"
	"colonysim/internal/sim/grid"
	"colonysim/internal/sim/items"
)

// Export captures the full world state as a save document. Map-backed
// collections are emitted in sorted order so identical worlds produce
// identical bytes.
func (w *World) Export() *save.Doc {
	d := &save.Doc{
		Width:       w.grid.Width(),
		Height:      w.grid.Height(),
		MinuteOfDay: w.minuteOfDay,
		TickCount:   w.tickCount,
	}
	for y := 0; y < w.grid.Height(); y++ {
		for x := 0; x < w.grid.Width(); x++ {
			t := w.grid.At(grid.Cell{X: x, Y: y})
			d.Tiles = append(d.Tiles, save.Tile{
				X: x, Y: y, Walkable: t.Walkable,
				Material: int(t.Material), Terrain: int(t.Terrain),
				IsDoor: t.IsDoor, DoorOpen: t.DoorOpen,
				ZoneID: int(t.ZoneID), MoveCost: int(t.MoveCost),
			})
		}
	}
	for _, a := range w.agents {
		sa := save.Agent{
			ID: a.ID, X: a.Pos.X, Y: a.Pos.Y, State: int(a.State),
			Hunger: a.Hunger, Rest: a.Rest, Morale: a.Morale,
			InvCapacity: a.Inv.Capacity(),
		}
		for _, s := range a.Inv.Slots() {
			sa.Slots = append(sa.Slots, save.Slot{Item: int(s.ID), Qty: s.Qty})
		}
		d.Agents = append(d.Agents, sa)
	}
	for _, c := range w.ground.Cells() {
		for _, s := range w.ground.At(c) {
			d.Ground = append(d.Ground, save.GroundStack{X: c.X, Y: c.Y, Item: int(s.ID), Qty: s.Qty})
		}
	}
	for _, z := range w.stockpiles.Zones() {
		sz := save.Zone{ID: int(z.ID), Priority: z.Priority}
		for it := range z.Allow {
			sz.Allow = append(sz.Allow, int(it))
		}
		sort.Ints(sz.Allow)
		for c := range z.Cells {
			sz.Cells = append(sz.Cells, [2]int{c.X, c.Y})
		}
		sort.Slice(sz.Cells, func(i, j int) bool {
			if sz.Cells[i][1] != sz.Cells[j][1] {
				return sz.Cells[i][1] < sz.Cells[j][1]
			}
			return sz.Cells[i][0] < sz.Cells[j][0]
		})
		d.Zones = append(d.Zones, sz)
	}
	for i, ws := range w.buildings.All() {
		d.Stations = append(d.Stations, save.Station{Index: i, Type: int(ws.Type), X: ws.Pos.X, Y: ws.Pos.Y})
	}
	return d
}

// Import replaces the world state with the document's. Stockpile zones are
// re-created with fresh sequential ids: cell sets, allow lists and priorities
// survive, the serialized ids do not. Tile zone ids are restored verbatim
// from T records, so they keep referring to the old numbering.
func (w *World) Import(d *save.Doc) {
	if d.Width > 0 && d.Height > 0 {
		w.grid = grid.New(d.Width, d.Height)
		w.rebindFinder()
	}
	w.minuteOfDay = d.MinuteOfDay
	w.tickCount = d.TickCount
	w.agents = nil
	w.ground.Clear()
	w.stockpiles = items.NewStockpiles()
	w.buildings = buildings.NewManager(w.recipes)
	for c := range w.occupied {
		delete(w.occupied, c)
	}

	for _, t := range d.Tiles {
		w.grid.SetTile(grid.Cell{X: t.X, Y: t.Y}, grid.Tile{
			Walkable: t.Walkable,
			Material: uint8(t.Material), Terrain: uint8(t.Terrain),
			IsDoor: t.IsDoor, DoorOpen: t.DoorOpen,
			ZoneID: uint16(t.ZoneID), MoveCost: uint16(t.MoveCost),
		})
	}

	w.nextAgentID = 1
	for _, sa := range d.Agents {
		a := &Agent{
			ID:       sa.ID,
			Pos:      grid.Cell{X: sa.X, Y: sa.Y},
			State:    clampState(sa.State),
			Hunger:   sa.Hunger,
			Rest:     sa.Rest,
			Morale:   sa.Morale,
			Inv:      items.NewInventory(sa.InvCapacity),
			Schedule: DefaultSchedule(),
			Skills:   Skills{},
		}
		for _, s := range sa.Slots {
			a.Inv.Add(items.ItemID(s.Item), s.Qty)
		}
		w.agents = append(w.agents, a)
		if sa.ID >= w.nextAgentID {
			w.nextAgentID = sa.ID + 1
		}
	}

	for _, g := range d.Ground {
		w.ground.Drop(grid.Cell{X: g.X, Y: g.Y}, items.ItemID(g.Item), g.Qty)
	}

	for _, z := range d.Zones {
		id := w.stockpiles.CreateZone(z.Priority)
		for _, c := range z.Cells {
			w.stockpiles.AddCell(id, grid.Cell{X: c[0], Y: c[1]})
		}
		allow := make([]items.ItemID, 0, len(z.Allow))
		for _, it := range z.Allow {
			allow = append(allow, items.ItemID(it))
		}
		w.stockpiles.SetAllow(id, allow)
	}

	for _, s := range d.Stations {
		w.buildings.Add(buildings.Type(s.Type), grid.Cell{X: s.X, Y: s.Y})
	}
}

func clampState(v int) AgentState {
	if v < 0 || v > int(Leisure) {
		return Idle
	}
	return AgentState(v)
}

// Save writes the world to a text save file.
func (w *World) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save world: %w", err)
	}
	if err := save.Encode(f, w.Export()); err != nil {
		f.Close()
		return fmt.Errorf("save world: %w", err)
	}
	return f.Close()
}

// Load reads a text save file into this world, replacing all state.
func (w *World) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	defer f.Close()
	d, err := save.Decode(f)
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	w.Import(d)
	return nil
}
