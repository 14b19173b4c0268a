// Package items holds the resource bookkeeping: item identities, bounded
// inventories, ground stacks and stockpile zones. All types are exclusively
// owned by the world and mutated only from the simulation tick.
package items

import (
	"sort"

	"colonysim/internal/sim/grid"
)

type ItemID uint16

const (
	None ItemID = iota
	Log
	Plank
	Ore
	Ingot
	RawFood
	Meal
	Herb
	Medicine
	Paper
	ResearchData
	Tool
	Seed
	Crop
	Stone
)

var itemNames = map[ItemID]string{
	Log: "Log", Plank: "Plank", Ore: "Ore", Ingot: "Ingot",
	RawFood: "RawFood", Meal: "Meal", Herb: "Herb", Medicine: "Medicine",
	Paper: "Paper", ResearchData: "ResearchData", Tool: "Tool",
	Seed: "Seed", Crop: "Crop", Stone: "Stone",
}

func (id ItemID) String() string {
	if s, ok := itemNames[id]; ok {
		return s
	}
	return "None"
}

// Parse resolves an item name as used in catalog files.
func Parse(name string) (ItemID, bool) {
	for id, n := range itemNames {
		if n == name {
			return id, true
		}
	}
	return None, false
}

type Stack struct {
	ID  ItemID
	Qty int
}

func (s Stack) Empty() bool { return s.ID == None || s.Qty <= 0 }

// Inventory is a capacity-bounded ordered slot list. Slots merge by item id;
// zero-quantity slots are never kept.
type Inventory struct {
	cap   int
	slots []Stack
}

func NewInventory(capacity int) *Inventory {
	return &Inventory{cap: capacity}
}

func (inv *Inventory) Capacity() int  { return inv.cap }
func (inv *Inventory) Slots() []Stack { return inv.slots }

func (inv *Inventory) Count(id ItemID) int {
	n := 0
	for _, s := range inv.slots {
		if s.ID == id {
			n += s.Qty
		}
	}
	return n
}

func (inv *Inventory) Total() int {
	n := 0
	for _, s := range inv.slots {
		n += s.Qty
	}
	return n
}

func (inv *Inventory) Has(id ItemID, qty int) bool { return inv.Count(id) >= qty }

// Add merges qty into an existing slot for id, else allocates a new slot if
// under capacity. Returns the unconsumed leftover (all of qty when full).
func (inv *Inventory) Add(id ItemID, qty int) int {
	if id == None || qty <= 0 {
		return 0
	}
	for i := range inv.slots {
		if inv.slots[i].ID == id && inv.slots[i].Qty > 0 {
			inv.slots[i].Qty += qty
			return 0
		}
	}
	if len(inv.slots) < inv.cap {
		inv.slots = append(inv.slots, Stack{ID: id, Qty: qty})
		return 0
	}
	return qty
}

// Remove drains matching slots front-to-back, prunes empties, and returns
// the amount actually removed (<= qty).
func (inv *Inventory) Remove(id ItemID, qty int) int {
	need, got := qty, 0
	for i := range inv.slots {
		if inv.slots[i].ID != id || inv.slots[i].Qty <= 0 {
			continue
		}
		take := inv.slots[i].Qty
		if take > need {
			take = need
		}
		inv.slots[i].Qty -= take
		got += take
		need -= take
		if need <= 0 {
			break
		}
	}
	inv.compact()
	return got
}

func (inv *Inventory) compact() {
	out := inv.slots[:0]
	for _, s := range inv.slots {
		if !s.Empty() {
			out = append(out, s)
		}
	}
	inv.slots = out
}

// GroundItems maps cells to loose item stacks. Per-cell stacks merge by id;
// cells vanish when their last stack empties.
type GroundItems struct {
	cells map[grid.Cell][]Stack
}

func NewGroundItems() *GroundItems {
	return &GroundItems{cells: map[grid.Cell][]Stack{}}
}

func (gi *GroundItems) Drop(at grid.Cell, id ItemID, qty int) {
	if qty <= 0 || id == None {
		return
	}
	stacks := gi.cells[at]
	for i := range stacks {
		if stacks[i].ID == id {
			stacks[i].Qty += qty
			return
		}
	}
	gi.cells[at] = append(stacks, Stack{ID: id, Qty: qty})
}

// Take removes up to qty of id at the cell and returns the amount removed.
func (gi *GroundItems) Take(at grid.Cell, id ItemID, qty int) int {
	if qty <= 0 {
		return 0
	}
	stacks, ok := gi.cells[at]
	if !ok {
		return 0
	}
	need, got := qty, 0
	for i := range stacks {
		if stacks[i].ID != id {
			continue
		}
		take := stacks[i].Qty
		if take > need {
			take = need
		}
		stacks[i].Qty -= take
		got += take
		need -= take
		if need <= 0 {
			break
		}
	}
	out := stacks[:0]
	for _, s := range stacks {
		if !s.Empty() {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		delete(gi.cells, at)
	} else {
		gi.cells[at] = out
	}
	return got
}

func (gi *GroundItems) At(p grid.Cell) []Stack { return gi.cells[p] }

func (gi *GroundItems) CountAt(p grid.Cell, id ItemID) int {
	n := 0
	for _, s := range gi.cells[p] {
		if s.ID == id {
			n += s.Qty
		}
	}
	return n
}

func (gi *GroundItems) Len() int { return len(gi.cells) }

// Cells returns occupied cells sorted row-major so iteration stays
// deterministic across runs.
func (gi *GroundItems) Cells() []grid.Cell {
	out := make([]grid.Cell, 0, len(gi.cells))
	for c := range gi.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Nearest finds the closest cell (Manhattan) carrying any quantity of id.
// Returns the cell, the quantity there, and whether anything was found.
func (gi *GroundItems) Nearest(id ItemID, near grid.Cell) (grid.Cell, int, bool) {
	var best grid.Cell
	bestD := int(^uint(0) >> 1)
	bestQty := 0
	for _, c := range gi.Cells() {
		qty := gi.CountAt(c, id)
		if qty <= 0 {
			continue
		}
		if d := grid.Manhattan(c, near); d < bestD {
			bestD, best, bestQty = d, c, qty
		}
	}
	return best, bestQty, bestQty > 0
}

// Clear drops all ground state; used by the save loader.
func (gi *GroundItems) Clear() { gi.cells = map[grid.Cell][]Stack{} }
