package items

import (
	"sort"

	"colonysim/internal/sim/grid"
)

// Zone is a stockpile region: a cell set, an allow-list (empty = accept all)
// and a priority used when several zones accept the same item.
type Zone struct {
	ID       uint16
	Cells    map[grid.Cell]bool
	Allow    map[ItemID]bool
	Priority int
}

func (z *Zone) Accepts(id ItemID) bool {
	return len(z.Allow) == 0 || z.Allow[id]
}

// Stockpiles owns zero or more zones. Zone ids are assigned sequentially and
// are not preserved across save/load (see the save package).
type Stockpiles struct {
	nextID uint16
	zones  []*Zone
}

func NewStockpiles() *Stockpiles { return &Stockpiles{} }

func (sp *Stockpiles) CreateZone(priority int) uint16 {
	sp.nextID++
	sp.zones = append(sp.zones, &Zone{
		ID:       sp.nextID,
		Cells:    map[grid.Cell]bool{},
		Allow:    map[ItemID]bool{},
		Priority: priority,
	})
	return sp.nextID
}

func (sp *Stockpiles) AddCell(id uint16, p grid.Cell) {
	if z := sp.find(id); z != nil {
		z.Cells[p] = true
	}
}

func (sp *Stockpiles) SetAllow(id uint16, allow []ItemID) {
	z := sp.find(id)
	if z == nil {
		return
	}
	z.Allow = map[ItemID]bool{}
	for _, it := range allow {
		z.Allow[it] = true
	}
}

func (sp *Stockpiles) ZoneAt(p grid.Cell) (uint16, bool) {
	for _, z := range sp.zones {
		if z.Cells[p] {
			return z.ID, true
		}
	}
	return 0, false
}

func (sp *Stockpiles) Zones() []*Zone { return sp.zones }

// PickDestination chooses the highest-priority zone accepting the item
// (first created wins ties), then the zone cell nearest to near by Manhattan
// distance.
func (sp *Stockpiles) PickDestination(item ItemID, near grid.Cell) (grid.Cell, bool) {
	var best *Zone
	for _, z := range sp.zones {
		if !z.Accepts(item) {
			continue
		}
		if best == nil || z.Priority > best.Priority {
			best = z
		}
	}
	if best == nil || len(best.Cells) == 0 {
		return grid.Cell{}, false
	}
	cells := make([]grid.Cell, 0, len(best.Cells))
	for c := range best.Cells {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Less(cells[j]) })

	bestCell := cells[0]
	bestD := grid.Manhattan(bestCell, near)
	for _, c := range cells[1:] {
		if d := grid.Manhattan(c, near); d < bestD {
			bestD, bestCell = d, c
		}
	}
	return bestCell, true
}

func (sp *Stockpiles) find(id uint16) *Zone {
	for _, z := range sp.zones {
		if z.ID == id {
			return z
		}
	}
	return nil
}
