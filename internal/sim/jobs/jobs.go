// Package jobs defines the unit of colonist work and the priority queue it
// is scheduled from.
package jobs

import (
	"colonysim/internal/sim/grid"
	"colonysim/internal/sim/items"
)

type Kind uint8

const (
	None Kind = iota
	MoveTo
	Chop
	Mine
	Haul
	Build
	Farm
	Craft
	Cook
	Research
	Heal
	Train
	Tame
	Patrol
	Trade
	Deliver

	KindCount
)

var kindNames = [...]string{
	"None", "MoveTo", "Chop", "Mine", "Haul", "Build", "Farm",
	"Craft", "Cook", "Research", "Heal", "Train", "Tame",
	"Patrol", "Trade", "Deliver",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "None"
}

// Job is an immutable description of one unit of work. Target is the primary
// tile, Aux a secondary one (haul destination, patrol endpoint).
type Job struct {
	Kind      Kind
	Target    grid.Cell
	Aux       grid.Cell
	WorkTicks int
	Item      items.ItemID
	Amount    int
}

func NewMoveTo(t grid.Cell) Job { return Job{Kind: MoveTo, Target: t} }

func NewChop(t grid.Cell) Job { return Job{Kind: Chop, Target: t, WorkTicks: 120} }

func NewMine(t grid.Cell) Job { return Job{Kind: Mine, Target: t, WorkTicks: 160} }

func NewHaul(from, to grid.Cell, id items.ItemID, qty int) Job {
	return Job{Kind: Haul, Target: from, Aux: to, WorkTicks: 30, Item: id, Amount: qty}
}

func NewBuild(t grid.Cell) Job { return Job{Kind: Build, Target: t, WorkTicks: 200} }

func NewFarm(t grid.Cell, ticks int) Job { return Job{Kind: Farm, Target: t, WorkTicks: ticks} }

func NewCraft(ws grid.Cell, ticks int, out items.ItemID, qty int) Job {
	return Job{Kind: Craft, Target: ws, WorkTicks: ticks, Item: out, Amount: qty}
}

func NewCook(ws grid.Cell, ticks int) Job {
	return Job{Kind: Cook, Target: ws, WorkTicks: ticks, Item: items.Meal, Amount: 1}
}

func NewResearch(ws grid.Cell, ticks int) Job {
	return Job{Kind: Research, Target: ws, WorkTicks: ticks, Item: items.ResearchData, Amount: 1}
}

func NewPatrol(a, b grid.Cell) Job { return Job{Kind: Patrol, Target: a, Aux: b} }

func NewDeliver(from, to grid.Cell, id items.ItemID, qty int) Job {
	return Job{Kind: Deliver, Target: from, Aux: to, WorkTicks: 10, Item: id, Amount: qty}
}

func NewTrade(market grid.Cell, drop grid.Cell, id items.ItemID, qty int) Job {
	return Job{Kind: Trade, Target: market, Aux: drop, WorkTicks: 40, Item: id, Amount: qty}
}
