package world

import (
	"colonysim/internal/sim/grid"
	"colonysim/internal/sim/items"
	"colonysim/internal/sim/jobs"
	"colonysim/internal/sim/path"
)

type AgentState uint8

const (
	Idle AgentState = iota
	AcquireJob
	Plan
	Navigate
	Work
	Deliver
	Sleep
	Leisure
)

var stateNames = [...]string{
	"Idle", "AcquireJob", "Plan", "Navigate", "Work", "Deliver", "Sleep", "Leisure",
}

func (s AgentState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Idle"
}

type ScheduleBlock uint8

const (
	BlockWork ScheduleBlock = iota
	BlockSleep
	BlockLeisure
)

// Schedule is one block per hour of day.
type Schedule struct {
	PerHour [24]ScheduleBlock
}

// DefaultSchedule: sleep 00-05 and 23, leisure at 06 and 19-21, work
// otherwise.
func DefaultSchedule() Schedule {
	var s Schedule
	for h := 0; h < 24; h++ {
		s.PerHour[h] = BlockWork
	}
	for h := 0; h < 6; h++ {
		s.PerHour[h] = BlockSleep
	}
	s.PerHour[6] = BlockLeisure
	for h := 19; h <= 21; h++ {
		s.PerHour[h] = BlockLeisure
	}
	s.PerHour[23] = BlockSleep
	return s
}

func (s Schedule) BlockAtMinute(minuteOfDay int) ScheduleBlock {
	return s.PerHour[(minuteOfDay/60)%24]
}

// Skills is a per-job-kind level map, 0..10. Missing kinds read as 0.
type Skills map[jobs.Kind]int

type Agent struct {
	ID    int
	Pos   grid.Cell
	State AgentState

	Job      *jobs.Job
	Plan     []jobs.Job // FIFO of upcoming jobs
	Path     path.Path
	WorkLeft int
	CarryTo  grid.Cell

	Inv *items.Inventory

	// Needs, 0..100. Higher hunger is worse; rest and morale decay toward 0.
	Hunger int
	Rest   int
	Morale int

	Schedule Schedule
	Skills   Skills
}

func (a *Agent) dropJob() {
	a.Job = nil
	a.Path = path.Path{}
}
