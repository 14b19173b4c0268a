// Package save implements the line-oriented world save format. One record
// per line, whitespace-separated fields:
//
//	WORLD <width> <height> <minuteOfDay> <tickCount>
//	T <x> <y> <walkable> <material> <terrain> <isDoor> <doorOpen> <zoneId> <moveCost>
//	A <agentId> <x> <y> <state> <hunger> <rest> <morale> <invCapacity>
//	AS <itemId> <qty>
//	G <x> <y> <itemId> <qty>
//	Z <zoneId> <priority>
//	ZA <zoneId> <itemId>
//	ZC <zoneId> <x> <y>
//	W <index> <buildingType> <x> <y>
//
// The decoder is tolerant: unknown tokens and short lines are skipped, AS
// records attach to the most recent A record, and parsing never fails on
// malformed content (only on I/O errors).
package save

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type Doc struct {
	Width, Height int
	MinuteOfDay   int
	TickCount     uint64

	Tiles    []Tile
	Agents   []Agent
	Ground   []GroundStack
	Zones    []Zone
	Stations []Station
}

type Tile struct {
	X, Y     int
	Walkable bool
	Material int
	Terrain  int
	IsDoor   bool
	DoorOpen bool
	ZoneID   int
	MoveCost int
}

type Agent struct {
	ID          int
	X, Y        int
	State       int
	Hunger      int
	Rest        int
	Morale      int
	InvCapacity int
	Slots       []Slot
}

type Slot struct {
	Item int
	Qty  int
}

type GroundStack struct {
	X, Y int
	Item int
	Qty  int
}

// Zone carries the id as serialized. Loaders assign fresh sequential ids on
// import; the serialized id only groups ZA/ZC records with their Z record.
type Zone struct {
	ID       int
	Priority int
	Allow    []int
	Cells    [][2]int
}

type Station struct {
	Index int
	Type  int
	X, Y  int
}

func Encode(w io.Writer, d *Doc) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "WORLD %d %d %d %d\n", d.Width, d.Height, d.MinuteOfDay, d.TickCount)
	for _, t := range d.Tiles {
		fmt.Fprintf(bw, "T %d %d %d %d %d %d %d %d %d\n",
			t.X, t.Y, b2i(t.Walkable), t.Material, t.Terrain,
			b2i(t.IsDoor), b2i(t.DoorOpen), t.ZoneID, t.MoveCost)
	}
	for _, a := range d.Agents {
		fmt.Fprintf(bw, "A %d %d %d %d %d %d %d %d\n",
			a.ID, a.X, a.Y, a.State, a.Hunger, a.Rest, a.Morale, a.InvCapacity)
		for _, s := range a.Slots {
			fmt.Fprintf(bw, "AS %d %d\n", s.Item, s.Qty)
		}
	}
	for _, g := range d.Ground {
		fmt.Fprintf(bw, "G %d %d %d %d\n", g.X, g.Y, g.Item, g.Qty)
	}
	for _, z := range d.Zones {
		fmt.Fprintf(bw, "Z %d %d\n", z.ID, z.Priority)
		for _, it := range z.Allow {
			fmt.Fprintf(bw, "ZA %d %d\n", z.ID, it)
		}
		for _, c := range z.Cells {
			fmt.Fprintf(bw, "ZC %d %d %d\n", z.ID, c[0], c[1])
		}
	}
	for _, s := range d.Stations {
		fmt.Fprintf(bw, "W %d %d %d %d\n", s.Index, s.Type, s.X, s.Y)
	}
	return bw.Flush()
}

func Decode(r io.Reader) (*Doc, error) {
	d := &Doc{}
	zonesByID := map[int]*Zone{}
	var zoneOrder []int

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		nums := make([]int, 0, len(fields)-1)
		ok := true
		for _, f := range fields[1:] {
			n, err := strconv.Atoi(f)
			if err != nil {
				ok = false
				break
			}
			nums = append(nums, n)
		}
		if !ok {
			continue
		}
		switch fields[0] {
		case "WORLD":
			if len(nums) < 4 {
				continue
			}
			d.Width, d.Height = nums[0], nums[1]
			d.MinuteOfDay = nums[2]
			d.TickCount = uint64(nums[3])
		case "T":
			if len(nums) < 9 {
				continue
			}
			d.Tiles = append(d.Tiles, Tile{
				X: nums[0], Y: nums[1], Walkable: nums[2] != 0,
				Material: nums[3], Terrain: nums[4],
				IsDoor: nums[5] != 0, DoorOpen: nums[6] != 0,
				ZoneID: nums[7], MoveCost: nums[8],
			})
		case "A":
			if len(nums) < 8 {
				continue
			}
			d.Agents = append(d.Agents, Agent{
				ID: nums[0], X: nums[1], Y: nums[2], State: nums[3],
				Hunger: nums[4], Rest: nums[5], Morale: nums[6],
				InvCapacity: nums[7],
			})
		case "AS":
			if len(nums) < 2 || len(d.Agents) == 0 {
				continue
			}
			a := &d.Agents[len(d.Agents)-1]
			a.Slots = append(a.Slots, Slot{Item: nums[0], Qty: nums[1]})
		case "G":
			if len(nums) < 4 {
				continue
			}
			d.Ground = append(d.Ground, GroundStack{X: nums[0], Y: nums[1], Item: nums[2], Qty: nums[3]})
		case "Z":
			if len(nums) < 2 {
				continue
			}
			if _, seen := zonesByID[nums[0]]; !seen {
				zonesByID[nums[0]] = &Zone{ID: nums[0], Priority: nums[1]}
				zoneOrder = append(zoneOrder, nums[0])
			}
		case "ZA":
			if len(nums) < 2 {
				continue
			}
			if z := zonesByID[nums[0]]; z != nil {
				z.Allow = append(z.Allow, nums[1])
			}
		case "ZC":
			if len(nums) < 3 {
				continue
			}
			if z := zonesByID[nums[0]]; z != nil {
				z.Cells = append(z.Cells, [2]int{nums[1], nums[2]})
			}
		case "W":
			if len(nums) < 4 {
				continue
			}
			d.Stations = append(d.Stations, Station{Index: nums[0], Type: nums[1], X: nums[2], Y: nums[3]})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for _, id := range zoneOrder {
		d.Zones = append(d.Zones, *zonesByID[id])
	}
	return d, nil
}

func b2i(v bool) int {
	if v {
		return 1
	}
	return 0
}
