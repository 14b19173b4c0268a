package save

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func sampleDoc() *Doc {
	return &Doc{
		Width: 2, Height: 1, MinuteOfDay: 481, TickCount: 7,
		Tiles: []Tile{
			{X: 0, Y: 0, Walkable: true, MoveCost: 10},
			{X: 1, Y: 0, Walkable: false, Material: 2, Terrain: 3, IsDoor: true, DoorOpen: true, ZoneID: 4, MoveCost: 12},
		},
		Agents: []Agent{
			{ID: 1, X: 0, Y: 0, State: 4, Hunger: 33, Rest: 70, Morale: 65, InvCapacity: 8,
				Slots: []Slot{{Item: 1, Qty: 2}}},
		},
		Ground:   []GroundStack{{X: 1, Y: 0, Item: 5, Qty: 3}},
		Zones:    []Zone{{ID: 9, Priority: 2, Allow: []int{2}, Cells: [][2]int{{1, 0}}}},
		Stations: []Station{{Index: 0, Type: 1, X: 0, Y: 0}},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleDoc()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, sampleDoc()) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, sampleDoc())
	}
}

func TestDecodeSkipsUnknownAndMalformed(t *testing.T) {
	in := strings.Join([]string{
		"WORLD 3 3 480 0",
		"FUTURE_RECORD 1 2 3",
		"T 0 0 1", // short T line
		"T nonsense here",
		"AS 1 5", // AS before any A record
		"G 1 1 5 2",
		"",
	}, "\n")
	d, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Width != 3 || d.Height != 3 {
		t.Fatalf("world header lost: %+v", d)
	}
	if len(d.Tiles) != 0 || len(d.Agents) != 0 {
		t.Fatalf("malformed records must be dropped: %+v", d)
	}
	if len(d.Ground) != 1 || d.Ground[0].Qty != 2 {
		t.Fatalf("good records must survive: %+v", d.Ground)
	}
}

func TestDecodeAttachesSlotsToLastAgent(t *testing.T) {
	in := strings.Join([]string{
		"WORLD 1 1 480 0",
		"A 1 0 0 0 20 80 70 8",
		"AS 1 2",
		"A 2 0 0 0 20 80 70 8",
		"AS 6 1",
		"AS 9 4",
	}, "\n")
	d, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(d.Agents) != 2 {
		t.Fatalf("agents = %d", len(d.Agents))
	}
	if len(d.Agents[0].Slots) != 1 || len(d.Agents[1].Slots) != 2 {
		t.Fatalf("slot attachment wrong: %+v", d.Agents)
	}
}

func TestDecodeGroupsZoneRecordsBySerializedID(t *testing.T) {
	in := strings.Join([]string{
		"WORLD 4 4 480 0",
		"Z 7 1",
		"Z 3 5",
		"ZA 3 2",
		"ZC 7 0 0",
		"ZC 3 2 2",
	}, "\n")
	d, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(d.Zones) != 2 {
		t.Fatalf("zones = %+v", d.Zones)
	}
	// File order of Z records is preserved.
	if d.Zones[0].ID != 7 || d.Zones[1].ID != 3 {
		t.Fatalf("zone order = %+v", d.Zones)
	}
	if len(d.Zones[0].Cells) != 1 || len(d.Zones[1].Cells) != 1 || len(d.Zones[1].Allow) != 1 {
		t.Fatalf("zone grouping = %+v", d.Zones)
	}
}
