package world

import (
	"strings"

	"colonysim/internal/sim/grid"
)

// RenderASCII draws a rectangular window of the world as text, one row per
// line. A negative origin clamps to 0; negative width/height mean "to the
// edge". Debug aid only; the glyph set is not a stable interface.
//
//	# obstacle   @ agent   | closed door   / open door
//	T tree       R rock    * crop          i loose items
//	+ stockpile  . floor
func (w *World) RenderASCII(x0, y0, wd, ht int) string {
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if wd < 0 {
		wd = w.grid.Width()
	}
	if ht < 0 {
		ht = w.grid.Height()
	}
	agentPos := map[grid.Cell]bool{}
	for _, a := range w.agents {
		agentPos[a.Pos] = true
	}

	var b strings.Builder
	for y := y0; y < y0+ht && y < w.grid.Height(); y++ {
		for x := x0; x < x0+wd && x < w.grid.Width(); x++ {
			p := grid.Cell{X: x, Y: y}
			t := w.grid.At(p)
			c := byte('.')
			switch {
			case !t.Walkable:
				c = '#'
			case agentPos[p]:
				c = '@'
			case t.IsDoor && t.DoorOpen:
				c = '/'
			case t.IsDoor:
				c = '|'
			case t.Material == grid.MatTree:
				c = 'T'
			case t.Material == grid.MatRock:
				c = 'R'
			case t.Material == grid.MatCrop:
				c = '*'
			case len(w.ground.At(p)) > 0:
				c = 'i'
			case t.ZoneID != 0:
				c = '+'
			}
			b.WriteByte(c)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
