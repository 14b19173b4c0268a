package grid

// Cell is an integer tile coordinate. Value type, comparable, ordered
// row-major (y first) so deterministic iteration can sort on it.
type Cell struct {
	X int
	Y int
}

func (c Cell) Add(o Cell) Cell { return Cell{c.X + o.X, c.Y + o.Y} }
func (c Cell) Sub(o Cell) Cell { return Cell{c.X - o.X, c.Y - o.Y} }

// Less orders cells row-major.
func (c Cell) Less(o Cell) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

func Manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func Chebyshev(a, b Cell) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
