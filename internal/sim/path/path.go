// Package path implements grid pathfinding for the colony sim: A* with an
// optional jump-point-style pruning pass, corner-cut rejection, Bresenham
// line-of-sight smoothing, and a stamp-checked LRU result cache.
package path

import (
	"container/heap"
	"sort"

	"colonysim/internal/sim/grid"
)

// Path is an ordered list of waypoints including the start cell. An empty
// path means "no route"; callers must not retry with unchanged inputs.
type Path struct {
	Points []grid.Cell
}

func (p Path) Empty() bool { return len(p.Points) == 0 }
func (p Path) Len() int    { return len(p.Points) }

// Blocker lets the caller exclude cells from expansion at query time, e.g.
// the set of cells currently occupied by agents. The goal itself is always
// treated as reachable so agents can target occupied workstations.
type Blocker interface {
	Blocked(c grid.Cell) bool
}

// BlockerFunc adapts a plain function to the Blocker interface.
type BlockerFunc func(c grid.Cell) bool

func (f BlockerFunc) Blocked(c grid.Cell) bool { return f(c) }

const (
	DefaultMaxSearch = 20000
	DefaultCacheMax  = 4096

	costOrtho = 10
	costDiag  = 14
)

type cacheKey struct {
	start grid.Cell
	goal  grid.Cell
}

type cacheEntry struct {
	points    []grid.Cell
	gridStamp uint64
	lastUsed  uint64
}

type Finder struct {
	g *grid.Grid

	allowDiag        bool
	useJPS           bool
	smoothing        bool
	dontCrossCorners bool
	maxSearch        int
	cacheMax         int

	blocker Blocker

	counter uint64
	cache   map[cacheKey]*cacheEntry
}

func NewFinder(g *grid.Grid) *Finder {
	return &Finder{
		g:                g,
		allowDiag:        true,
		useJPS:           true,
		smoothing:        true,
		dontCrossCorners: true,
		maxSearch:        DefaultMaxSearch,
		cacheMax:         DefaultCacheMax,
		cache:            map[cacheKey]*cacheEntry{},
	}
}

func (f *Finder) SetDiagonal(allow bool)       { f.allowDiag = allow }
func (f *Finder) SetJPS(enabled bool)          { f.useJPS = enabled }
func (f *Finder) SetSmoothing(enabled bool)    { f.smoothing = enabled }
func (f *Finder) SetCrossCorners(allow bool)   { f.dontCrossCorners = !allow }
func (f *Finder) SetMaxSearch(nodes int)       { f.maxSearch = nodes }
func (f *Finder) SetCacheMax(entries int)      { f.cacheMax = entries }
func (f *Finder) SetDynamicBlocker(b Blocker)  { f.blocker = b }
func (f *Finder) ClearCache()                  { f.cache = map[cacheKey]*cacheEntry{} }
func (f *Finder) CacheLen() int                { return len(f.cache) }

type node struct {
	p      grid.Cell
	g, f   int
	parent grid.Cell
}

var noParent = grid.Cell{X: -1 << 20, Y: -1 << 20}

type pqItem struct {
	f  int
	id uint64
	p  grid.Cell
}

type pq []pqItem

func (q pq) Len() int { return len(q) }
func (q pq) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].id < q[j].id
}
func (q pq) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *pq) Push(x any)        { *q = append(*q, x.(pqItem)) }
func (q *pq) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// Find returns the best-effort path from start to goal. timestamp is an
// opaque recency value (the world tick) used for cache aging. Results are
// cached until the grid stamp changes.
func (f *Finder) Find(start, goal grid.Cell, timestamp uint64) Path {
	var out Path
	if !f.g.InBounds(start) || !f.g.InBounds(goal) {
		return out
	}
	if start == goal {
		out.Points = []grid.Cell{start}
		return out
	}

	key := cacheKey{start, goal}
	if e, ok := f.cache[key]; ok && e.gridStamp == f.g.Stamp() {
		e.lastUsed = timestamp
		out.Points = append([]grid.Cell(nil), e.points...)
		return out
	}

	passable := func(p grid.Cell) bool {
		if f.blocker != nil && f.blocker.Blocked(p) && p != goal {
			return false
		}
		return f.g.Walkable(p) || p == goal
	}

	h := func(p grid.Cell) int {
		if f.allowDiag {
			return grid.Chebyshev(p, goal) * costOrtho
		}
		return grid.Manhattan(p, goal) * costOrtho
	}

	all := map[grid.Cell]node{}
	openG := map[grid.Cell]int{}
	open := &pq{}
	heap.Init(open)

	push := func(p grid.Cell, g int, parent grid.Cell) {
		n := node{p: p, g: g, f: g + h(p), parent: parent}
		all[p] = n
		openG[p] = g
		f.counter++
		heap.Push(open, pqItem{f: n.f, id: f.counter, p: p})
	}

	push(start, 0, noParent)

	expanded := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(pqItem)
		n, ok := all[cur.p]
		if !ok || n.f != cur.f {
			continue // stale heap entry
		}

		expanded++
		if expanded > f.maxSearch {
			break
		}
		if n.p == goal {
			pts := reconstruct(all, n.p)
			if f.smoothing {
				pts = smooth(pts, passable)
			}
			f.ensureCacheBudget()
			f.cache[key] = &cacheEntry{
				points:    append([]grid.Cell(nil), pts...),
				gridStamp: f.g.Stamp(),
				lastUsed:  timestamp,
			}
			out.Points = pts
			return out
		}

		visit := func(np grid.Cell, stepCost int) {
			if !f.g.InBounds(np) || !passable(np) {
				return
			}
			if f.allowDiag && f.dontCrossCorners && np.X != n.p.X && np.Y != n.p.Y {
				a := grid.Cell{X: np.X, Y: n.p.Y}
				b := grid.Cell{X: n.p.X, Y: np.Y}
				if !passable(a) || !passable(b) {
					return
				}
			}
			tentative := n.g + stepCost + f.g.MoveCost(np)
			if prev, seen := openG[np]; !seen || tentative < prev {
				push(np, tentative, n.p)
			}
		}

		if f.useJPS {
			f.expandJumps(n.p, goal, passable, visit)
		} else {
			f.expandNeighbors(n.p, visit)
		}
	}
	return out // empty if failed
}

var dirs8 = [8]grid.Cell{
	{X: 1}, {X: -1}, {Y: 1}, {Y: -1},
	{X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1},
}

func (f *Finder) expandNeighbors(p grid.Cell, visit func(grid.Cell, int)) {
	if f.allowDiag {
		for _, np := range f.g.Neighbors8(p) {
			step := costOrtho
			if np.X != p.X && np.Y != p.Y {
				step = costDiag
			}
			visit(np, step)
		}
		return
	}
	for _, np := range f.g.Neighbors4(p) {
		visit(np, costOrtho)
	}
}

// expandJumps walks straight in each direction until a forced neighbor (a
// blocked flanking cell creating an asymmetry) or the goal terminates the
// run. A pruning pass rather than full jump point search, but it cuts the
// open-list branching on open maps.
func (f *Finder) expandJumps(p, goal grid.Cell, passable func(grid.Cell) bool, visit func(grid.Cell, int)) {
	dirCount := 4
	if f.allowDiag {
		dirCount = 8
	}
	for d := 0; d < dirCount; d++ {
		dir := dirs8[d]
		np := p.Add(dir)
		if !f.g.InBounds(np) || !passable(np) {
			continue
		}
		diag := dir.X != 0 && dir.Y != 0
		step := costOrtho
		if diag {
			step = costDiag
		}
		cur := np
		for {
			if !f.g.InBounds(cur) || !passable(cur) {
				break
			}
			if f.allowDiag {
				forced := false
				if diag {
					a := grid.Cell{X: cur.X - dir.X, Y: cur.Y}
					b := grid.Cell{X: cur.X, Y: cur.Y - dir.Y}
					if !passable(a) || !passable(b) {
						forced = true
					}
				}
				if forced || cur == goal {
					visit(cur, step)
					break
				}
			} else if cur == goal {
				visit(cur, step)
				break
			}
			cur = cur.Add(dir)
			if diag {
				step += costDiag
			} else {
				step += costOrtho
			}
		}
	}
}

func reconstruct(all map[grid.Cell]node, goal grid.Cell) []grid.Cell {
	var rev []grid.Cell
	p := goal
	for p != noParent {
		rev = append(rev, p)
		p = all[p].parent
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// smooth is a greedy string-pull: keep extending a straight-line anchor while
// line of sight holds, emitting a waypoint only when visibility breaks.
func smooth(pts []grid.Cell, passable func(grid.Cell) bool) []grid.Cell {
	if len(pts) < 3 {
		return pts
	}
	out := []grid.Cell{pts[0]}
	for k := 2; k < len(pts); k++ {
		if !lineOfSight(out[len(out)-1], pts[k], passable) {
			out = append(out, pts[k-1])
		}
	}
	out = append(out, pts[len(pts)-1])
	return out
}

// lineOfSight walks the Bresenham line from a to b checking passability.
func lineOfSight(a, b grid.Cell, passable func(grid.Cell) bool) bool {
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)
	sx := 1
	if a.X >= b.X {
		sx = -1
	}
	sy := 1
	if a.Y >= b.Y {
		sy = -1
	}
	err := dx - dy
	for {
		if !passable(a) {
			return false
		}
		if a == b {
			return true
		}
		e2 := err * 2
		if e2 > -dy {
			err -= dy
			a.X += sx
		}
		if e2 < dx {
			err += dx
			a.Y += sy
		}
	}
}

// ensureCacheBudget evicts the least-recently-used ~10% of entries in one
// batch once the cache is full, amortizing eviction cost.
func (f *Finder) ensureCacheBudget() {
	if len(f.cache) < f.cacheMax {
		return
	}
	type aged struct {
		key      cacheKey
		lastUsed uint64
	}
	entries := make([]aged, 0, len(f.cache))
	for k, e := range f.cache {
		entries = append(entries, aged{key: k, lastUsed: e.lastUsed})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].lastUsed < entries[j].lastUsed })
	evict := len(entries) / 10
	if evict < 1 {
		evict = 1
	}
	for _, e := range entries[:evict] {
		delete(f.cache, e.key)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
