package jobs

import (
	"container/heap"

	"colonysim/internal/sim/grid"
)

// AgentView is the slice of agent state the queue needs for scoring. The
// world builds one per pop; the queue never sees the agent itself.
type AgentView struct {
	Pos         grid.Cell
	Hunger      int
	InWorkBlock bool
	Skills      map[Kind]int
}

type entry struct {
	job      Job
	priority int
	seq      uint64
}

type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority // max-heap on priority
	}
	return h[i].seq < h[j].seq // FIFO among equals
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Queue is a max-heap of jobs by priority with FIFO tie-break. Entries are
// removed permanently once popped; unselected sampled entries go back in.
type Queue struct {
	h   entryHeap
	seq uint64
}

func NewQueue() *Queue {
	q := &Queue{}
	heap.Init(&q.h)
	return q
}

func (q *Queue) Push(j Job, priority int) {
	heap.Push(&q.h, entry{job: j, priority: priority, seq: q.seq})
	q.seq++
}

func (q *Queue) Empty() bool { return len(q.h) == 0 }
func (q *Queue) Len() int    { return len(q.h) }

// Pop returns the strict priority-then-FIFO front, ignoring agent scoring.
func (q *Queue) Pop() (Job, bool) {
	if len(q.h) == 0 {
		return Job{}, false
	}
	e := heap.Pop(&q.h).(entry)
	return e.job, true
}

// DefaultSampleK bounds how many top entries a single pop inspects.
const DefaultSampleK = 12

// PopBestFor pops up to k top entries, scores each against the agent view,
// keeps the best and re-pushes the rest. Bounds per-pop cost to O(k log n);
// the sample is redrawn every call, so consecutive pops may disagree if the
// queue mutates in between.
func (q *Queue) PopBestFor(view AgentView, k int) (Job, bool) {
	if len(q.h) == 0 {
		return Job{}, false
	}
	if k <= 0 {
		k = DefaultSampleK
	}
	sample := make([]entry, 0, k)
	for i := 0; i < k && len(q.h) > 0; i++ {
		sample = append(sample, heap.Pop(&q.h).(entry))
	}

	bestIdx := 0
	bestScore := score(sample[0], view)
	for i := 1; i < len(sample); i++ {
		if s := score(sample[i], view); s > bestScore {
			bestScore, bestIdx = s, i
		}
	}

	for i, e := range sample {
		if i == bestIdx {
			continue
		}
		heap.Push(&q.h, e)
	}
	return sample[bestIdx].job, true
}

func score(e entry, view AgentView) float64 {
	s := float64(e.priority) * 10.0
	s -= float64(grid.Manhattan(view.Pos, e.job.Target)) * 0.5
	s += float64(view.Skills[e.job.Kind]) * 2.0
	if !view.InWorkBlock {
		s -= 10.0
	}
	// Hungry agents gravitate toward food work.
	if (e.job.Kind == Cook || e.job.Kind == Farm) && view.Hunger > 60 {
		s += 8.0
	}
	return s
}
