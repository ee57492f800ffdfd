package cpm

import (
	"container/heap"
	"fmt"

	"github.com/joshharrison/shoploom/internal/graph"
)

// Analyze performs critical path method analysis on a job graph using the
// given durations (days). Jobs missing from durations count as one day.
// Resource capacity is not considered: the result is the precedence-only
// lower bound the allocator works against.
func Analyze(g *graph.JobGraph, durations map[string]int) (*CPMResult, error) {
	order, err := Order(g, nil)
	if err != nil {
		return nil, err
	}

	dur := func(id string) int {
		if d := durations[id]; d > 0 {
			return d
		}
		return 1
	}

	result := &CPMResult{
		Jobs:      make(map[string]*JobSchedule, len(order)),
		TopoOrder: order,
	}
	for _, id := range order {
		result.Jobs[id] = &JobSchedule{JobID: id}
	}

	// Forward pass: ES = max(EF of all predecessors)
	for _, id := range order {
		js := result.Jobs[id]
		es := 0
		for _, pred := range g.RevAdj[id] {
			if ef := result.Jobs[pred].EF; ef > es {
				es = ef
			}
		}
		js.ES = es
		js.EF = es + dur(id)
		if js.EF > result.TotalDuration {
			result.TotalDuration = js.EF
		}
	}

	// Backward pass in reverse topological order.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		js := result.Jobs[id]

		lf := result.TotalDuration
		for _, succ := range g.Adj[id] {
			if ls := result.Jobs[succ].LS; ls < lf {
				lf = ls
			}
		}
		js.LF = lf
		js.LS = lf - dur(id)
		js.Slack = js.LS - js.ES
		js.IsCritical = js.Slack == 0
	}

	for _, id := range order {
		if result.Jobs[id].IsCritical {
			result.CriticalPath = append(result.CriticalPath, id)
		}
	}

	return result, nil
}

// Order returns the active jobs of g in a topological order. Among jobs that
// are ready at the same time, the one with the lowest rank goes first; a nil
// rank falls back to input order. When rank is already consistent with the
// precedence constraints the output equals rank order.
func Order(g *graph.JobGraph, rank map[string]int) ([]string, error) {
	active := g.Active()
	if rank == nil {
		rank = make(map[string]int, len(active))
		for i, id := range active {
			rank[id] = i
		}
	}

	inDegree := make(map[string]int, len(active))
	for _, id := range active {
		inDegree[id] = len(g.RevAdj[id])
	}

	ready := &rankQueue{rank: rank}
	for _, id := range active {
		if inDegree[id] == 0 {
			heap.Push(ready, id)
		}
	}

	order := make([]string, 0, len(active))
	for ready.Len() > 0 {
		node := heap.Pop(ready).(string)
		order = append(order, node)

		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				heap.Push(ready, succ)
			}
		}
	}

	if len(order) != len(active) {
		return nil, fmt.Errorf("topological sort failed: graph has a cycle (%d of %d jobs sorted)", len(order), len(active))
	}
	return order, nil
}

// rankQueue is a min-heap of job ids keyed by rank, ties broken by id.
type rankQueue struct {
	ids  []string
	rank map[string]int
}

func (q *rankQueue) Len() int { return len(q.ids) }

func (q *rankQueue) Less(i, j int) bool {
	ri, rj := q.rank[q.ids[i]], q.rank[q.ids[j]]
	if ri != rj {
		return ri < rj
	}
	return q.ids[i] < q.ids[j]
}

func (q *rankQueue) Swap(i, j int) { q.ids[i], q.ids[j] = q.ids[j], q.ids[i] }

func (q *rankQueue) Push(x any) { q.ids = append(q.ids, x.(string)) }

func (q *rankQueue) Pop() any {
	old := q.ids
	n := len(old)
	x := old[n-1]
	q.ids = old[:n-1]
	return x
}
