package graph

import (
	"sort"

	"github.com/joshharrison/shoploom/internal/shop"
)

// Build resolves prerequisites for every job with strategy and assembles the
// precedence graph. Resolution failures and cycles never fail the build:
// the offending jobs land in Excluded and the rest of the batch continues.
func Build(jobs []*shop.Job, strategy DependencyStrategy) *JobGraph {
	g := &JobGraph{
		Jobs:       make(map[string]*shop.Job, len(jobs)),
		Adj:        make(map[string][]string),
		RevAdj:     make(map[string][]string),
		Excluded:   make(map[string]error),
		Unresolved: make(map[string][]string),
	}

	for _, j := range jobs {
		if _, dup := g.Jobs[j.ID]; dup {
			continue
		}
		g.Jobs[j.ID] = j
		g.Order = append(g.Order, j.ID)
	}

	edgeSet := make(map[[2]string]bool)
	addEdge := func(from, to string) {
		key := [2]string{from, to}
		if edgeSet[key] {
			return
		}
		edgeSet[key] = true
		g.Adj[from] = append(g.Adj[from], to)
		g.RevAdj[to] = append(g.RevAdj[to], from)
	}

	for _, id := range g.Order {
		prereqs, err := strategy.Resolve(g.Jobs[id], jobs)
		if err != nil {
			g.Excluded[id] = err
			continue
		}
		for _, p := range prereqs {
			if p == id {
				g.Excluded[id] = &CycleError{Cycle: []string{id}}
				break
			}
			if _, ok := g.Jobs[p]; ok {
				addEdge(p, id)
			} else {
				g.Unresolved[id] = appendUnique(g.Unresolved[id], p)
			}
		}
	}

	// Jobs that failed resolution take no part in the graph.
	for id := range g.Excluded {
		g.detach(id)
	}

	// Peel cycles off one at a time until the graph is acyclic.
	for {
		cycle := g.DetectCycle()
		if cycle == nil {
			break
		}
		err := &CycleError{Cycle: cycle}
		for _, id := range cycle {
			if _, done := g.Excluded[id]; !done {
				g.Excluded[id] = err
			}
			g.detach(id)
		}
	}

	g.finish()
	return g
}

// detach removes every edge touching id. Dependents keep the id as an
// unresolved prerequisite so the allocator can warn about it.
func (g *JobGraph) detach(id string) {
	for _, succ := range g.Adj[id] {
		g.RevAdj[succ] = remove(g.RevAdj[succ], id)
		if _, excluded := g.Excluded[succ]; !excluded {
			g.Unresolved[succ] = appendUnique(g.Unresolved[succ], id)
		}
	}
	for _, pred := range g.RevAdj[id] {
		g.Adj[pred] = remove(g.Adj[pred], id)
	}
	delete(g.Adj, id)
	delete(g.RevAdj, id)
	delete(g.Unresolved, id)
}

func (g *JobGraph) finish() {
	for k := range g.Adj {
		sort.Strings(g.Adj[k])
	}
	for k := range g.RevAdj {
		sort.Strings(g.RevAdj[k])
	}
	for k := range g.Unresolved {
		sort.Strings(g.Unresolved[k])
	}

	g.Roots, g.Leaves = nil, nil
	for _, id := range g.Active() {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}
	sort.Strings(g.Roots)
	sort.Strings(g.Leaves)
}

// DetectCycle returns the jobs on a cycle (each once, in edge order) if one
// exists among the jobs that are not excluded, or nil if that part of the
// graph is acyclic.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
func (g *JobGraph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range g.Adj[node] {
			if color[next] == gray {
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	ids := g.Active()
	sort.Strings(ids)

	for _, id := range ids {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle[:len(cycle)-1]
			}
		}
	}
	return nil
}

// Active returns the ids that are still schedulable, in input order.
func (g *JobGraph) Active() []string {
	ids := make([]string, 0, len(g.Order))
	for _, id := range g.Order {
		if _, excluded := g.Excluded[id]; !excluded {
			ids = append(ids, id)
		}
	}
	return ids
}

// Prerequisites returns every prerequisite of id: resolved ones first, then
// the unresolved ones the allocator will only warn about.
func (g *JobGraph) Prerequisites(id string) []string {
	out := append([]string(nil), g.RevAdj[id]...)
	return append(out, g.Unresolved[id]...)
}

// Dependencies returns Prerequisites for every active job.
func (g *JobGraph) Dependencies() map[string][]string {
	deps := make(map[string][]string, len(g.Order))
	for _, id := range g.Active() {
		if p := g.Prerequisites(id); len(p) > 0 {
			deps[id] = p
		}
	}
	return deps
}

// JobCount returns the number of schedulable jobs in the graph.
func (g *JobGraph) JobCount() int {
	return len(g.Order) - len(g.Excluded)
}

func appendUnique(list []string, id string) []string {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}

func remove(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
