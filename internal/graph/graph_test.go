package graph

import (
	"errors"
	"testing"

	"github.com/joshharrison/shoploom/internal/shop"
)

func job(id string, deps ...string) *shop.Job {
	return &shop.Job{ID: id, Quantity: 100, Priority: shop.PriorityMedium, Dependencies: deps}
}

func TestBuild_SimpleDAG(t *testing.T) {
	// A -> B -> D
	// A -> C -> D
	jobs := []*shop.Job{job("a"), job("b", "a"), job("c", "a"), job("d", "b", "c")}

	g := Build(jobs, Explicit{})

	if g.JobCount() != 4 {
		t.Errorf("expected 4 jobs, got %d", g.JobCount())
	}
	if len(g.Roots) != 1 || g.Roots[0] != "a" {
		t.Errorf("expected roots=[a], got %v", g.Roots)
	}
	if len(g.Leaves) != 1 || g.Leaves[0] != "d" {
		t.Errorf("expected leaves=[d], got %v", g.Leaves)
	}
	if adj := g.Adj["a"]; len(adj) != 2 {
		t.Errorf("expected a to gate 2 jobs, got %v", adj)
	}
	if rev := g.RevAdj["d"]; len(rev) != 2 {
		t.Errorf("expected d to wait on 2 jobs, got %v", rev)
	}
	if len(g.Excluded) != 0 {
		t.Errorf("expected no exclusions, got %v", g.Excluded)
	}
}

func TestBuild_CycleExcludesOnlyMembers(t *testing.T) {
	// a -> b -> c -> a is a cycle; d waits on c; e is independent.
	jobs := []*shop.Job{job("a", "c"), job("b", "a"), job("c", "b"), job("d", "c"), job("e")}

	g := Build(jobs, Explicit{})

	for _, id := range []string{"a", "b", "c"} {
		err, ok := g.Excluded[id]
		if !ok {
			t.Fatalf("expected %s to be excluded", id)
		}
		var cycleErr *CycleError
		if !errors.As(err, &cycleErr) {
			t.Errorf("expected CycleError for %s, got %T", id, err)
		}
	}
	if _, ok := g.Excluded["d"]; ok {
		t.Error("d is not on the cycle and must stay schedulable")
	}
	if _, ok := g.Excluded["e"]; ok {
		t.Error("e must stay schedulable")
	}
	if got := g.Unresolved["d"]; len(got) != 1 || got[0] != "c" {
		t.Errorf("expected d to carry c as unresolved, got %v", got)
	}
	if g.JobCount() != 2 {
		t.Errorf("expected 2 schedulable jobs, got %d", g.JobCount())
	}
	t.Logf("cycle error (expected): %v", g.Excluded["a"])
}

func TestBuild_SelfDependency(t *testing.T) {
	g := Build([]*shop.Job{job("a", "a"), job("b")}, Explicit{})
	if _, ok := g.Excluded["a"]; !ok {
		t.Fatal("expected self-dependent job to be excluded")
	}
	if g.JobCount() != 1 {
		t.Errorf("expected 1 schedulable job, got %d", g.JobCount())
	}
}

func TestBuild_ExternalDepsUnresolved(t *testing.T) {
	g := Build([]*shop.Job{job("a", "z"), job("b")}, Explicit{})

	if len(g.RevAdj["a"]) != 0 {
		t.Errorf("expected no in-graph prerequisites for a, got %v", g.RevAdj["a"])
	}
	if got := g.Unresolved["a"]; len(got) != 1 || got[0] != "z" {
		t.Errorf("expected z unresolved for a, got %v", got)
	}
	if p := g.Prerequisites("a"); len(p) != 1 || p[0] != "z" {
		t.Errorf("expected prerequisites [z], got %v", p)
	}
}

func TestDetectCycle_NoCycle(t *testing.T) {
	g := &JobGraph{
		Jobs:  map[string]*shop.Job{"a": {ID: "a"}, "b": {ID: "b"}},
		Order: []string{"a", "b"},
		Adj:   map[string][]string{"a": {"b"}},
	}
	if cycle := g.DetectCycle(); cycle != nil {
		t.Errorf("expected no cycle, got %v", cycle)
	}
}

func TestDetectCycle_WithCycle(t *testing.T) {
	g := &JobGraph{
		Jobs:  map[string]*shop.Job{"a": {ID: "a"}, "b": {ID: "b"}, "c": {ID: "c"}},
		Order: []string{"a", "b", "c"},
		Adj: map[string][]string{
			"a": {"b"},
			"b": {"c"},
			"c": {"a"},
		},
	}
	cycle := g.DetectCycle()
	if len(cycle) != 3 {
		t.Fatalf("expected cycle of length 3, got %v", cycle)
	}
	t.Logf("detected cycle: %v", cycle)
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil, Explicit{})
	if g.JobCount() != 0 {
		t.Errorf("expected 0 jobs, got %d", g.JobCount())
	}
}

func TestCustomerPriority(t *testing.T) {
	urgent := &shop.Job{ID: "u", ExternalRef: "C1", Priority: shop.PriorityUrgent}
	low := &shop.Job{ID: "l", ExternalRef: "C1", Priority: shop.PriorityLow}
	med1 := &shop.Job{ID: "m1", ExternalRef: "C1", Priority: shop.PriorityMedium}
	med2 := &shop.Job{ID: "m2", ExternalRef: "C1", Priority: shop.PriorityMedium}
	other := &shop.Job{ID: "o", ExternalRef: "C2", Priority: shop.PriorityUrgent}
	pool := []*shop.Job{urgent, low, med1, med2, other}

	s := CustomerPriority{}

	got, _ := s.Resolve(low, pool)
	if len(got) != 3 {
		t.Errorf("expected low to wait for u, m1, m2; got %v", got)
	}

	got, _ = s.Resolve(urgent, pool)
	if len(got) != 0 {
		t.Errorf("expected urgent job to have no prerequisites, got %v", got)
	}

	got, _ = s.Resolve(med2, pool)
	if len(got) != 2 || got[0] != "u" || got[1] != "m1" {
		t.Errorf("expected m2 to wait for [u m1], got %v", got)
	}

	got, _ = s.Resolve(med1, pool)
	if len(got) != 1 || got[0] != "u" {
		t.Errorf("expected m1 to wait for [u] only, got %v", got)
	}

	g := Build(pool, s)
	if len(g.Excluded) != 0 {
		t.Errorf("customer rule must not produce cycles, got %v", g.Excluded)
	}
}

func TestCombine(t *testing.T) {
	a := &shop.Job{ID: "a", ExternalRef: "C1", Priority: shop.PriorityHigh}
	b := &shop.Job{ID: "b", ExternalRef: "C1", Priority: shop.PriorityLow, Dependencies: []string{"x"}}
	pool := []*shop.Job{a, b}

	got, err := Combine(Explicit{}, CustomerPriority{}).Resolve(b, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "x" || got[1] != "a" {
		t.Errorf("expected [x a], got %v", got)
	}
}

func TestStrategyFor(t *testing.T) {
	for _, name := range []string{"", "combined", "explicit", "customer"} {
		if _, ok := StrategyFor(name); !ok {
			t.Errorf("expected strategy for %q", name)
		}
	}
	if _, ok := StrategyFor("magic"); ok {
		t.Error("expected unknown strategy to be rejected")
	}
}
