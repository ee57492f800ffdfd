package planner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/joshharrison/shoploom/internal/shop"
	"github.com/joshharrison/shoploom/internal/strategy"
)

var runStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return runStart.Add(time.Duration(n) * shop.Day) }

func job(id string, qty int, p shop.Priority) shop.Job {
	return shop.Job{ID: id, Quantity: qty, Priority: p, Status: "pending"}
}

func resource(id string, capacity int, tags ...string) shop.Resource {
	return shop.Resource{ID: id, ProductionLine: id, CapacityUnitsPerDay: capacity, Tags: tags}
}

func mustSchedule(t *testing.T, jobs []shop.Job, resources []shop.Resource, kind strategy.Kind) *Result {
	t.Helper()
	res, err := Schedule(jobs, resources, kind, runStart)
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	return res
}

func TestSchedule_SingleJob(t *testing.T) {
	res := mustSchedule(t, []shop.Job{job("P-1", 100, shop.PriorityMedium)}, []shop.Resource{resource("R-1", 500)}, strategy.PriorityFirst)

	if len(res.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d (unscheduled %v)", len(res.Assignments), res.Unscheduled)
	}
	a := res.Assignments[0]
	if !a.Start.Equal(runStart) {
		t.Errorf("expected start %v, got %v", runStart, a.Start)
	}
	if a.Duration() != shop.Day {
		t.Errorf("expected 1 day, got %v", a.Duration())
	}
	if a.Utilization != 0.2 {
		t.Errorf("expected utilization 0.2, got %v", a.Utilization)
	}
	if len(a.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", a.Warnings)
	}
}

func TestSchedule_NoEligibleResource(t *testing.T) {
	j := job("P-1", 100, shop.PriorityMedium)
	j.EligibleResourceTag = "车间C"
	res := mustSchedule(t, []shop.Job{j}, []shop.Resource{resource("车间A", 500), resource("车间B", 500)}, strategy.PriorityFirst)

	if len(res.Assignments) != 0 {
		t.Fatalf("expected no assignments, got %d", len(res.Assignments))
	}
	if len(res.Unscheduled) != 1 {
		t.Fatalf("expected 1 unscheduled, got %d", len(res.Unscheduled))
	}
	u := res.Unscheduled[0]
	if u.JobID != "P-1" || u.Reason != "no eligible resource" || u.Kind != shop.KindNoEligibleResource {
		t.Errorf("unexpected unscheduled entry %+v", u)
	}
}

func TestSchedule_BalancedPrefersUrgentShortJob(t *testing.T) {
	b := job("B", 800, shop.PriorityLow)
	a := job("A", 100, shop.PriorityUrgent)
	res := mustSchedule(t, []shop.Job{b, a}, []shop.Resource{resource("R-1", 1000)}, strategy.Balanced)

	aa, ba := res.Assignment("A"), res.Assignment("B")
	if aa == nil || ba == nil {
		t.Fatalf("expected both jobs scheduled, unscheduled: %v", res.Unscheduled)
	}
	if !aa.Start.Before(ba.Start) {
		t.Errorf("expected A to start first, got A=%v B=%v", aa.Start, ba.Start)
	}
}

func TestSchedule_DependentJobsSameCustomer(t *testing.T) {
	a := job("A", 200, shop.PriorityMedium)
	a.ExternalRef = "C-1"
	b := job("B", 100, shop.PriorityMedium)
	b.ExternalRef = "C-1"
	b.Dependencies = []string{"A"}

	res := mustSchedule(t, []shop.Job{a, b}, []shop.Resource{resource("R-1", 500), resource("R-2", 500)}, strategy.ShortestFirst)

	aa, ba := res.Assignment("A"), res.Assignment("B")
	if aa == nil || ba == nil {
		t.Fatalf("expected both jobs scheduled, unscheduled: %v", res.Unscheduled)
	}
	if !aa.Start.Equal(day(0)) || !aa.End.Equal(day(2)) {
		t.Errorf("expected A at [0,2), got [%v, %v)", aa.Start, aa.End)
	}
	if ba.Start.Before(day(2)) {
		t.Errorf("expected B to start no earlier than day 2, got %v", ba.Start)
	}
}

func TestSchedule_EmptyCatalog(t *testing.T) {
	jobs := []shop.Job{job("a", 100, shop.PriorityLow), job("b", 100, shop.PriorityHigh)}
	res := mustSchedule(t, jobs, nil, strategy.PriorityFirst)

	if len(res.Assignments) != 0 || len(res.Unscheduled) != 2 {
		t.Fatalf("expected every job unscheduled, got %d assigned / %d unscheduled", len(res.Assignments), len(res.Unscheduled))
	}
	for _, u := range res.Unscheduled {
		if u.Kind != shop.KindNoEligibleResource {
			t.Errorf("expected no-eligible-resource, got %+v", u)
		}
	}
}

func TestSchedule_EmptyInput(t *testing.T) {
	res := mustSchedule(t, nil, []shop.Resource{resource("R-1", 100)}, strategy.Balanced)
	if len(res.Assignments) != 0 || len(res.Unscheduled) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
	if !res.End().Equal(runStart) {
		t.Errorf("expected End to be run start, got %v", res.End())
	}
}

func TestSchedule_InvalidJobsExcluded(t *testing.T) {
	jobs := []shop.Job{
		job("ok", 100, shop.PriorityMedium),
		job("zero", 0, shop.PriorityMedium),
		job("nopriority", 100, shop.PriorityUnknown),
		job("ok", 50, shop.PriorityLow),
	}
	res := mustSchedule(t, jobs, []shop.Resource{resource("R-1", 100)}, strategy.PriorityFirst)

	if len(res.Assignments) != 1 || res.Assignments[0].JobID != "ok" {
		t.Fatalf("expected only ok scheduled, got %v", res.Assignments)
	}
	if len(res.Unscheduled) != 3 {
		t.Fatalf("expected 3 unscheduled, got %v", res.Unscheduled)
	}
	wantOrder := []string{"zero", "nopriority", "ok"}
	for i, u := range res.Unscheduled {
		if u.JobID != wantOrder[i] {
			t.Errorf("unscheduled[%d]: expected %s, got %s", i, wantOrder[i], u.JobID)
		}
		if u.Kind != shop.KindInvalidInput {
			t.Errorf("expected invalid-input for %s, got %s", u.JobID, u.Kind)
		}
	}
	if !strings.Contains(res.Unscheduled[2].Reason, "duplicate") {
		t.Errorf("expected duplicate reason, got %q", res.Unscheduled[2].Reason)
	}
}

func TestSchedule_CycleExcludedBatchContinues(t *testing.T) {
	a := job("a", 100, shop.PriorityMedium)
	a.Dependencies = []string{"b"}
	b := job("b", 100, shop.PriorityMedium)
	b.Dependencies = []string{"a"}
	c := job("c", 100, shop.PriorityMedium)
	c.Dependencies = []string{"a"}
	d := job("d", 100, shop.PriorityMedium)

	res := mustSchedule(t, []shop.Job{a, b, c, d}, []shop.Resource{resource("R-1", 500)}, strategy.PriorityFirst)

	if len(res.Unscheduled) != 2 {
		t.Fatalf("expected the two cycle members unscheduled, got %v", res.Unscheduled)
	}
	for _, u := range res.Unscheduled {
		if u.Kind != shop.KindDependencyCycle {
			t.Errorf("expected dependency-cycle for %s, got %s", u.JobID, u.Kind)
		}
		if !strings.HasPrefix(u.Reason, "dependency cycle detected") {
			t.Errorf("unexpected reason %q", u.Reason)
		}
	}
	ca := res.Assignment("c")
	if ca == nil {
		t.Fatal("expected c to be scheduled despite its excluded prerequisite")
	}
	if len(ca.Warnings) != 1 || !strings.Contains(ca.Warnings[0], "dependency a was not scheduled") {
		t.Errorf("expected warning about a, got %v", ca.Warnings)
	}
	if res.Assignment("d") == nil {
		t.Error("expected d to be scheduled")
	}
}

func TestSchedule_LateWarning(t *testing.T) {
	first := job("first", 300, shop.PriorityUrgent)
	late := job("late", 100, shop.PriorityLow)
	late.DueDate = day(1)

	res := mustSchedule(t, []shop.Job{first, late}, []shop.Resource{resource("R-1", 100)}, strategy.PriorityFirst)

	lates := res.Late()
	if len(lates) != 1 || lates[0].JobID != "late" {
		t.Fatalf("expected late job flagged, got %v", lates)
	}
}

func TestSchedule_EarliestStartRespected(t *testing.T) {
	j := job("a", 100, shop.PriorityMedium)
	j.EarliestStart = day(3)
	res := mustSchedule(t, []shop.Job{j}, []shop.Resource{resource("R-1", 500)}, strategy.PriorityFirst)
	if a := res.Assignment("a"); a == nil || !a.Start.Equal(day(3)) {
		t.Errorf("expected start at day 3, got %+v", a)
	}
}

func TestSchedule_DoesNotMutateInput(t *testing.T) {
	jobs := []shop.Job{job("a", 250, shop.PriorityMedium)}
	jobs[0].Dependencies = []string{"x"}
	mustSchedule(t, jobs, []shop.Resource{resource("R-1", 500)}, strategy.PriorityFirst)
	if jobs[0].EstimatedDurationDays != 0 {
		t.Errorf("input job was modified: %+v", jobs[0])
	}
}

func TestSchedule_CriticalPath(t *testing.T) {
	a := job("a", 300, shop.PriorityMedium)
	b := job("b", 100, shop.PriorityMedium)
	b.Dependencies = []string{"a"}
	c := job("c", 100, shop.PriorityMedium)

	res := mustSchedule(t, []shop.Job{a, b, c}, []shop.Resource{resource("R-1", 500), resource("R-2", 500)}, strategy.PriorityFirst)

	if !res.IsCritical("a") || !res.IsCritical("b") {
		t.Errorf("expected a and b critical, got %v", res.CriticalPath)
	}
	if res.IsCritical("c") {
		t.Errorf("expected c to have slack, got %v", res.CriticalPath)
	}
}

func TestScheduleContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{}).ScheduleContext(ctx, []shop.Job{job("a", 1, shop.PriorityLow)}, nil, strategy.PriorityFirst, runStart)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// randomBatch builds a reproducible batch with customers, explicit
// dependencies, tags and a few invalid jobs.
func randomBatch(seed int64, n int) ([]shop.Job, []shop.Resource) {
	rng := rand.New(rand.NewSource(seed))
	priorities := []shop.Priority{shop.PriorityLow, shop.PriorityMedium, shop.PriorityHigh, shop.PriorityUrgent}
	tags := []string{"", "", "cnc", "paint"}

	jobs := make([]shop.Job, n)
	for i := range jobs {
		j := job(fmt.Sprintf("P-%03d", i), 20+rng.Intn(900), priorities[rng.Intn(len(priorities))])
		j.ExternalRef = fmt.Sprintf("C-%d", rng.Intn(6))
		j.IsComplex = rng.Intn(3) == 0
		j.EligibleResourceTag = tags[rng.Intn(len(tags))]
		if rng.Intn(2) == 0 {
			j.DueDate = day(rng.Intn(20))
		}
		if i > 0 && rng.Intn(3) == 0 {
			j.Dependencies = []string{fmt.Sprintf("P-%03d", rng.Intn(i))}
		}
		if rng.Intn(15) == 0 {
			j.Quantity = 0
		}
		jobs[i] = j
	}
	// One back edge to form a cycle.
	jobs[2].Dependencies = append(jobs[2].Dependencies, jobs[5].ID)
	jobs[5].Dependencies = append(jobs[5].Dependencies, jobs[2].ID)

	resources := []shop.Resource{
		resource("R-3", 400, "cnc"),
		resource("R-1", 250),
		resource("R-2", 600, "cnc", "paint"),
	}
	return jobs, resources
}

func TestSchedule_Properties(t *testing.T) {
	jobs, resources := randomBatch(7, 60)

	for _, kind := range strategy.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			res := mustSchedule(t, jobs, resources, kind)

			// Accounting.
			if got := len(res.Assignments) + len(res.Unscheduled); got != len(jobs) {
				t.Errorf("accounting: %d assigned + %d unscheduled != %d jobs", len(res.Assignments), len(res.Unscheduled), len(jobs))
			}

			// No overlap per resource.
			byRes := make(map[string][]*shop.Assignment)
			for _, a := range res.Assignments {
				if !a.End.After(a.Start) {
					t.Errorf("%s: empty interval", a.JobID)
				}
				if a.Utilization <= 0 || a.Utilization > 1 {
					t.Errorf("%s: utilization %v out of range", a.JobID, a.Utilization)
				}
				byRes[a.ResourceID] = append(byRes[a.ResourceID], a)
			}
			for rid, list := range byRes {
				sort.Slice(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })
				for i := 1; i < len(list); i++ {
					if list[i-1].End.After(list[i].Start) {
						t.Errorf("resource %s: %s overlaps %s", rid, list[i-1].JobID, list[i].JobID)
					}
				}
			}

			// Dependency ordering.
			for id, deps := range res.Dependencies {
				a := res.Assignment(id)
				if a == nil {
					continue
				}
				for _, dep := range deps {
					if d := res.Assignment(dep); d != nil && a.Start.Before(d.End) {
						t.Errorf("%s starts %v before dependency %s ends %v", id, a.Start, dep, d.End)
					}
				}
			}

			// Durations survive compaction.
			for _, a := range res.Assignments {
				for _, j := range res.Jobs {
					if j.ID == a.JobID && a.Duration() != j.Duration() {
						t.Errorf("%s: duration %v, estimate %v", a.JobID, a.Duration(), j.Duration())
					}
				}
			}
		})
	}
}

func TestSchedule_Deterministic(t *testing.T) {
	jobs, resources := randomBatch(11, 50)
	first := mustSchedule(t, jobs, resources, strategy.Balanced)
	for i := 0; i < 5; i++ {
		again := mustSchedule(t, jobs, resources, strategy.Balanced)
		if !reflect.DeepEqual(first.Assignments, again.Assignments) {
			t.Fatalf("run %d: assignments differ", i)
		}
		if !reflect.DeepEqual(first.Unscheduled, again.Unscheduled) {
			t.Fatalf("run %d: unscheduled differ", i)
		}
		if first.RunID != again.RunID {
			t.Fatalf("run %d: run id %s != %s", i, again.RunID, first.RunID)
		}
	}

	other := mustSchedule(t, jobs, resources, strategy.DeadlineFirst)
	if other.RunID == first.RunID {
		t.Error("expected run id to change with the strategy")
	}
	if !strings.HasPrefix(first.RunID, "sched-20240301-") {
		t.Errorf("unexpected run id %s", first.RunID)
	}
}

func TestSchedule_CompactionToggle(t *testing.T) {
	jobs, resources := randomBatch(3, 40)
	compacted, err := New(Config{}).Schedule(jobs, resources, strategy.PriorityFirst, runStart)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := New(Config{SkipCompaction: true}).Schedule(jobs, resources, strategy.PriorityFirst, runStart)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Compacted != 0 {
		t.Errorf("expected no moves with compaction skipped, got %d", raw.Compacted)
	}

	maxEnd := func(r *Result) map[string]time.Time {
		out := make(map[string]time.Time)
		for _, a := range r.Assignments {
			if a.End.After(out[a.ResourceID]) {
				out[a.ResourceID] = a.End
			}
		}
		return out
	}
	before, after := maxEnd(raw), maxEnd(compacted)
	for rid, end := range after {
		if end.After(before[rid]) {
			t.Errorf("resource %s: compaction pushed makespan from %v to %v", rid, before[rid], end)
		}
	}
}
