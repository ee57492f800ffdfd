package compactor

import (
	"testing"
	"time"

	"github.com/joshharrison/shoploom/internal/shop"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return t0.Add(time.Duration(n) * shop.Day) }

func asg(job, res string, from, to int) *shop.Assignment {
	return &shop.Assignment{JobID: job, ResourceID: res, Start: day(from), End: day(to), Utilization: 1}
}

func assertSpan(t *testing.T, a *shop.Assignment, from, to int) {
	t.Helper()
	if !a.Start.Equal(day(from)) || !a.End.Equal(day(to)) {
		t.Errorf("%s: expected [%d,%d), got [%v, %v)", a.JobID, from, to, a.Start, a.End)
	}
}

func TestCompact_ClosesGap(t *testing.T) {
	first := asg("a1", "r1", 0, 2)
	second := asg("a2", "r1", 5, 7)

	moved := Compact([]*shop.Assignment{first, second}, nil, nil)

	if moved != 1 {
		t.Errorf("expected 1 move, got %d", moved)
	}
	assertSpan(t, first, 0, 2)
	assertSpan(t, second, 2, 4)
}

func TestCompact_BlockedByDependency(t *testing.T) {
	// dep on r2 finishes at day 4, so a2 may not move before day 4.
	dep := asg("dep", "r2", 0, 4)
	first := asg("a1", "r1", 0, 2)
	second := asg("a2", "r1", 5, 7)

	Compact([]*shop.Assignment{first, second, dep}, map[string][]string{"a2": {"dep"}}, nil)

	assertSpan(t, second, 5, 7)
}

func TestCompact_DependencyAlreadyDone(t *testing.T) {
	dep := asg("dep", "r2", 0, 1)
	first := asg("a1", "r1", 0, 2)
	second := asg("a2", "r1", 5, 7)

	Compact([]*shop.Assignment{first, second, dep}, map[string][]string{"a2": {"dep", "unscheduled"}}, nil)

	assertSpan(t, second, 2, 4)
}

func TestCompact_RespectsNotBefore(t *testing.T) {
	first := asg("a1", "r1", 0, 2)
	second := asg("a2", "r1", 5, 7)

	Compact([]*shop.Assignment{first, second}, nil, map[string]time.Time{"a2": day(3)})

	assertSpan(t, second, 5, 7)
}

func TestCompact_ChainAndNonRegression(t *testing.T) {
	list := []*shop.Assignment{
		asg("a", "r1", 0, 1),
		asg("b", "r1", 3, 4),
		asg("c", "r1", 6, 8),
		asg("x", "r2", 0, 3),
		asg("y", "r2", 3, 5),
	}
	before := Makespan(list)

	Compact(list, nil, nil)

	assertSpan(t, list[1], 1, 2)
	assertSpan(t, list[2], 2, 4)
	assertSpan(t, list[3], 0, 3)
	assertSpan(t, list[4], 3, 5)

	after := Makespan(list)
	for res, end := range after {
		if end.After(before[res]) {
			t.Errorf("resource %s: makespan grew from %v to %v", res, before[res], end)
		}
	}
	for i := range list {
		for j := i + 1; j < len(list); j++ {
			if list[i].ResourceID == list[j].ResourceID &&
				list[i].Start.Before(list[j].End) && list[j].Start.Before(list[i].End) {
				t.Errorf("%s overlaps %s", list[i].JobID, list[j].JobID)
			}
		}
	}
}

func TestCompact_Empty(t *testing.T) {
	if moved := Compact(nil, nil, nil); moved != 0 {
		t.Errorf("expected no moves, got %d", moved)
	}
}
