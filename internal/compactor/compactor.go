// Package compactor removes avoidable idle gaps from a finished allocation.
//
// Compact is a single greedy pass, not an optimal repacking: it only ever
// pulls an assignment back to the end of the assignment before it on the
// same resource, and only when every dependency has already finished by
// then. Gaps it cannot close in that one move stay open. Tests should assert
// the invariants (no overlap, dependency order, no later finish per resource),
// not a particular packing.
package compactor

import (
	"sort"
	"time"

	"github.com/joshharrison/shoploom/internal/shop"
)

// Compact shifts assignments earlier in place, preserving each duration.
// deps maps a job to its prerequisites; notBefore optionally holds the
// earliest start each job may take. It returns how many assignments moved.
func Compact(assignments []*shop.Assignment, deps map[string][]string, notBefore map[string]time.Time) int {
	sorted := append([]*shop.Assignment(nil), assignments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.ResourceID != b.ResourceID {
			return a.ResourceID < b.ResourceID
		}
		return a.JobID < b.JobID
	})

	byJob := make(map[string]*shop.Assignment, len(sorted))
	for _, a := range sorted {
		byJob[a.JobID] = a
	}

	moved := 0
	prev := make(map[string]*shop.Assignment)
	for _, a := range sorted {
		p := prev[a.ResourceID]
		prev[a.ResourceID] = a
		if p == nil || !p.End.Before(a.Start) {
			continue
		}
		if !canStartAt(a.JobID, p.End, deps, byJob, notBefore) {
			continue
		}
		d := a.Duration()
		a.Start = p.End
		a.End = p.End.Add(d)
		moved++
	}
	return moved
}

func canStartAt(jobID string, at time.Time, deps map[string][]string, byJob map[string]*shop.Assignment, notBefore map[string]time.Time) bool {
	if nb, ok := notBefore[jobID]; ok && nb.After(at) {
		return false
	}
	for _, dep := range deps[jobID] {
		da, ok := byJob[dep]
		if !ok {
			continue // unscheduled dependencies do not constrain timing
		}
		if da.End.After(at) {
			return false
		}
	}
	return true
}

// Makespan returns the latest end per resource.
func Makespan(assignments []*shop.Assignment) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, a := range assignments {
		if a.End.After(out[a.ResourceID]) {
			out[a.ResourceID] = a.End
		}
	}
	return out
}
