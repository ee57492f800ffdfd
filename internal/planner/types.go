package planner

import (
	"time"

	"github.com/joshharrison/shoploom/internal/allocator"
	"github.com/joshharrison/shoploom/internal/shop"
	"github.com/joshharrison/shoploom/internal/strategy"
)

// Result is the outcome of one scheduling run. Every input job appears
// exactly once, either in Assignments or in Unscheduled.
type Result struct {
	RunID        string              `json:"run_id"`
	Strategy     strategy.Kind       `json:"strategy"`
	RunStart     time.Time           `json:"run_start"`
	Assignments  []*shop.Assignment  `json:"assignments"`
	Unscheduled  []shop.Unscheduled  `json:"unscheduled"`
	CriticalPath []string            `json:"critical_path,omitempty"`
	Dependencies map[string][]string `json:"dependencies,omitempty"`
	Compacted    int                 `json:"compacted"`

	// Jobs is the input snapshot with estimated durations filled in, in
	// input order. Resources is the catalog the run used.
	Jobs      []shop.Job      `json:"jobs"`
	Resources []shop.Resource `json:"resources"`
}

// Assignment returns the assignment for jobID, or nil.
func (r *Result) Assignment(jobID string) *shop.Assignment {
	for _, a := range r.Assignments {
		if a.JobID == jobID {
			return a
		}
	}
	return nil
}

// End returns the latest assignment end, or RunStart for an empty run.
func (r *Result) End() time.Time {
	end := r.RunStart
	for _, a := range r.Assignments {
		if a.End.After(end) {
			end = a.End
		}
	}
	return end
}

// IsCritical reports whether jobID is on the critical path.
func (r *Result) IsCritical(jobID string) bool {
	for _, id := range r.CriticalPath {
		if id == jobID {
			return true
		}
	}
	return false
}

// Late returns the assignments carrying a due-date or latest-finish warning.
func (r *Result) Late() []*shop.Assignment {
	var out []*shop.Assignment
	for _, a := range r.Assignments {
		if allocator.IsLate(a) {
			out = append(out, a)
		}
	}
	return out
}
