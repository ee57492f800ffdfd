package graph

import (
	"fmt"
	"strings"

	"github.com/joshharrison/shoploom/internal/shop"
)

// DependencyStrategy decides which jobs in the candidate pool must finish
// before job may start. Implementations return prerequisite ids; ids that are
// not in the pool are reported back as unresolved rather than dropped.
type DependencyStrategy interface {
	Resolve(job *shop.Job, pool []*shop.Job) ([]string, error)
}

// JobGraph is the precedence graph for one scheduling run.
type JobGraph struct {
	Jobs       map[string]*shop.Job
	Order      []string            // input order of the jobs that made it into the graph
	Adj        map[string][]string // job -> jobs that wait for it
	RevAdj     map[string][]string // job -> prerequisites
	Roots      []string            // jobs with no prerequisites
	Leaves     []string            // jobs nothing waits for
	Excluded   map[string]error    // jobs removed from the run, with the reason
	Unresolved map[string][]string // prerequisites that are not schedulable in this run
}

// CycleError reports a cyclic prerequisite chain. Every job on the cycle is
// excluded from scheduling.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	if len(e.Cycle) == 0 {
		return "dependency cycle detected"
	}
	return fmt.Sprintf("dependency cycle detected: %s → %s", strings.Join(e.Cycle, " → "), e.Cycle[0])
}
