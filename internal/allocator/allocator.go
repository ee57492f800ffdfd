// Package allocator places ordered jobs onto resources. Lack of capacity
// never fails a placement: the job is pushed to the first free gap instead.
// Only a job with no eligible resource is refused.
package allocator

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/joshharrison/shoploom/internal/shop"
	"github.com/joshharrison/shoploom/internal/timeline"
)

// Score weights.
const (
	capacityWeight = 0.4
	idleWeight     = 0.3
	idleHorizon    = 10 // assignments after which a resource stops looking idle
)

// NoEligibleResourceError is returned when no resource matches a job's tag,
// including when the catalog is empty.
type NoEligibleResourceError struct {
	JobID string
	Tag   string
}

func (e *NoEligibleResourceError) Error() string {
	return "no eligible resource"
}

// Allocator holds the per-run state: one timeline per resource and the
// assignments made so far. Create one per run.
type Allocator struct {
	runStart  time.Time
	scorer    ResourceScorer
	resources []*shop.Resource
	timelines map[string]*timeline.Timeline
	counts    map[string]int
	byJob     map[string]*shop.Assignment
	order     []string
}

// New creates an Allocator over resources. Resources are considered in id
// order; a nil scorer means FlatSkill.
func New(resources []shop.Resource, runStart time.Time, scorer ResourceScorer) *Allocator {
	if scorer == nil {
		scorer = FlatSkill{}
	}
	a := &Allocator{
		runStart:  runStart,
		scorer:    scorer,
		resources: make([]*shop.Resource, 0, len(resources)),
		timelines: make(map[string]*timeline.Timeline, len(resources)),
		counts:    make(map[string]int, len(resources)),
		byJob:     make(map[string]*shop.Assignment),
	}
	for i := range resources {
		r := &resources[i]
		if _, dup := a.timelines[r.ID]; dup {
			continue
		}
		a.resources = append(a.resources, r)
		a.timelines[r.ID] = &timeline.Timeline{}
	}
	sort.SliceStable(a.resources, func(i, j int) bool {
		return a.resources[i].ID < a.resources[j].ID
	})
	return a
}

// Candidates returns the resources that may run job, in id order.
func (a *Allocator) Candidates(job *shop.Job) []*shop.Resource {
	var out []*shop.Resource
	for _, r := range a.resources {
		if r.Matches(job.EligibleResourceTag) {
			out = append(out, r)
		}
	}
	return out
}

// Score rates res for job: capacity fit, idleness and skill.
func (a *Allocator) Score(job *shop.Job, res *shop.Resource) float64 {
	capacity := math.Min(1, float64(res.CapacityUnitsPerDay)/math.Max(1, float64(job.Quantity))) * capacityWeight
	idle := math.Max(0, 1-float64(a.counts[res.ID])/idleHorizon) * idleWeight
	return capacity + idle + a.scorer.SkillScore(job, res)
}

// Choose picks the best-scoring candidate. Ties go to the lowest resource id.
func (a *Allocator) Choose(job *shop.Job) (*shop.Resource, error) {
	var best *shop.Resource
	bestScore := math.Inf(-1)
	for _, r := range a.Candidates(job) {
		if s := a.Score(job, r); s > bestScore {
			best, bestScore = r, s
		}
	}
	if best == nil {
		return nil, &NoEligibleResourceError{JobID: job.ID, Tag: job.EligibleResourceTag}
	}
	return best, nil
}

// Place assigns job to a resource and time span. deps are the job's
// prerequisites; those without an assignment are ignored for timing and
// reported as warnings on the result.
func (a *Allocator) Place(job *shop.Job, deps []string) (*shop.Assignment, error) {
	res, err := a.Choose(job)
	if err != nil {
		return nil, err
	}

	var warnings []string
	earliest := a.runStart
	if job.EarliestStart.After(earliest) {
		earliest = job.EarliestStart
	}
	for _, dep := range deps {
		da, ok := a.byJob[dep]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("dependency %s was not scheduled; ignored", dep))
			continue
		}
		if da.End.After(earliest) {
			earliest = da.End
		}
	}

	days := job.EstimatedDurationDays
	if days < 1 {
		days = 1
	}
	span := a.timelines[res.ID].Reserve(earliest, time.Duration(days)*shop.Day)

	asg := &shop.Assignment{
		JobID:       job.ID,
		ResourceID:  res.ID,
		Start:       span.Start,
		End:         span.End,
		Utilization: Utilization(job.Quantity, res.CapacityUnitsPerDay, days),
		Warnings:    warnings,
	}

	a.counts[res.ID]++
	a.byJob[job.ID] = asg
	a.order = append(a.order, job.ID)
	return asg, nil
}

// Assignments returns the assignments in the order they were made.
func (a *Allocator) Assignments() []*shop.Assignment {
	out := make([]*shop.Assignment, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byJob[id])
	}
	return out
}

// Utilization is min(1, quantity / (capacity·days)).
func Utilization(quantity, capacityPerDay, days int) float64 {
	if capacityPerDay <= 0 || days <= 0 {
		return 1
	}
	return math.Min(1, float64(quantity)/float64(capacityPerDay*days))
}

const latePrefix = "finishes after "

// LateWarnings reports a finish after the job's due date or latest finish.
// Callers apply it once the final position of an assignment is known.
func LateWarnings(job *shop.Job, end time.Time) []string {
	var out []string
	if !job.DueDate.IsZero() && end.After(job.DueDate) {
		out = append(out, fmt.Sprintf(latePrefix+"due date %s", job.DueDate.Format("2006-01-02")))
	}
	if !job.LatestFinish.IsZero() && end.After(job.LatestFinish) {
		out = append(out, fmt.Sprintf(latePrefix+"latest finish %s", job.LatestFinish.Format("2006-01-02")))
	}
	return out
}

// IsLate reports whether a carries a LateWarnings entry.
func IsLate(a *shop.Assignment) bool {
	for _, w := range a.Warnings {
		if strings.HasPrefix(w, latePrefix) {
			return true
		}
	}
	return false
}
