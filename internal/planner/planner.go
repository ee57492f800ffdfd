// Package planner runs the scheduling pipeline: validate, estimate, resolve
// dependencies, order, allocate, compact and analyse.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/joshharrison/shoploom/internal/allocator"
	"github.com/joshharrison/shoploom/internal/compactor"
	"github.com/joshharrison/shoploom/internal/cpm"
	"github.com/joshharrison/shoploom/internal/estimate"
	"github.com/joshharrison/shoploom/internal/graph"
	"github.com/joshharrison/shoploom/internal/logging"
	"github.com/joshharrison/shoploom/internal/shop"
	"github.com/joshharrison/shoploom/internal/strategy"
)

// Config tunes a Planner. The zero value resolves dependencies with the
// combined explicit and customer rules, scores skills flat and compacts.
type Config struct {
	Dependencies   graph.DependencyStrategy
	Scorer         allocator.ResourceScorer
	SkipCompaction bool
	Log            logging.Printer
}

// Planner is stateless between runs; one value may serve concurrent runs.
type Planner struct {
	cfg Config
}

// New creates a Planner, filling defaults for unset fields.
func New(cfg Config) *Planner {
	if cfg.Dependencies == nil {
		cfg.Dependencies, _ = graph.StrategyFor("combined")
	}
	if cfg.Scorer == nil {
		cfg.Scorer = allocator.FlatSkill{}
	}
	cfg.Log = logging.OrDiscard(cfg.Log)
	return &Planner{cfg: cfg}
}

// Schedule runs the pipeline with the default configuration.
func Schedule(jobs []shop.Job, resources []shop.Resource, kind strategy.Kind, runStart time.Time) (*Result, error) {
	return New(Config{}).Schedule(jobs, resources, kind, runStart)
}

// Schedule places jobs onto resources starting at runStart.
func (p *Planner) Schedule(jobs []shop.Job, resources []shop.Resource, kind strategy.Kind, runStart time.Time) (*Result, error) {
	return p.ScheduleContext(context.Background(), jobs, resources, kind, runStart)
}

// ScheduleContext is Schedule with cancellation checked before each job is
// allocated. Per-job problems never fail the run; they are recorded in
// Result.Unscheduled. The inputs are not modified.
func (p *Planner) ScheduleContext(ctx context.Context, jobs []shop.Job, resources []shop.Resource, kind strategy.Kind, runStart time.Time) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     RunID(jobs, resources, kind, runStart),
		Strategy:  kind,
		RunStart:  runStart,
		Jobs:      make([]shop.Job, len(jobs)),
		Resources: append([]shop.Resource(nil), resources...),
	}

	var excluded []excludedJob
	exclude := func(pos int, id string, err error) {
		p.cfg.Log.Printf("job %s unscheduled: %v", id, err)
		excluded = append(excluded, excludedJob{pos: pos, entry: shop.Unscheduled{
			JobID:  id,
			Reason: err.Error(),
			Kind:   kindOf(err),
		}})
	}

	// Validate and estimate on private copies.
	pos := make(map[string]int, len(jobs))
	work := make([]*shop.Job, 0, len(jobs))
	for i := range jobs {
		j := jobs[i]
		j.Dependencies = append([]string(nil), jobs[i].Dependencies...)
		result.Jobs[i] = j

		if err := j.Validate(); err != nil {
			exclude(i, j.ID, &InputError{JobID: j.ID, Reason: err.Error()})
			continue
		}
		if _, dup := pos[j.ID]; dup {
			exclude(i, j.ID, &InputError{JobID: j.ID, Reason: "duplicate job id"})
			continue
		}
		pos[j.ID] = i
		result.Jobs[i].EstimatedDurationDays = estimate.Job(&j)
		work = append(work, &result.Jobs[i])
	}

	catalog := make([]shop.Resource, 0, len(resources))
	for _, r := range resources {
		if err := r.Validate(); err != nil {
			p.cfg.Log.Printf("resource skipped: %v", err)
			continue
		}
		catalog = append(catalog, r)
	}

	g := graph.Build(work, p.cfg.Dependencies)
	for _, id := range g.Order {
		if err, ok := g.Excluded[id]; ok {
			exclude(pos[id], id, err)
		}
	}

	active := make([]*shop.Job, 0, g.JobCount())
	for _, id := range g.Active() {
		active = append(active, g.Jobs[id])
	}
	strategy.Sort(active, kind, runStart)
	rank := make(map[string]int, len(active))
	for i, j := range active {
		rank[j.ID] = i
	}
	order, err := cpm.Order(g, rank)
	if err != nil {
		return nil, fmt.Errorf("order jobs: %w", err)
	}

	alloc := allocator.New(catalog, runStart, p.cfg.Scorer)
	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := alloc.Place(g.Jobs[id], g.Prerequisites(id)); err != nil {
			exclude(pos[id], id, err)
		}
	}
	result.Assignments = alloc.Assignments()
	result.Dependencies = g.Dependencies()

	if !p.cfg.SkipCompaction {
		notBefore := make(map[string]time.Time)
		for _, j := range work {
			if !j.EarliestStart.IsZero() {
				notBefore[j.ID] = j.EarliestStart
			}
		}
		result.Compacted = compactor.Compact(result.Assignments, result.Dependencies, notBefore)
	}

	for _, a := range result.Assignments {
		a.Warnings = append(a.Warnings, allocator.LateWarnings(g.Jobs[a.JobID], a.End)...)
	}

	durations := make(map[string]int, len(work))
	for _, j := range work {
		durations[j.ID] = j.EstimatedDurationDays
	}
	analysis, err := cpm.Analyze(g, durations)
	if err != nil {
		return nil, fmt.Errorf("critical path: %w", err)
	}
	result.CriticalPath = analysis.CriticalPath

	sort.SliceStable(excluded, func(a, b int) bool { return excluded[a].pos < excluded[b].pos })
	result.Unscheduled = make([]shop.Unscheduled, 0, len(excluded))
	for _, e := range excluded {
		result.Unscheduled = append(result.Unscheduled, e.entry)
	}
	return result, nil
}

type excludedJob struct {
	pos   int
	entry shop.Unscheduled
}

// RunID derives a stable identifier from the run inputs, so rerunning the
// same snapshot yields the same id.
func RunID(jobs []shop.Job, resources []shop.Resource, kind strategy.Kind, runStart time.Time) string {
	h := fnv.New32a()
	enc := json.NewEncoder(h)
	_ = enc.Encode(jobs)
	_ = enc.Encode(resources)
	fmt.Fprintf(h, "%s|%s", kind, runStart.UTC().Format(time.RFC3339))
	return fmt.Sprintf("sched-%s-%08x", runStart.UTC().Format("20060102"), h.Sum32())
}
