package planner

import (
	"context"
	"time"

	"github.com/joshharrison/shoploom/internal/source"
	"github.com/joshharrison/shoploom/internal/strategy"
)

// Service loads a snapshot through the external loaders and schedules it.
// Unlike Schedule, it treats a loader failure or an empty catalog as fatal.
type Service struct {
	Jobs      source.JobLoader
	Resources source.ResourceCatalog
	Planner   *Planner
}

// Run loads the jobs named by ids (all schedulable jobs when empty) and the
// resource catalog, then schedules them.
func (s *Service) Run(ctx context.Context, ids []string, kind strategy.Kind, runStart time.Time) (*Result, error) {
	jobs, err := s.Jobs.LoadSchedulableJobs(ctx, ids)
	if err != nil {
		return nil, catalogError(ctx, "load jobs", err)
	}
	resources, err := s.Resources.LoadResourceCatalog(ctx)
	if err != nil {
		return nil, catalogError(ctx, "load resources", err)
	}
	if len(resources) == 0 {
		return nil, &CatalogError{Op: "load resources", Err: ErrEmptyCatalog}
	}

	p := s.Planner
	if p == nil {
		p = New(Config{})
	}
	return p.ScheduleContext(ctx, jobs, resources, kind, runStart)
}

// catalogError wraps a loader failure, passing cancellation through as is.
func catalogError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &CatalogError{Op: op, Err: err}
}
