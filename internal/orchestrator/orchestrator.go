// Package orchestrator runs independent scheduling batches concurrently.
// Each batch is a full planner run with its own timelines; parallelism is
// per batch, never per job.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"time"

	"github.com/joshharrison/shoploom/internal/planner"
	"github.com/joshharrison/shoploom/internal/ui"
)

// Orchestrator dispatches batches to a planner.Service.
type Orchestrator struct {
	Service *planner.Service
	Config  Config
}

// New creates a new Orchestrator.
func New(svc *planner.Service, cfg Config) *Orchestrator {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}
	if cfg.Progress == nil {
		cfg.Progress = os.Stderr
	}
	if cfg.Quiet {
		cfg.Progress = io.Discard
	}
	return &Orchestrator{Service: svc, Config: cfg}
}

// Run schedules every batch, at most MaxParallel at a time. A CatalogError
// or cancellation in any batch cancels the others and is returned; the
// results still cover every batch, with the unfinished ones marked
// cancelled.
func (o *Orchestrator) Run(ctx context.Context, batches []Batch) ([]BatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]BatchResult, len(batches))
	for i, b := range batches {
		name := b.Name
		if name == "" {
			name = fmt.Sprintf("batch-%d", i+1)
		}
		results[i] = BatchResult{Index: i, Name: name, Status: StatusPending}
	}

	done := make(chan batchDone, len(batches))
	sem := make(chan struct{}, o.Config.MaxParallel)

	fmt.Fprintf(o.Config.Progress, "\n🚀 %s (%d batches, max %d parallel)\n",
		ui.BoldCyan("Scheduling started"), len(batches), o.Config.MaxParallel)

	for i, b := range batches {
		o.dispatch(ctx, i, b, sem, done)
	}

	var firstErr error
	for range batches {
		d := <-done
		r := &results[d.Index]
		r.Result, r.Err, r.Duration = d.Result, d.Err, d.Duration

		switch {
		case d.Err == nil:
			r.Status = StatusCompleted
			fmt.Fprintf(o.Config.Progress, "  ✓ %s %d scheduled, %d unscheduled %s\n",
				ui.Prefix(r.Name), len(d.Result.Assignments), len(d.Result.Unscheduled),
				ui.Dim(fmt.Sprintf("[%s]", d.Duration.Truncate(time.Millisecond))))
		case errors.Is(d.Err, context.Canceled) && firstErr != nil:
			r.Status = StatusCancelled
		default:
			r.Status = StatusFailed
			fmt.Fprintf(o.Config.Progress, "  %s %s %v\n", ui.Red("❌ Batch error:"), ui.Prefix(r.Name), d.Err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", r.Name, d.Err)
				cancel()
			}
		}
	}

	if firstErr == nil {
		if err := ctx.Err(); err != nil {
			firstErr = err
		}
	}
	return results, firstErr
}

// dispatch launches a batch in a goroutine: acquire semaphore, run the
// planner, send the result on done.
func (o *Orchestrator) dispatch(ctx context.Context, index int, b Batch, sem chan struct{}, done chan<- batchDone) {
	go func() {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			done <- batchDone{Index: index, Err: ctx.Err()}
			return
		}
		defer func() { <-sem }()

		start := time.Now()
		res, err := o.Service.Run(ctx, b.IDs, o.Config.Strategy, o.Config.RunStart)
		done <- batchDone{Index: index, Result: res, Err: err, Duration: time.Since(start)}
	}()
}

// Completed returns the planner results of completed batches in batch order.
func Completed(results []BatchResult) []*planner.Result {
	var out []*planner.Result
	for _, r := range results {
		if r.Status == StatusCompleted {
			out = append(out, r.Result)
		}
	}
	return out
}

// RunID names a multi-batch run. A single batch keeps its planner run id.
func RunID(results []*planner.Result) string {
	switch len(results) {
	case 0:
		return ""
	case 1:
		return results[0].RunID
	}
	h := fnv.New32a()
	for _, r := range results {
		fmt.Fprintln(h, r.RunID)
	}
	return fmt.Sprintf("sched-%s-%08x", results[0].RunStart.UTC().Format("20060102"), h.Sum32())
}
