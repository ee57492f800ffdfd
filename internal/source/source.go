// Package source defines the loaders the scheduler consumes and a
// file-backed implementation for snapshots exported from the plant's
// planning system.
package source

import (
	"context"
	"errors"

	"github.com/joshharrison/shoploom/internal/logging"
	"github.com/joshharrison/shoploom/internal/shop"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// JobLoader returns the schedulable jobs among ids. An empty ids list means
// every schedulable job. Unknown ids are logged and skipped.
type JobLoader interface {
	LoadSchedulableJobs(ctx context.Context, ids []string) ([]shop.Job, error)
}

// ResourceCatalog returns the resources available to a run. The list may be
// empty.
type ResourceCatalog interface {
	LoadResourceCatalog(ctx context.Context) ([]shop.Resource, error)
}

// Select filters all down to the jobs named in ids (in ids order) or, with
// no ids, every job (in snapshot order). Unknown ids and jobs outside the
// allowed statuses are reported to log and left out.
func Select(all []shop.Job, ids []string, allowed []string, log logging.Printer) []shop.Job {
	log = logging.OrDiscard(log)
	if len(allowed) == 0 {
		allowed = shop.SchedulableStatuses
	}

	keep := func(j shop.Job) bool {
		if !shop.IsSchedulable(j.Status, allowed) {
			log.Printf("skipping job %s: status %q is not schedulable", j.ID, j.Status)
			return false
		}
		return true
	}

	var out []shop.Job
	if len(ids) == 0 {
		for _, j := range all {
			if keep(j) {
				out = append(out, j)
			}
		}
		return out
	}

	byID := make(map[string]int, len(all))
	for i, j := range all {
		if _, dup := byID[j.ID]; !dup {
			byID[j.ID] = i
		}
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		i, ok := byID[id]
		if !ok {
			log.Printf("skipping job %s: %v", id, ErrNotFound)
			continue
		}
		if keep(all[i]) {
			out = append(out, all[i])
		}
	}
	return out
}
