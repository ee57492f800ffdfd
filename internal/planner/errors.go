package planner

import (
	"errors"
	"fmt"

	"github.com/joshharrison/shoploom/internal/allocator"
	"github.com/joshharrison/shoploom/internal/graph"
	"github.com/joshharrison/shoploom/internal/shop"
)

// InputError marks a malformed job. The job is excluded and the run continues.
type InputError struct {
	JobID  string
	Reason string
}

func (e *InputError) Error() string {
	return "invalid job: " + e.Reason
}

// DependencyCycleError marks a job on a cyclic prerequisite chain.
type DependencyCycleError = graph.CycleError

// NoEligibleResourceError marks a job no resource in the catalog can run.
type NoEligibleResourceError = allocator.NoEligibleResourceError

// ErrEmptyCatalog is wrapped by CatalogError when the catalog has no usable
// resources.
var ErrEmptyCatalog = errors.New("resource catalog is empty")

// CatalogError aborts a whole run: the jobs or resources could not be loaded.
type CatalogError struct {
	Op  string // "load jobs" or "load resources"
	Err error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// kindOf classifies a per-job exclusion.
func kindOf(err error) shop.UnscheduledKind {
	var cycle *DependencyCycleError
	var noRes *NoEligibleResourceError
	switch {
	case errors.As(err, &cycle):
		return shop.KindDependencyCycle
	case errors.As(err, &noRes):
		return shop.KindNoEligibleResource
	default:
		return shop.KindInvalidInput
	}
}
