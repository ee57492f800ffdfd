package shop

import (
	"errors"
	"fmt"
	"strings"
)

// SchedulableStatuses are the plan statuses a loader hands to the engine
// unless configured otherwise.
var SchedulableStatuses = []string{"pending", "approved"}

// IsSchedulable reports whether status is in allowed. An empty status is
// treated as schedulable so hand-written snapshots need not set it.
func IsSchedulable(status string, allowed []string) bool {
	if status == "" {
		return true
	}
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

// Validate checks the fields the scheduler relies on. A job that needs its
// duration estimated must carry a positive quantity.
func (j *Job) Validate() error {
	problems := append([]string(nil), j.Problems...)
	if j.ID == "" {
		problems = append(problems, "missing id")
	}
	if j.Quantity <= 0 {
		problems = append(problems, fmt.Sprintf("quantity must be positive (got %d)", j.Quantity))
	}
	if j.EstimatedDurationDays < 0 {
		problems = append(problems, fmt.Sprintf("estimated duration must not be negative (got %d)", j.EstimatedDurationDays))
	}
	if !j.Priority.Valid() && !mentions(j.Problems, "priority") {
		problems = append(problems, "missing or unknown priority")
	}
	if !j.EarliestStart.IsZero() && !j.LatestFinish.IsZero() && j.EarliestStart.After(j.LatestFinish) {
		problems = append(problems, fmt.Sprintf("earliest start %s is after latest finish %s",
			j.EarliestStart.Format("2006-01-02"), j.LatestFinish.Format("2006-01-02")))
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, "; "))
}

// Validate checks a catalog entry.
func (r *Resource) Validate() error {
	if r.ID == "" {
		return errors.New("resource missing id")
	}
	if r.CapacityUnitsPerDay <= 0 {
		return fmt.Errorf("resource %s: capacity must be positive (got %d)", r.ID, r.CapacityUnitsPerDay)
	}
	return nil
}

func mentions(list []string, word string) bool {
	for _, s := range list {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}
