// Package estimate turns production plan attributes into a duration in days.
package estimate

import (
	"math"

	"github.com/joshharrison/shoploom/internal/shop"
)

// UnitsPerDay is the baseline throughput the estimate assumes.
const UnitsPerDay = 100

var priorityFactor = map[shop.Priority]float64{
	shop.PriorityUrgent: 0.8,
	shop.PriorityHigh:   0.9,
	shop.PriorityMedium: 1.0,
	shop.PriorityLow:    1.2,
}

// Estimate returns the estimated duration in whole days, never less than 1.
// Unknown priorities use the Medium factor.
func Estimate(quantity int, isComplex bool, priority shop.Priority) int {
	base := math.Ceil(float64(quantity) / UnitsPerDay)

	complexity := 1.0
	if isComplex {
		complexity = 1.5
	}

	pf, ok := priorityFactor[priority]
	if !ok {
		pf = 1.0
	}

	// Halves round away from zero: 4.5 days is 5.
	days := int(math.Round(base * complexity * pf))
	if days < 1 {
		return 1
	}
	return days
}

// Job returns the job's duration: its explicit estimate when set, otherwise Estimate.
func Job(j *shop.Job) int {
	if j.EstimatedDurationDays > 0 {
		return j.EstimatedDurationDays
	}
	return Estimate(j.Quantity, j.IsComplex, j.Priority)
}
