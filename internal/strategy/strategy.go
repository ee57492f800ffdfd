// Package strategy maps a scheduling policy to a deterministic ordering of jobs.
package strategy

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/joshharrison/shoploom/internal/shop"
)

// Kind selects the ordering policy applied before allocation.
type Kind int

const (
	PriorityFirst Kind = iota
	DeadlineFirst
	ShortestFirst
	Balanced
)

var kindNames = []string{"priority", "deadline", "shortest", "balanced"}

// Kinds lists every strategy, in declaration order.
func Kinds() []Kind {
	return []Kind{PriorityFirst, DeadlineFirst, ShortestFirst, Balanced}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Parse accepts the short names above plus the legacy snake_case ones
// ("priority_first", "deadline_first", "shortest_first").
func Parse(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimSuffix(strings.TrimSuffix(name, "_first"), "-first")
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q (use priority, deadline, shortest or balanced)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Less reports whether a should be allocated before b. Ties return false so
// a stable sort keeps input order.
type Less func(a, b *shop.Job) bool

// Comparator returns the ordering for k. runStart anchors "days until due"
// for the balanced score.
func Comparator(k Kind, runStart time.Time) Less {
	switch k {
	case DeadlineFirst:
		return func(a, b *shop.Job) bool {
			return dueBefore(a, b)
		}
	case ShortestFirst:
		return func(a, b *shop.Job) bool {
			return a.EstimatedDurationDays < b.EstimatedDurationDays
		}
	case Balanced:
		return func(a, b *shop.Job) bool {
			return Score(a, runStart) > Score(b, runStart)
		}
	default:
		return func(a, b *shop.Job) bool {
			wa, wb := a.Priority.Weight(), b.Priority.Weight()
			if wa != wb {
				return wa > wb
			}
			return dueBefore(a, b)
		}
	}
}

// Sort orders jobs in place by k. The sort is stable, so ties keep input order.
func Sort(jobs []*shop.Job, k Kind, runStart time.Time) {
	less := Comparator(k, runStart)
	sort.SliceStable(jobs, func(i, j int) bool {
		return less(jobs[i], jobs[j])
	})
}

// Score is the balanced-strategy score; higher goes first.
//
//	0.4·priorityWeight/4 + 0.4·max(0, 10−daysUntilDue) + 0.2·max(0, 10−duration)
//
// A job without a due date contributes nothing for urgency.
func Score(j *shop.Job, runStart time.Time) float64 {
	priority := float64(j.Priority.Weight()) / float64(shop.PriorityUrgent.Weight())

	urgency := 0.0
	if !j.DueDate.IsZero() {
		days := math.Floor(j.DueDate.Sub(runStart).Hours() / 24)
		urgency = math.Max(0, 10-days)
	}

	brevity := math.Max(0, 10-float64(j.EstimatedDurationDays))

	return 0.4*priority + 0.4*urgency + 0.2*brevity
}

// dueBefore orders by due date; jobs without one sort last.
func dueBefore(a, b *shop.Job) bool {
	switch {
	case a.DueDate.IsZero():
		return false
	case b.DueDate.IsZero():
		return true
	}
	return a.DueDate.Before(b.DueDate)
}
