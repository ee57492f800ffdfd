// Package timeline tracks the busy intervals of one resource during a run.
package timeline

import (
	"fmt"
	"sort"
	"time"
)

// Interval is a half-open busy span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Timeline is an ordered list of non-overlapping intervals. The zero value
// is an empty timeline ready for use. It is not safe for concurrent use; each
// scheduling run owns its timelines.
type Timeline struct {
	busy []Interval
}

// FirstFit returns the earliest start s >= at such that [s, s+d) is free:
// before the first interval, in a gap between two, or after the last.
func (t *Timeline) FirstFit(at time.Time, d time.Duration) time.Time {
	start := at
	for _, iv := range t.busy {
		if !iv.End.After(start) {
			continue
		}
		if !start.Add(d).After(iv.Start) {
			return start
		}
		start = iv.End
	}
	return start
}

// Insert marks [start, end) busy. It rejects empty spans and overlaps.
func (t *Timeline) Insert(start, end time.Time) error {
	if !end.After(start) {
		return fmt.Errorf("timeline: empty interval [%s, %s)", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	i := sort.Search(len(t.busy), func(i int) bool {
		return !t.busy[i].Start.Before(start)
	})
	if i > 0 && t.busy[i-1].End.After(start) {
		return fmt.Errorf("timeline: [%s, %s) overlaps an earlier interval", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if i < len(t.busy) && end.After(t.busy[i].Start) {
		return fmt.Errorf("timeline: [%s, %s) overlaps a later interval", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	t.busy = append(t.busy, Interval{})
	copy(t.busy[i+1:], t.busy[i:])
	t.busy[i] = Interval{Start: start, End: end}
	return nil
}

// Reserve finds the first fit for d at or after at, inserts it and returns the span.
func (t *Timeline) Reserve(at time.Time, d time.Duration) Interval {
	start := t.FirstFit(at, d)
	iv := Interval{Start: start, End: start.Add(d)}
	// FirstFit guarantees the span is free.
	_ = t.Insert(iv.Start, iv.End)
	return iv
}

// Intervals returns a copy of the busy intervals in start order.
func (t *Timeline) Intervals() []Interval {
	return append([]Interval(nil), t.busy...)
}

// Len returns the number of busy intervals.
func (t *Timeline) Len() int {
	return len(t.busy)
}

// End returns the end of the last interval, or the zero time when empty.
func (t *Timeline) End() time.Time {
	if len(t.busy) == 0 {
		return time.Time{}
	}
	return t.busy[len(t.busy)-1].End
}
