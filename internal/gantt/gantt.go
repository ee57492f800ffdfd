// Package gantt converts a schedule into the structure Gantt chart
// front-ends render.
package gantt

import (
	"sort"
	"time"

	"github.com/joshharrison/shoploom/internal/allocator"
	"github.com/joshharrison/shoploom/internal/planner"
	"github.com/joshharrison/shoploom/internal/shop"
)

// Task statuses.
const (
	StatusScheduled = "scheduled"
	StatusLate      = "late"
)

// Task is one bar on the chart.
type Task struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Resource     string   `json:"resource"`
	Progress     int      `json:"progress"`
	Priority     string   `json:"priority"`
	Status       string   `json:"status"`
	Utilization  float64  `json:"utilization"`
	Dependencies []string `json:"dependencies,omitempty"`
	Critical     bool     `json:"critical,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Resource is one row on the chart.
type Resource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Timeline is the chart's horizontal extent.
type Timeline struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Data is the full export. Times are RFC 3339.
type Data struct {
	Tasks       []Task             `json:"tasks"`
	Resources   []Resource         `json:"resources"`
	Timeline    Timeline           `json:"timeline"`
	Unscheduled []shop.Unscheduled `json:"unscheduled,omitempty"`
}

// Export builds Data from a schedule result and the job and resource
// metadata. Tasks follow the assignment order; resources are listed by id.
// A nil result or one without assignments yields empty lists.
func Export(result *planner.Result, jobs []shop.Job, resources []shop.Resource) Data {
	data := Data{Tasks: []Task{}, Resources: []Resource{}}
	if result == nil {
		return data
	}

	byID := make(map[string]*shop.Job, len(jobs))
	for i := range jobs {
		if _, dup := byID[jobs[i].ID]; !dup {
			byID[jobs[i].ID] = &jobs[i]
		}
	}
	scheduled := make(map[string]bool, len(result.Assignments))
	for _, a := range result.Assignments {
		scheduled[a.JobID] = true
	}

	var start, end time.Time
	for _, a := range result.Assignments {
		t := Task{
			ID:          a.JobID,
			Name:        a.JobID,
			Start:       a.Start.Format(time.RFC3339),
			End:         a.End.Format(time.RFC3339),
			Resource:    a.ResourceID,
			Priority:    shop.PriorityUnknown.String(),
			Status:      StatusScheduled,
			Utilization: a.Utilization,
			Critical:    result.IsCritical(a.JobID),
			Warnings:    a.Warnings,
		}
		if j, ok := byID[a.JobID]; ok {
			t.Name = j.Label()
			t.Priority = j.Priority.String()
		}
		if allocator.IsLate(a) {
			t.Status = StatusLate
		}
		for _, dep := range result.Dependencies[a.JobID] {
			if scheduled[dep] {
				t.Dependencies = append(t.Dependencies, dep)
			}
		}
		data.Tasks = append(data.Tasks, t)

		if start.IsZero() || a.Start.Before(start) {
			start = a.Start
		}
		if a.End.After(end) {
			end = a.End
		}
	}
	if len(data.Tasks) > 0 {
		data.Timeline = Timeline{Start: start.Format(time.RFC3339), End: end.Format(time.RFC3339)}
	}

	rows := append([]shop.Resource(nil), resources...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	seen := make(map[string]bool, len(rows))
	for i := range rows {
		if seen[rows[i].ID] {
			continue
		}
		seen[rows[i].ID] = true
		data.Resources = append(data.Resources, Resource{ID: rows[i].ID, Name: rows[i].Label()})
	}

	data.Unscheduled = result.Unscheduled
	return data
}
