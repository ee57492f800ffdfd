package shop

import "time"

// Day is the scheduling quantum. Durations are whole days.
const Day = 24 * time.Hour

// Job is a production plan waiting to be placed on a resource.
type Job struct {
	ID                    string    `json:"id" yaml:"id"`
	ExternalRef           string    `json:"external_ref" yaml:"external_ref"` // customer / order reference
	ProductName           string    `json:"product_name" yaml:"product_name"`
	Quantity              int       `json:"quantity" yaml:"quantity"`
	Unit                  string    `json:"unit,omitempty" yaml:"unit,omitempty"`
	Priority              Priority  `json:"priority" yaml:"priority"`
	Status                string    `json:"status,omitempty" yaml:"status,omitempty"`
	DueDate               time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	EstimatedDurationDays int       `json:"estimated_duration_days,omitempty" yaml:"estimated_duration_days,omitempty"`
	IsComplex             bool      `json:"is_complex,omitempty" yaml:"is_complex,omitempty"`
	Dependencies          []string  `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	EligibleResourceTag   string    `json:"eligible_resource_tag,omitempty" yaml:"eligible_resource_tag,omitempty"`
	EarliestStart         time.Time `json:"earliest_start,omitempty" yaml:"earliest_start,omitempty"`
	LatestFinish          time.Time `json:"latest_finish,omitempty" yaml:"latest_finish,omitempty"`

	// Problems are loader-side parse failures (an unknown priority label,
	// an unreadable date). Validate rejects a job that carries any.
	Problems []string `json:"-" yaml:"-"`
}

// Duration returns the estimated duration as a time span.
func (j *Job) Duration() time.Duration {
	return time.Duration(j.EstimatedDurationDays) * Day
}

// Label is the display name used by reports and Gantt output.
func (j *Job) Label() string {
	if j.ProductName == "" {
		return j.ID
	}
	return j.ProductName
}

// Resource is a workshop or production line with finite daily capacity.
type Resource struct {
	ID                   string   `json:"id" yaml:"id"`
	ProductionLine       string   `json:"production_line" yaml:"production_line"`
	CapacityUnitsPerDay  int      `json:"capacity_units_per_day" yaml:"capacity_units_per_day"`
	AvailableHoursPerDay float64  `json:"available_hours_per_day,omitempty" yaml:"available_hours_per_day,omitempty"`
	Tags                 []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Label is the display name used by reports and Gantt output.
func (r *Resource) Label() string {
	if r.ProductionLine == "" {
		return r.ID
	}
	return r.ProductionLine
}

// Matches reports whether the resource carries tag, either in its tag set or
// as its production line name. An empty tag matches every resource.
func (r *Resource) Matches(tag string) bool {
	if tag == "" {
		return true
	}
	if r.ProductionLine == tag {
		return true
	}
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Assignment binds a job to a resource for [Start, End).
type Assignment struct {
	JobID       string    `json:"job_id"`
	ResourceID  string    `json:"resource_id"`
	Start       time.Time `json:"scheduled_start"`
	End         time.Time `json:"scheduled_end"`
	Utilization float64   `json:"utilization"`
	Warnings    []string  `json:"warnings,omitempty"`
}

// Duration returns End - Start.
func (a *Assignment) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

// UnscheduledKind classifies why a job was excluded from a run.
type UnscheduledKind string

const (
	KindInvalidInput       UnscheduledKind = "invalid-input"
	KindDependencyCycle    UnscheduledKind = "dependency-cycle"
	KindNoEligibleResource UnscheduledKind = "no-eligible-resource"
)

// Unscheduled records a job that could not be placed, with a human-readable reason.
type Unscheduled struct {
	JobID  string          `json:"job_id"`
	Reason string          `json:"reason"`
	Kind   UnscheduledKind `json:"kind"`
}
