package cpm

// CPMResult holds the complete critical path analysis.
type CPMResult struct {
	Jobs          map[string]*JobSchedule
	CriticalPath  []string // ordered job IDs on critical path
	TotalDuration int      // days, ignoring resource contention
	TopoOrder     []string
}

// JobSchedule holds the unconstrained timing of a single job, in days from
// the start of the run.
type JobSchedule struct {
	JobID      string
	ES, EF     int // earliest start/finish
	LS, LF     int // latest start/finish
	Slack      int
	IsCritical bool
}
