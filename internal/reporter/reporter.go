package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/joshharrison/shoploom/internal/allocator"
	"github.com/joshharrison/shoploom/internal/compactor"
	"github.com/joshharrison/shoploom/internal/planner"
	"github.com/joshharrison/shoploom/internal/shop"
	"github.com/joshharrison/shoploom/internal/state"
	"github.com/joshharrison/shoploom/internal/ui"
)

const dateLayout = "2006-01-02"

// Reporter renders a saved run for the terminal or as JSON.
type Reporter struct {
	Run *state.Run
}

// New creates a new Reporter.
func New(run *state.Run) *Reporter {
	return &Reporter{Run: run}
}

// PrintSchedule writes each batch grouped by resource, followed by the jobs
// that could not be scheduled.
func (r *Reporter) PrintSchedule(w io.Writer) {
	assigned, unscheduled := r.Run.Totals()
	fmt.Fprintf(w, "%s %s — %d scheduled, %d unscheduled\n\n",
		ui.BoldCyan("🏭 Shoploom"), ui.Dim(r.Run.ID), assigned, unscheduled)

	for i, res := range r.Run.Results {
		if len(r.Run.Results) > 1 {
			fmt.Fprintf(w, "  📦 %s %d %s\n", ui.BoldWhite("BATCH"), i+1, ui.Dim(res.RunID))
		}
		fmt.Fprintf(w, "  %s %s  %s %s → %s\n\n",
			ui.Bold("Strategy:"), res.Strategy,
			ui.Bold("Window:"), res.RunStart.Format(dateLayout), res.End().Format(dateLayout))

		r.printResources(w, res)
		r.printUnscheduled(w, res)
	}
}

func (r *Reporter) printResources(w io.Writer, res *planner.Result) {
	names := make(map[string]string, len(res.Jobs))
	for _, j := range res.Jobs {
		if _, ok := names[j.ID]; !ok {
			names[j.ID] = j.Label()
		}
	}
	labels := make(map[string]string, len(res.Resources))
	for _, rs := range res.Resources {
		labels[rs.ID] = rs.Label()
	}

	byRes := make(map[string][]*shop.Assignment)
	var ids []string
	for _, a := range res.Assignments {
		if _, ok := byRes[a.ResourceID]; !ok {
			ids = append(ids, a.ResourceID)
		}
		byRes[a.ResourceID] = append(byRes[a.ResourceID], a)
	}
	sort.Strings(ids)
	busyUntil := compactor.Makespan(res.Assignments)

	for _, id := range ids {
		label := labels[id]
		if label == "" || label == id {
			label = ""
		} else {
			label = ui.Dim("(" + label + ")") + " "
		}
		fmt.Fprintf(w, "  🔧 %s %s%s\n", ui.Prefix(id), label,
			ui.Dim("busy until "+busyUntil[id].Format(dateLayout)))

		list := byRes[id]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })
		for _, a := range list {
			r.printAssignment(w, res, a, names[a.JobID])
		}
		fmt.Fprintln(w)
	}
}

func (r *Reporter) printAssignment(w io.Writer, res *planner.Result, a *shop.Assignment, name string) {
	status := "scheduled"
	if allocator.IsLate(a) {
		status = "late"
	}
	critical := " "
	if res.IsCritical(a.JobID) {
		critical = ui.BoldYellow("⚡")
	}
	if len(name) > 30 {
		name = name[:27] + "..."
	}
	fmt.Fprintf(w, "    %s %-10s %-30s %s → %s  %s %3.0f%% %s\n",
		ui.StatusIcon(status), ui.BoldMagenta(a.JobID), name,
		a.Start.Format(dateLayout), a.End.Format(dateLayout),
		ui.UtilizationBar(a.Utilization), a.Utilization*100, critical)
	for _, warn := range a.Warnings {
		fmt.Fprintf(w, "        %s %s\n", ui.StatusIcon("warning"), ui.Yellow(warn))
	}
}

func (r *Reporter) printUnscheduled(w io.Writer, res *planner.Result) {
	if len(res.Unscheduled) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", ui.BoldRed("Unscheduled:"))
	for _, u := range res.Unscheduled {
		fmt.Fprintf(w, "    %s %-10s %s %s\n",
			ui.StatusIcon("unscheduled"), ui.BoldMagenta(u.JobID), u.Reason, ui.Dim("["+string(u.Kind)+"]"))
	}
	fmt.Fprintln(w)
}

// Summary returns a short final summary.
func (r *Reporter) Summary() string {
	var b strings.Builder
	assigned, unscheduled := r.Run.Totals()

	late := 0
	var critical []string
	for _, res := range r.Run.Results {
		late += len(res.Late())
		critical = append(critical, res.CriticalPath...)
	}

	statusText := ui.BoldGreen("all jobs scheduled")
	statusEmoji := "✅"
	if unscheduled > 0 {
		statusText = ui.Yellow(fmt.Sprintf("%d job(s) unscheduled", unscheduled))
		statusEmoji = "⚠️"
	}

	fmt.Fprintf(&b, "\n%s %s\n", statusEmoji, ui.BoldCyan("Shoploom Schedule"))
	fmt.Fprintf(&b, "%s\n", ui.Cyan("═════════════════════════"))
	fmt.Fprintf(&b, "Run:       %s\n", ui.Dim(r.Run.ID))
	fmt.Fprintf(&b, "Batches:   %d\n", len(r.Run.Results))
	fmt.Fprintf(&b, "Jobs:      %s, %s, %s\n",
		ui.Green(fmt.Sprintf("%d scheduled", assigned)),
		ui.Red(fmt.Sprintf("%d unscheduled", unscheduled)),
		ui.Yellow(fmt.Sprintf("%d late", late)))
	fmt.Fprintf(&b, "Status:    %s\n", statusText)
	if len(critical) > 0 {
		fmt.Fprintf(&b, "Critical:  %s\n", ui.BoldYellow("⚡ "+strings.Join(critical, " → ")))
	}
	return b.String()
}

// JSON returns a machine-readable summary.
func (r *Reporter) JSON() ([]byte, error) {
	type batch struct {
		RunID        string             `json:"run_id"`
		Strategy     string             `json:"strategy"`
		Start        string             `json:"start"`
		End          string             `json:"end"`
		Scheduled    int                `json:"scheduled"`
		Late         []string           `json:"late,omitempty"`
		CriticalPath []string           `json:"critical_path,omitempty"`
		Unscheduled  []shop.Unscheduled `json:"unscheduled,omitempty"`
	}
	type output struct {
		ID          string  `json:"id"`
		SavedAt     string  `json:"saved_at"`
		Scheduled   int     `json:"scheduled"`
		Unscheduled int     `json:"unscheduled"`
		Batches     []batch `json:"batches"`
	}

	o := output{ID: r.Run.ID, SavedAt: r.Run.SavedAt.Format("2006-01-02T15:04:05Z07:00")}
	o.Scheduled, o.Unscheduled = r.Run.Totals()
	for _, res := range r.Run.Results {
		b := batch{
			RunID:        res.RunID,
			Strategy:     res.Strategy.String(),
			Start:        res.RunStart.Format(dateLayout),
			End:          res.End().Format(dateLayout),
			Scheduled:    len(res.Assignments),
			CriticalPath: res.CriticalPath,
			Unscheduled:  res.Unscheduled,
		}
		for _, a := range res.Late() {
			b.Late = append(b.Late, a.JobID)
		}
		o.Batches = append(o.Batches, b)
	}
	return json.MarshalIndent(o, "", "  ")
}
