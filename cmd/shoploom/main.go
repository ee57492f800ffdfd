package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/joshharrison/shoploom/internal/allocator"
	"github.com/joshharrison/shoploom/internal/config"
	"github.com/joshharrison/shoploom/internal/cpm"
	"github.com/joshharrison/shoploom/internal/estimate"
	"github.com/joshharrison/shoploom/internal/gantt"
	"github.com/joshharrison/shoploom/internal/graph"
	"github.com/joshharrison/shoploom/internal/logging"
	"github.com/joshharrison/shoploom/internal/orchestrator"
	"github.com/joshharrison/shoploom/internal/planner"
	"github.com/joshharrison/shoploom/internal/reporter"
	"github.com/joshharrison/shoploom/internal/shop"
	"github.com/joshharrison/shoploom/internal/source"
	"github.com/joshharrison/shoploom/internal/source/postgres"
	"github.com/joshharrison/shoploom/internal/state"
	"github.com/joshharrison/shoploom/internal/strategy"
	"github.com/joshharrison/shoploom/internal/ui"
)

const dateLayout = "2006-01-02"

var (
	flagProject      string
	flagSource       string
	flagStrategy     string
	flagDependencies string
	flagScorer       string
	flagMaxParallel  int
	flagJSON         bool
	flagQuiet        bool
	flagRunStart     string
	flagBatches      []string
	flagNoCompact    bool
	flagOutput       string
	flagSaveDB       bool
	flagFormat       string
)

func main() {
	root := &cobra.Command{
		Use:   "shoploom",
		Short: "Production scheduling for workshops and production lines",
		Long: `Shoploom places production plans onto workshops and lines with finite
daily capacity, honouring dependencies, earliest starts and due dates,
and exports the result as Gantt data.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagProject, "project", "C", ".", "Project directory containing .shoploom/")
	root.PersistentFlags().StringVar(&flagSource, "source", "", "Snapshot file to load jobs and resources from (overrides config)")
	root.PersistentFlags().StringVar(&flagStrategy, "strategy", "", "Scheduling strategy (priority, deadline, shortest, balanced)")
	root.PersistentFlags().StringVar(&flagDependencies, "dependencies", "", "Dependency rules (explicit, customer, combined)")
	root.PersistentFlags().IntVar(&flagMaxParallel, "max-parallel", 0, "Maximum batches scheduled concurrently")
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")

	root.AddCommand(
		initCmd(),
		scheduleCmd(),
		ganttCmd(),
		statusCmd(),
		historyCmd(),
		cleanCmd(),
		vizCmd(),
		estimateCmd(),
		migrateCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create .shoploom/ with a default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(flagProject); err != nil {
				return err
			}
			ui.PrintLogo()
			fmt.Printf("✅ %s %s\n", ui.BoldGreen("Initialised"), config.Path(flagProject))
			return nil
		},
	}
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule [job-id...]",
		Short: "Schedule jobs onto resources and save the run",
		Long: `Schedule the named jobs, or every schedulable job when none are named.

Each --batch flag adds an independent batch of comma-separated job ids.
Batches are scheduled concurrently and never share resource timelines.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			kind, err := strategy.Parse(cfg.Schedule.Strategy)
			if err != nil {
				return err
			}
			runStart, err := parseRunStart(flagRunStart)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			log := openLog()
			defer log.Close()

			src, err := openSource(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer src.Close()

			p, err := buildPlanner(cfg, log)
			if err != nil {
				return err
			}

			orch := orchestrator.New(&planner.Service{Jobs: src.jobs, Resources: src.resources, Planner: p}, orchestrator.Config{
				MaxParallel: cfg.Schedule.MaxParallel,
				Strategy:    kind,
				RunStart:    runStart,
				Quiet:       flagQuiet || flagJSON,
			})

			if !flagJSON && !flagQuiet {
				ui.PrintLogo()
			}

			batches := parseBatches(args, flagBatches)
			log.Printf("schedule: %d batch(es), strategy %s, run start %s", len(batches), kind, runStart.Format(dateLayout))
			results, runErr := orch.Run(ctx, batches)
			completed := orchestrator.Completed(results)
			if len(completed) == 0 {
				if runErr != nil {
					return runErr
				}
				return errors.New("no batches completed")
			}

			run := &state.Run{
				ID:      orchestrator.RunID(completed),
				SavedAt: time.Now().UTC(),
				Source:  src.name,
				Results: completed,
			}

			store := state.Open(flagProject)
			if store.Exists() {
				if err := store.Archive(); err != nil {
					fmt.Fprintf(os.Stderr, "%s archive previous run: %v\n", ui.Yellow("⚠️  Warning:"), err)
				}
			}
			if err := store.Save(run); err != nil {
				return err
			}
			log.Printf("schedule: saved run %s", run.ID)

			if flagSaveDB {
				if err := saveToDB(ctx, cfg, src, completed, log); err != nil {
					return err
				}
			}

			if flagOutput != "" {
				if err := writeGantt(flagOutput, completed); err != nil {
					return err
				}
			}

			rpt := reporter.New(run)
			if flagJSON {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			} else {
				rpt.PrintSchedule(os.Stdout)
				fmt.Println(rpt.Summary())
				if flagOutput != "" {
					fmt.Printf("📊 Gantt data written to %s\n", ui.Bold(flagOutput))
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&flagRunStart, "run-start", "", "First schedulable day (YYYY-MM-DD, default today)")
	cmd.Flags().StringArrayVar(&flagBatches, "batch", nil, "Comma-separated job ids scheduled as one independent batch (repeatable)")
	cmd.Flags().BoolVar(&flagNoCompact, "no-compact", false, "Skip the compaction pass")
	cmd.Flags().StringVar(&flagScorer, "scorer", "", "Resource skill scorer (flat, tags)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Also write Gantt JSON to this file")
	cmd.Flags().BoolVar(&flagSaveDB, "save-db", false, "Save the run to the database")
	cmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress batch progress output")

	return cmd
}

func ganttCmd() *cobra.Command {
	var flagRun string

	cmd := &cobra.Command{
		Use:   "gantt",
		Short: "Export the saved run as Gantt JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := loadRun(flagRun, false)
			if err != nil {
				return err
			}
			if flagOutput != "" {
				if err := writeGantt(flagOutput, run.Results); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "📊 Gantt data written to %s\n", ui.Bold(flagOutput))
				return nil
			}
			return outputJSON(ganttPayload(run.Results))
		},
	}

	cmd.Flags().StringVar(&flagRun, "run", "", "Export an archived run by history key")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write to file instead of stdout")

	return cmd
}

func statusCmd() *cobra.Command {
	var (
		flagPrevious bool
		flagRun      string
		flagDB       bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				run *state.Run
				err error
			)
			if flagDB {
				run, err = loadRunFromDB(flagRun)
			} else {
				run, err = loadRun(flagRun, flagPrevious)
			}
			if err != nil {
				return err
			}

			rpt := reporter.New(run)
			if flagJSON {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			rpt.PrintSchedule(os.Stdout)
			fmt.Println(rpt.Summary())
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagPrevious, "previous", false, "Show the most recent archived run")
	cmd.Flags().StringVar(&flagRun, "run", "", "Show an archived run by history key (or a database run id with --db)")
	cmd.Flags().BoolVar(&flagDB, "db", false, "Read the run given by --run from the database")

	return cmd
}

// loadRunFromDB reads a run saved with `schedule --save-db`.
func loadRunFromDB(id string) (*state.Run, error) {
	if id == "" {
		return nil, errors.New("--db needs --run <id>")
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Source.DatabaseURL == "" {
		return nil, errors.New("no database url: set source.database_url or SHOPLOOM_DATABASE_URL")
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := postgres.Open(ctx, cfg.Source.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	store := postgres.NewStore(pool, cfg.Schedule.SchedulableStatuses, nil)
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	res, err := store.LoadSchedule(ctx, id)
	if errors.Is(err, source.ErrNotFound) {
		return nil, fmt.Errorf("run %s not found in database", id)
	}
	if err != nil {
		return nil, err
	}
	return &state.Run{ID: res.RunID, SavedAt: res.RunStart, Source: "postgres", Results: []*planner.Result{res}}, nil
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List archived runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := state.Open(flagProject).ListHistory()
			if err != nil {
				return err
			}

			if flagJSON {
				type entry struct {
					Key         string    `json:"key"`
					ID          string    `json:"id"`
					SavedAt     time.Time `json:"saved_at"`
					Batches     int       `json:"batches"`
					Assigned    int       `json:"assigned"`
					Unscheduled int       `json:"unscheduled"`
				}
				out := make([]entry, 0, len(runs))
				for _, r := range runs {
					assigned, unscheduled := r.Totals()
					out = append(out, entry{r.Key, r.ID, r.SavedAt, len(r.Results), assigned, unscheduled})
				}
				return outputJSON(out)
			}

			if len(runs) == 0 {
				fmt.Println(ui.Dim("No archived runs."))
				return nil
			}
			fmt.Printf("📜 %s\n", ui.BoldCyan("Archived runs"))
			for i := len(runs) - 1; i >= 0; i-- {
				r := runs[i]
				assigned, unscheduled := r.Totals()
				fmt.Printf("  %s  %s  %d scheduled, %d unscheduled\n",
					ui.BoldMagenta(r.Key), ui.Dim(r.SavedAt.Local().Format(time.DateTime)), assigned, unscheduled)
			}
			return nil
		},
	}
}

func cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the current saved run (history is kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.Open(flagProject).Clean(); err != nil {
				return err
			}
			fmt.Printf("🧹 %s\n", ui.Green("Removed the current run."))
			return nil
		},
	}
}

func vizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz [job-id...]",
		Short: "Print the job dependency graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			log := openLog()
			defer log.Close()

			src, err := openSource(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer src.Close()

			loaded, err := src.jobs.LoadSchedulableJobs(ctx, args)
			if err != nil {
				return err
			}
			deps, ok := graph.StrategyFor(cfg.Schedule.Dependencies)
			if !ok {
				return fmt.Errorf("unknown dependency rules %q", cfg.Schedule.Dependencies)
			}

			jobs := make([]*shop.Job, len(loaded))
			durations := make(map[string]int, len(loaded))
			for i := range loaded {
				jobs[i] = &loaded[i]
				durations[loaded[i].ID] = estimate.Job(jobs[i])
			}

			g := graph.Build(jobs, deps)
			for _, id := range sortedKeys(g.Excluded) {
				fmt.Fprintf(os.Stderr, "%s %s excluded: %v\n", ui.Yellow("⚠️  Warning:"), id, g.Excluded[id])
			}
			result, err := cpm.Analyze(g, durations)
			if err != nil {
				return err
			}

			if flagFormat == "dot" {
				return printDOT(g, result)
			}
			printASCIIDAG(g, result, durations)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")

	return cmd
}

func estimateCmd() *cobra.Command {
	var (
		flagQuantity int
		flagComplex  bool
		flagPriority string
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate a production duration in days",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := shop.ParsePriority(flagPriority)
			if err != nil {
				return err
			}
			if flagQuantity <= 0 {
				return fmt.Errorf("quantity must be positive, got %d", flagQuantity)
			}
			days := estimate.Estimate(flagQuantity, flagComplex, p)

			if flagJSON {
				return outputJSON(map[string]interface{}{
					"quantity":   flagQuantity,
					"is_complex": flagComplex,
					"priority":   p,
					"days":       days,
				})
			}
			fmt.Printf("⏱️  %s units, priority %s%s: %s\n",
				ui.Bold(flagQuantity), ui.Bold(p), complexNote(flagComplex), ui.BoldCyan(fmt.Sprintf("%d day(s)", days)))
			return nil
		},
	}

	cmd.Flags().IntVar(&flagQuantity, "quantity", 0, "Quantity to produce")
	cmd.Flags().BoolVar(&flagComplex, "complex", false, "Product is complex")
	cmd.Flags().StringVar(&flagPriority, "priority", "medium", "Priority (low, medium, high, urgent)")

	return cmd
}

func complexNote(isComplex bool) string {
	if isComplex {
		return ", complex"
	}
	return ""
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the scheduling tables in the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Source.DatabaseURL == "" {
				return errors.New("no database url: set source.database_url or SHOPLOOM_DATABASE_URL")
			}

			ctx, cancel := signalContext()
			defer cancel()

			pool, err := postgres.Open(ctx, cfg.Source.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}
			fmt.Printf("✅ %s\n", ui.BoldGreen("Database schema is up to date."))
			return nil
		},
	}
}

// --- Wiring helpers ---

// loadConfig reads the project config and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagProject)
	if err != nil {
		return nil, err
	}
	if flagSource != "" {
		cfg.Source.Driver = config.DriverFile
		cfg.Source.Path = flagSource
	}
	if flagStrategy != "" {
		cfg.Schedule.Strategy = flagStrategy
	}
	if flagDependencies != "" {
		cfg.Schedule.Dependencies = flagDependencies
	}
	if flagScorer != "" {
		cfg.Schedule.Scorer = flagScorer
	}
	if flagMaxParallel > 0 {
		cfg.Schedule.MaxParallel = flagMaxParallel
	}
	if flagNoCompact {
		cfg.Schedule.Compact = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// loadedSource bundles the loaders chosen by config with the pool, if any,
// that backs them.
type loadedSource struct {
	name      string
	jobs      source.JobLoader
	resources source.ResourceCatalog
	pool      *pgxpool.Pool
}

func (s *loadedSource) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func openSource(ctx context.Context, cfg *config.Config, log logging.Printer) (*loadedSource, error) {
	switch cfg.Source.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.Source.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := postgres.NewStore(pool, cfg.Schedule.SchedulableStatuses, logging.Prefixed(log, "postgres: "))
		if err := store.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return &loadedSource{name: "postgres", jobs: store, resources: store, pool: pool}, nil
	default:
		fs := &source.FileSource{
			Path:          cfg.SourcePath(),
			JobsPath:      cfg.Source.JobsPath,
			ResourcesPath: cfg.Source.ResourcesPath,
			Statuses:      cfg.Schedule.SchedulableStatuses,
			Log:           logging.Prefixed(log, "source: "),
		}
		return &loadedSource{name: fs.Path, jobs: fs, resources: fs}, nil
	}
}

func buildPlanner(cfg *config.Config, log logging.Printer) (*planner.Planner, error) {
	deps, ok := graph.StrategyFor(cfg.Schedule.Dependencies)
	if !ok {
		return nil, fmt.Errorf("unknown dependency rules %q", cfg.Schedule.Dependencies)
	}
	scorer, ok := allocator.ScorerFor(cfg.Schedule.Scorer)
	if !ok {
		return nil, fmt.Errorf("unknown scorer %q", cfg.Schedule.Scorer)
	}
	return planner.New(planner.Config{
		Dependencies:   deps,
		Scorer:         scorer,
		SkipCompaction: !cfg.Schedule.Compact,
		Log:            logging.Prefixed(log, "planner: "),
	}), nil
}

// saveToDB writes completed results to the configured database, reusing
// the source pool when jobs were loaded from postgres.
func saveToDB(ctx context.Context, cfg *config.Config, src *loadedSource, results []*planner.Result, log logging.Printer) error {
	pool := src.pool
	if pool == nil {
		if cfg.Source.DatabaseURL == "" {
			return errors.New("--save-db: no database url: set source.database_url or SHOPLOOM_DATABASE_URL")
		}
		var err error
		pool, err = postgres.Open(ctx, cfg.Source.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	store := postgres.NewStore(pool, cfg.Schedule.SchedulableStatuses, logging.Prefixed(log, "postgres: "))
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	for _, res := range results {
		if err := store.SaveSchedule(ctx, res); err != nil {
			return fmt.Errorf("save run %s: %w", res.RunID, err)
		}
	}
	if !flagJSON {
		fmt.Fprintf(os.Stderr, "💾 %s %d run(s) saved to database\n", ui.Green("✓"), len(results))
	}
	return nil
}

// openLog opens the project log file. A project without .shoploom/ still
// runs; it just isn't logged.
func openLog() *logging.Logger {
	if _, err := os.Stat(filepath.Join(flagProject, config.Dir)); err != nil {
		return nil
	}
	l, err := logging.New(flagProject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.Yellow("⚠️  Warning:"), err)
		return nil
	}
	return l
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintf(os.Stderr, "\n🛑 %s\n", ui.Yellow("Received interrupt, cancelling..."))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func parseRunStart(s string) (time.Time, error) {
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --run-start: %w", err)
	}
	return t, nil
}

// parseBatches turns positional ids and --batch flags into batches. With
// neither, one batch covers every schedulable job.
func parseBatches(args, flags []string) []orchestrator.Batch {
	var batches []orchestrator.Batch
	if len(args) > 0 {
		batches = append(batches, orchestrator.Batch{Name: "batch-1", IDs: args})
	}
	for _, f := range flags {
		var ids []string
		for _, id := range strings.Split(f, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}
		batches = append(batches, orchestrator.Batch{Name: fmt.Sprintf("batch-%d", len(batches)+1), IDs: ids})
	}
	if len(batches) == 0 {
		batches = append(batches, orchestrator.Batch{Name: "all"})
	}
	return batches
}

func loadRun(id string, previous bool) (*state.Run, error) {
	store := state.Open(flagProject)
	var (
		run *state.Run
		err error
	)
	switch {
	case id != "":
		run, err = store.LoadArchived(id)
	case previous:
		run, err = store.LoadPrevious()
	default:
		run, err = store.Load()
	}
	if errors.Is(err, state.ErrNoRun) {
		return nil, fmt.Errorf("%w (run `shoploom schedule` first)", err)
	}
	return run, err
}

// --- Output helpers ---

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// ganttPayload is a single Data object for one batch and an array otherwise.
func ganttPayload(results []*planner.Result) interface{} {
	if len(results) == 1 {
		return gantt.Export(results[0], results[0].Jobs, results[0].Resources)
	}
	out := make([]gantt.Data, 0, len(results))
	for _, res := range results {
		out = append(out, gantt.Export(res, res.Jobs, res.Resources))
	}
	return out
}

func writeGantt(path string, results []*planner.Result) error {
	data, err := json.MarshalIndent(ganttPayload(results), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write gantt: %w", err)
	}
	return nil
}

func printASCIIDAG(g *graph.JobGraph, result *cpm.CPMResult, durations map[string]int) {
	fmt.Printf("🔗 %s\n", ui.BoldCyan("Job Dependency Graph"))
	fmt.Println(ui.Cyan("══════════════════════"))
	fmt.Println()

	// Group jobs by earliest start day.
	byDay := make(map[int][]string)
	var days []int
	for _, id := range result.TopoOrder {
		es := result.Jobs[id].ES
		if _, ok := byDay[es]; !ok {
			days = append(days, es)
		}
		byDay[es] = append(byDay[es], id)
	}
	sort.Ints(days)

	for _, d := range days {
		fmt.Printf("%s 📅 Day %d %s\n", ui.Cyan("──"), d, ui.Cyan("──────────────────────────────"))
		for _, id := range byDay[d] {
			crit := " "
			if result.Jobs[id].IsCritical {
				crit = ui.BoldYellow("⚡")
			}
			fmt.Printf("  %s [%s] %s %s\n", crit, ui.BoldMagenta(id), g.Jobs[id].Label(),
				ui.Dim(fmt.Sprintf("(%dd)", durations[id])))

			for _, next := range g.Adj[id] {
				fmt.Printf("      %s %s\n", ui.Dim("└──→"), ui.Magenta(next))
			}
			for _, missing := range g.Unresolved[id] {
				fmt.Printf("      %s %s\n", ui.Dim("⋯ waits on"), ui.Yellow(missing))
			}
		}
		fmt.Println()
	}

	fmt.Println(graphEnds(g))
	if len(result.CriticalPath) > 0 {
		fmt.Printf("⚡ Critical path: %s (%d days)\n",
			ui.BoldYellow(strings.Join(result.CriticalPath, " → ")), result.TotalDuration)
	}
}

// graphEnds names the jobs that can start immediately and the ones nothing
// waits for.
func graphEnds(g *graph.JobGraph) string {
	list := func(ids []string) string {
		if len(ids) == 0 {
			return ui.Dim("none")
		}
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("🟢 Ready now: %s\n🏁 Final:     %s", list(g.Roots), list(g.Leaves))
}

func printDOT(g *graph.JobGraph, result *cpm.CPMResult) error {
	fmt.Println("digraph shoploom {")
	fmt.Println("  rankdir=LR;")
	fmt.Println("  node [shape=box, style=rounded];")
	fmt.Println()

	for _, id := range result.TopoOrder {
		attrs := "label=" + dotLabel(id, g.Jobs[id].Label())
		if js := result.Jobs[id]; js != nil && js.IsCritical {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Printf("  %q [%s];\n", id, attrs)
	}

	fmt.Println()

	for _, from := range result.TopoOrder {
		for _, to := range g.Adj[from] {
			style := ""
			if result.Jobs[from].IsCritical && result.Jobs[to] != nil && result.Jobs[to].IsCritical {
				style = ` [color=red, penwidth=2]`
			}
			fmt.Printf("  %q -> %q%s;\n", from, to, style)
		}
	}

	fmt.Println("}")
	return nil
}

// dotLabel quotes a two-line node label; %q escapes quotes and renders the
// line break as \n, which Graphviz reads as a newline.
func dotLabel(id, name string) string {
	return fmt.Sprintf("%q", id+"\n"+name)
}

func sortedKeys(m map[string]error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
