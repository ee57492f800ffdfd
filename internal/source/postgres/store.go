// Package postgres loads jobs and resources from, and saves schedule runs
// to, a PostgreSQL database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joshharrison/shoploom/internal/logging"
	"github.com/joshharrison/shoploom/internal/planner"
	"github.com/joshharrison/shoploom/internal/shop"
	"github.com/joshharrison/shoploom/internal/source"
)

// Store implements source.JobLoader and source.ResourceCatalog.
type Store struct {
	pool     *pgxpool.Pool
	statuses []string
	log      logging.Printer
}

// Open connects a pool to databaseURL.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return pool, nil
}

// NewStore wraps pool. statuses selects schedulable plans; empty means
// shop.SchedulableStatuses.
func NewStore(pool *pgxpool.Pool, statuses []string, log logging.Printer) *Store {
	return &Store{pool: pool, statuses: statuses, log: logging.OrDiscard(log)}
}

// Ping checks the connection with a short timeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

const jobColumns = `id, external_ref, product_name, quantity, unit, priority, status,
	due_date, estimated_duration_days, is_complex, eligible_resource_tag, earliest_start, latest_finish`

// LoadSchedulableJobs implements source.JobLoader.
func (s *Store) LoadSchedulableJobs(ctx context.Context, ids []string) ([]shop.Job, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(ids) == 0 {
		rows, err = s.pool.Query(ctx, `SELECT `+jobColumns+` FROM production_plans ORDER BY id`)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+jobColumns+` FROM production_plans WHERE id = ANY($1) ORDER BY id`, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("query production plans: %w", err)
	}
	all, err := pgx.CollectRows(rows, scanJob)
	if err != nil {
		return nil, fmt.Errorf("scan production plans: %w", err)
	}

	if err := s.attachDependencies(ctx, all); err != nil {
		return nil, err
	}
	return source.Select(all, ids, s.statuses, s.log), nil
}

func scanJob(row pgx.CollectableRow) (shop.Job, error) {
	var (
		j                      shop.Job
		priority               string
		due, earliest, latest *time.Time
	)
	err := row.Scan(&j.ID, &j.ExternalRef, &j.ProductName, &j.Quantity, &j.Unit, &priority, &j.Status,
		&due, &j.EstimatedDurationDays, &j.IsComplex, &j.EligibleResourceTag, &earliest, &latest)
	if err != nil {
		return j, err
	}
	// An unknown label is left as PriorityUnknown so validation reports it
	// per job instead of failing the whole load.
	j.Priority, _ = shop.ParsePriority(priority)
	j.DueDate = deref(due)
	j.EarliestStart = deref(earliest)
	j.LatestFinish = deref(latest)
	return j, nil
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func (s *Store) attachDependencies(ctx context.Context, jobs []shop.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	ids := make([]string, len(jobs))
	index := make(map[string]int, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
		index[j.ID] = i
	}
	rows, err := s.pool.Query(ctx,
		`SELECT plan_id, depends_on FROM plan_dependencies WHERE plan_id = ANY($1) ORDER BY plan_id, depends_on`, ids)
	if err != nil {
		return fmt.Errorf("query plan dependencies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var planID, dep string
		if err := rows.Scan(&planID, &dep); err != nil {
			return fmt.Errorf("scan plan dependency: %w", err)
		}
		if i, ok := index[planID]; ok {
			jobs[i].Dependencies = append(jobs[i].Dependencies, dep)
		}
	}
	return rows.Err()
}

// LoadResourceCatalog implements source.ResourceCatalog.
func (s *Store) LoadResourceCatalog(ctx context.Context) ([]shop.Resource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, production_line, capacity_units_per_day, available_hours_per_day, tags FROM resources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	res, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shop.Resource, error) {
		var r shop.Resource
		err := row.Scan(&r.ID, &r.ProductionLine, &r.CapacityUnitsPerDay, &r.AvailableHoursPerDay, &r.Tags)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan resources: %w", err)
	}
	return res, nil
}

// SaveSchedule writes a run and its rows in one transaction. Saving the
// same run id again replaces the earlier rows.
func (s *Store) SaveSchedule(ctx context.Context, result *planner.Result) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM schedule_runs WHERE id=$1`, result.RunID); err != nil {
		return fmt.Errorf("clear run %s: %w", result.RunID, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schedule_runs (id, strategy, run_start, critical_path) VALUES ($1,$2,$3,$4)`,
		result.RunID, result.Strategy.String(), result.RunStart, nonNil(result.CriticalPath),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", result.RunID, err)
	}

	batch := &pgx.Batch{}
	for i, a := range result.Assignments {
		batch.Queue(`
			INSERT INTO schedule_assignments
				(run_id, seq, job_id, resource_id, scheduled_start, scheduled_end, utilization, warnings)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			result.RunID, i, a.JobID, a.ResourceID, a.Start, a.End, a.Utilization, nonNil(a.Warnings))
	}
	for i, u := range result.Unscheduled {
		batch.Queue(`INSERT INTO schedule_unscheduled (run_id, seq, job_id, kind, reason) VALUES ($1,$2,$3,$4,$5)`,
			result.RunID, i, u.JobID, string(u.Kind), u.Reason)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert rows for run %s: %w", result.RunID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run %s: %w", result.RunID, err)
	}
	return nil
}

// LoadAssignments returns the assignments saved for runID in their original
// order, or source.ErrNotFound if the run does not exist.
func (s *Store) LoadAssignments(ctx context.Context, runID string) ([]*shop.Assignment, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT true FROM schedule_runs WHERE id=$1`, runID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, source.ErrNotFound
		}
		return nil, fmt.Errorf("lookup run %s: %w", runID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT job_id, resource_id, scheduled_start, scheduled_end, utilization, warnings
		FROM schedule_assignments WHERE run_id=$1 ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*shop.Assignment, error) {
		a := &shop.Assignment{}
		err := row.Scan(&a.JobID, &a.ResourceID, &a.Start, &a.End, &a.Utilization, &a.Warnings)
		if len(a.Warnings) == 0 {
			a.Warnings = nil
		}
		return a, err
	})
}

// LoadSchedule reads back a run saved by SaveSchedule. The input snapshot
// is not stored, so Jobs and Resources are empty.
func (s *Store) LoadSchedule(ctx context.Context, runID string) (*planner.Result, error) {
	result := &planner.Result{RunID: runID}
	var kind string
	err := s.pool.QueryRow(ctx,
		`SELECT strategy, run_start, critical_path FROM schedule_runs WHERE id=$1`, runID,
	).Scan(&kind, &result.RunStart, &result.CriticalPath)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, source.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup run %s: %w", runID, err)
	}
	if err := result.Strategy.UnmarshalText([]byte(kind)); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	result.RunStart = result.RunStart.UTC()

	if result.Assignments, err = s.LoadAssignments(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT job_id, kind, reason FROM schedule_unscheduled WHERE run_id=$1 ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query unscheduled: %w", err)
	}
	result.Unscheduled, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (shop.Unscheduled, error) {
		var u shop.Unscheduled
		var k string
		err := row.Scan(&u.JobID, &k, &u.Reason)
		u.Kind = shop.UnscheduledKind(k)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan unscheduled: %w", err)
	}
	return result, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
