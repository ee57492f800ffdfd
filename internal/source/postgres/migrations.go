package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS production_plans (
	id TEXT PRIMARY KEY,
	external_ref TEXT NOT NULL DEFAULT '',
	product_name TEXT NOT NULL DEFAULT '',
	quantity INTEGER NOT NULL DEFAULT 0,
	unit TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT 'medium',
	status TEXT NOT NULL DEFAULT 'pending',
	due_date TIMESTAMPTZ,
	estimated_duration_days INTEGER NOT NULL DEFAULT 0,
	is_complex BOOLEAN NOT NULL DEFAULT false,
	eligible_resource_tag TEXT NOT NULL DEFAULT '',
	earliest_start TIMESTAMPTZ,
	latest_finish TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS plan_dependencies (
	plan_id TEXT NOT NULL REFERENCES production_plans(id) ON DELETE CASCADE,
	depends_on TEXT NOT NULL,
	PRIMARY KEY (plan_id, depends_on)
);

CREATE TABLE IF NOT EXISTS resources (
	id TEXT PRIMARY KEY,
	production_line TEXT NOT NULL DEFAULT '',
	capacity_units_per_day INTEGER NOT NULL,
	available_hours_per_day DOUBLE PRECISION NOT NULL DEFAULT 8,
	tags TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS schedule_runs (
	id TEXT PRIMARY KEY,
	strategy TEXT NOT NULL,
	run_start TIMESTAMPTZ NOT NULL,
	critical_path TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS schedule_assignments (
	run_id TEXT NOT NULL REFERENCES schedule_runs(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	job_id TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	scheduled_start TIMESTAMPTZ NOT NULL,
	scheduled_end TIMESTAMPTZ NOT NULL,
	utilization DOUBLE PRECISION NOT NULL,
	warnings TEXT[] NOT NULL DEFAULT '{}',
	PRIMARY KEY (run_id, job_id)
);

CREATE TABLE IF NOT EXISTS schedule_unscheduled (
	run_id TEXT NOT NULL REFERENCES schedule_runs(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	job_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_production_plans_status ON production_plans(status);
CREATE INDEX IF NOT EXISTS idx_schedule_assignments_resource ON schedule_assignments(run_id, resource_id);
`

// Migrate creates the tables the store reads and writes.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
