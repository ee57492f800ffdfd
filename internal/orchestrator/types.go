package orchestrator

import (
	"io"
	"time"

	"github.com/joshharrison/shoploom/internal/planner"
	"github.com/joshharrison/shoploom/internal/strategy"
)

// Config holds orchestrator configuration.
type Config struct {
	MaxParallel int
	Strategy    strategy.Kind
	RunStart    time.Time
	Quiet       bool
	Progress    io.Writer // progress lines; default os.Stderr
}

// Batch is one independent scheduling request. Batches never share
// resource timelines, even when they name the same resources.
type Batch struct {
	Name string
	IDs  []string // job ids; empty means every schedulable job
}

// BatchStatus is the outcome of one batch.
type BatchStatus string

const (
	StatusPending   BatchStatus = "pending"
	StatusCompleted BatchStatus = "completed"
	StatusFailed    BatchStatus = "failed"
	StatusCancelled BatchStatus = "cancelled"
)

// BatchResult is reported for every batch, in batch order.
type BatchResult struct {
	Index    int
	Name     string
	Status   BatchStatus
	Result   *planner.Result
	Err      error
	Duration time.Duration
}

// batchDone communicates batch completion from worker goroutines to the
// main loop.
type batchDone struct {
	Index    int
	Result   *planner.Result
	Err      error
	Duration time.Duration
}
