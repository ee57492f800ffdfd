// Package state persists the most recent schedule run under .shoploom/ and
// keeps earlier runs in .shoploom/history/<run-id>/.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joshharrison/shoploom/internal/config"
	"github.com/joshharrison/shoploom/internal/planner"
)

const (
	runFile    = "schedule.json"
	historyDir = "history"
)

// ErrNoRun is returned when there is no saved run to load.
var ErrNoRun = errors.New("no saved schedule run")

// Run is one persisted invocation: one result per batch.
type Run struct {
	ID      string            `json:"id"`
	SavedAt time.Time         `json:"saved_at"`
	Source  string            `json:"source,omitempty"`
	Results []*planner.Result `json:"results"`

	// Key is the history directory an archived run was read from. It equals
	// ID except for older runs that share an id with a newer one.
	Key string `json:"-"`
}

// Totals returns assigned and unscheduled counts across batches.
func (r *Run) Totals() (assigned, unscheduled int) {
	for _, res := range r.Results {
		assigned += len(res.Assignments)
		unscheduled += len(res.Unscheduled)
	}
	return assigned, unscheduled
}

// Store reads and writes runs for one project directory.
type Store struct {
	root string
}

// Open returns the store for projectDir. Nothing is created until Save.
func Open(projectDir string) *Store {
	return &Store{root: filepath.Join(projectDir, config.Dir)}
}

func (s *Store) currentPath() string {
	return filepath.Join(s.root, runFile)
}

// Exists reports whether a current run is saved.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.currentPath())
	return err == nil
}

// Save writes run as the current run.
func (s *Store) Save(run *Run) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	return writeRun(s.currentPath(), run)
}

// Load reads the current run.
func (s *Store) Load() (*Run, error) {
	return readRun(s.currentPath())
}

// Archive moves the current run into history. It is a no-op when there is
// no current run. Run ids are derived from the inputs, so rescheduling an
// unchanged snapshot repeats an id: the older archive is then moved aside
// to <id>-<saved-at> and the newer one takes the plain id.
func (s *Store) Archive() error {
	run, err := s.Load()
	if errors.Is(err, ErrNoRun) {
		return nil
	}
	if err != nil {
		return err
	}
	dir := filepath.Join(s.root, historyDir, run.ID)
	if old, err := readRun(filepath.Join(dir, runFile)); err == nil {
		if err := os.Rename(dir, s.freeHistoryDir(run.ID+"-"+old.SavedAt.UTC().Format("20060102T150405Z"))); err != nil {
			return fmt.Errorf("archive run %s: move earlier copy: %w", run.ID, err)
		}
	} else if !errors.Is(err, ErrNoRun) {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	if err := os.Rename(s.currentPath(), filepath.Join(dir, runFile)); err != nil {
		return fmt.Errorf("archive run %s: %w", run.ID, err)
	}
	return nil
}

// freeHistoryDir returns a history path for name that is not taken yet.
func (s *Store) freeHistoryDir(name string) string {
	base := filepath.Join(s.root, historyDir, name)
	path := base
	for i := 2; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return path
		}
		path = fmt.Sprintf("%s-%d", base, i)
	}
}

// LoadArchived reads an archived run by its history key (the run id, or
// the suffixed key ListHistory reports for an older duplicate).
func (s *Store) LoadArchived(key string) (*Run, error) {
	run, err := readRun(filepath.Join(s.root, historyDir, key, runFile))
	if err != nil {
		return nil, err
	}
	run.Key = key
	return run, nil
}

// ListHistory returns archived runs, oldest first.
func (s *Store) ListHistory() ([]*Run, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, historyDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var runs []*Run
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		run, err := s.LoadArchived(e.Name())
		if errors.Is(err, ErrNoRun) {
			continue
		}
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		if !runs[i].SavedAt.Equal(runs[j].SavedAt) {
			return runs[i].SavedAt.Before(runs[j].SavedAt)
		}
		return runs[i].Key < runs[j].Key
	})
	return runs, nil
}

// LoadPrevious returns the most recently archived run.
func (s *Store) LoadPrevious() (*Run, error) {
	runs, err := s.ListHistory()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRun
	}
	return runs[len(runs)-1], nil
}

// Clean removes the current run, keeping history.
func (s *Store) Clean() error {
	err := os.Remove(s.currentPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func writeRun(path string, run *Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func readRun(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parse run %s: %w", path, err)
	}
	return &run, nil
}
