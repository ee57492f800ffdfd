// Package logging provides the Printer used by core packages to report
// non-fatal events, and a Logger that appends them to .shoploom/logs.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joshharrison/shoploom/internal/config"
)

// Printer receives one formatted line per event.
type Printer interface {
	Printf(format string, args ...any)
}

type discard struct{}

func (discard) Printf(string, ...any) {}

// Discard drops everything.
var Discard Printer = discard{}

// OrDiscard returns p, or Discard when p is nil.
func OrDiscard(p Printer) Printer {
	if p == nil {
		return Discard
	}
	return p
}

// Logger appends timestamped lines to .shoploom/logs/shoploom.log.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// New creates (or reuses) the log file for the project directory.
func New(projectDir string) (*Logger, error) {
	logDir := config.LogsDir(projectDir)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "shoploom.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{file: f, now: time.Now}, nil
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Printf writes a single timestamped line to the log file. Safe for
// concurrent use by batch workers.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.file == nil {
		return
	}
	line := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.file, "[%s] %s\n", l.now().Format(time.RFC3339), line)
}

// Prefixed returns a Printer that prepends prefix to every line.
func Prefixed(p Printer, prefix string) Printer {
	return prefixed{p: OrDiscard(p), prefix: prefix}
}

type prefixed struct {
	p      Printer
	prefix string
}

func (x prefixed) Printf(format string, args ...any) {
	x.p.Printf("%s"+format, append([]any{x.prefix}, args...)...)
}
