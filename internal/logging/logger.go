// Package logging provides categorized file-based logging for dashweave.
// Logs are written under the configured directory with one file per
// category. When debug mode is off the whole package is a silent no-op,
// which keeps the fill pipeline free of logging overhead in production.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category.
type Category string

const (
	CategoryBoot         Category = "boot"         // Startup and configuration
	CategorySelector     Category = "selector"     // Template scoring and selection
	CategoryFilling      Category = "filling"      // Content filling engine
	CategoryMerge        Category = "merge"        // Structure-preserving merge
	CategoryTools        Category = "tools"        // Tool registry and invocation
	CategorySearch       Category = "search"       // Search collaborator calls
	CategoryOrchestrator Category = "orchestrator" // State machine transitions
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Options configures the logging package.
type Options struct {
	// Dir is where category log files are written.
	Dir string
	// Debug enables logging; when false nothing is written.
	Debug bool
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Categories optionally restricts which categories are written.
	// Nil enables all categories.
	Categories map[string]bool
}

// Logger writes to a single category file.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	mu         sync.RWMutex
	loggers    = make(map[Category]*Logger)
	opts       Options
	level      int
	configured bool
)

// Configure initializes the package. Call once at startup; until then
// every logger is a no-op.
func Configure(o Options) error {
	mu.Lock()
	defer mu.Unlock()

	opts = o
	switch o.Level {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	default:
		level = LevelInfo
	}
	configured = true

	if !o.Debug {
		return nil
	}
	if o.Dir == "" {
		return fmt.Errorf("logging directory required in debug mode")
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func enabled(category Category) bool {
	if !configured || !opts.Debug {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	on, known := opts.Categories[string(category)]
	if !known {
		return true
	}
	return on
}

// Get returns (or creates) the logger for a category. Disabled
// categories get a no-op logger.
func Get(category Category) *Logger {
	mu.RLock()
	if !enabled(category) {
		mu.RUnlock()
		return &Logger{category: category}
	}
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	path := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] could not open %s: %v\n", path, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	if l.logger == nil || level > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	if l.logger == nil || level > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...any) {
	if l.logger == nil || level > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error. Always written when the category is enabled.
func (l *Logger) Error(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files. Call at shutdown.
func CloseAll() {
	mu.Lock()
	defer mu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Convenience functions. No-ops when the category is disabled.

func Boot(format string, args ...any)      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...any) { Get(CategoryBoot).Debug(format, args...) }

func Selector(format string, args ...any)      { Get(CategorySelector).Info(format, args...) }
func SelectorDebug(format string, args ...any) { Get(CategorySelector).Debug(format, args...) }

func Filling(format string, args ...any)      { Get(CategoryFilling).Info(format, args...) }
func FillingDebug(format string, args ...any) { Get(CategoryFilling).Debug(format, args...) }
func FillingWarn(format string, args ...any)  { Get(CategoryFilling).Warn(format, args...) }

func Merge(format string, args ...any)      { Get(CategoryMerge).Info(format, args...) }
func MergeDebug(format string, args ...any) { Get(CategoryMerge).Debug(format, args...) }

func Tools(format string, args ...any)      { Get(CategoryTools).Info(format, args...) }
func ToolsDebug(format string, args ...any) { Get(CategoryTools).Debug(format, args...) }
func ToolsWarn(format string, args ...any)  { Get(CategoryTools).Warn(format, args...) }

func Search(format string, args ...any)      { Get(CategorySearch).Info(format, args...) }
func SearchDebug(format string, args ...any) { Get(CategorySearch).Debug(format, args...) }

func Orchestrator(format string, args ...any)      { Get(CategoryOrchestrator).Info(format, args...) }
func OrchestratorDebug(format string, args ...any) { Get(CategoryOrchestrator).Debug(format, args...) }
func OrchestratorWarn(format string, args ...any)  { Get(CategoryOrchestrator).Warn(format, args...) }
func OrchestratorError(format string, args ...any) { Get(CategoryOrchestrator).Error(format, args...) }

// Timer measures an operation's duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}
