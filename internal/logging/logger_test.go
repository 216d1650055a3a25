package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func reset() {
	mu.Lock()
	loggers = make(map[Category]*Logger)
	opts = Options{}
	configured = false
	mu.Unlock()
}

func TestDisabledIsNoOp(t *testing.T) {
	reset()
	if err := Configure(Options{Debug: false}); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	// Must not panic or create files.
	Filling("hello %s", "world")
	Get(CategoryMerge).Error("still a no-op")
}

func TestWritesCategoryFile(t *testing.T) {
	reset()
	dir := t.TempDir()
	if err := Configure(Options{Dir: dir, Debug: true, Level: "debug"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	defer CloseAll()

	Tools("registered %d tools", 3)

	matches, err := filepath.Glob(filepath.Join(dir, "*_tools.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one tools log file, got %v (%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "registered 3 tools") {
		t.Errorf("log content missing message: %s", data)
	}
}

func TestLevelFiltering(t *testing.T) {
	reset()
	dir := t.TempDir()
	if err := Configure(Options{Dir: dir, Debug: true, Level: "warn"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	defer CloseAll()

	l := Get(CategorySelector)
	l.Info("should be filtered")
	l.Warn("should appear")

	matches, _ := filepath.Glob(filepath.Join(dir, "*_selector.log"))
	if len(matches) != 1 {
		t.Fatalf("expected selector log, got %v", matches)
	}
	data, _ := os.ReadFile(matches[0])
	if strings.Contains(string(data), "should be filtered") {
		t.Error("info line written despite warn level")
	}
	if !strings.Contains(string(data), "should appear") {
		t.Error("warn line missing")
	}
}

func TestCategoryFilter(t *testing.T) {
	reset()
	dir := t.TempDir()
	err := Configure(Options{
		Dir:        dir,
		Debug:      true,
		Categories: map[string]bool{"search": false},
	})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	defer CloseAll()

	Search("hidden")
	Merge("visible")

	if matches, _ := filepath.Glob(filepath.Join(dir, "*_search.log")); len(matches) != 0 {
		t.Error("disabled category produced a file")
	}
	if matches, _ := filepath.Glob(filepath.Join(dir, "*_merge.log")); len(matches) != 1 {
		t.Error("enabled category missing file")
	}
}
