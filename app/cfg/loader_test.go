package cfg

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadArgs([]string{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.DBPath != "newshub.sqlite" {
		t.Errorf("Expected DB path 'newshub.sqlite', got '%s'", cfg.DBPath)
	}
	if cfg.MaxArticlesPerFeed != 100 {
		t.Errorf("Expected max articles 100, got %d", cfg.MaxArticlesPerFeed)
	}
	if cfg.FetchTimeout != 10 {
		t.Errorf("Expected fetch timeout 10, got %d", cfg.FetchTimeout)
	}
	if cfg.MaxRedirects != 5 {
		t.Errorf("Expected max redirects 5, got %d", cfg.MaxRedirects)
	}
	if cfg.SchedulerInterval != 3600 {
		t.Errorf("Expected scheduler interval 3600, got %d", cfg.SchedulerInterval)
	}
	if cfg.UserAgent != "NewsHub RSS Parser 1.0" {
		t.Errorf("Expected default user agent, got '%s'", cfg.UserAgent)
	}
	if cfg.FetchTimeoutDuration().Seconds() != 10 {
		t.Errorf("Expected 10s fetch timeout, got %v", cfg.FetchTimeoutDuration())
	}

	if Get() != cfg {
		t.Error("Expected Get to return the loaded configuration")
	}
}

func TestLoadArgsFlagsAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WORKER_COUNT", "12")

	cfg, err := LoadArgs([]string{"--max-articles-per-feed", "25", "--port", "9090"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.WorkerCount != 12 {
		t.Errorf("Expected worker count 12 from env, got %d", cfg.WorkerCount)
	}
	if cfg.MaxArticlesPerFeed != 25 {
		t.Errorf("Expected max articles 25 from flag, got %d", cfg.MaxArticlesPerFeed)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", cfg.Port)
	}
}

func TestLoadArgsReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FETCH_TIMEOUT=42\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("FETCH_TIMEOUT") })

	cfg, err := LoadArgs([]string{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.FetchTimeout != 42 {
		t.Errorf("Expected fetch timeout 42 from .env, got %d", cfg.FetchTimeout)
	}
}

func TestLoadArgsRejectsNonPositive(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadArgs([]string{"--worker-count", "0"})
	if err == nil {
		t.Fatal("Expected error for zero worker count")
	}
	if !strings.Contains(err.Error(), "worker count") {
		t.Errorf("Expected error to mention worker count, got: %v", err)
	}
}

func TestLoadArgsRejectsZeroRedirects(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadArgs([]string{"--max-redirects", "0"})
	if err == nil {
		t.Fatal("Expected error for zero max redirects")
	}
	if !strings.Contains(err.Error(), "max redirects") {
		t.Errorf("Expected error to mention max redirects, got: %v", err)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&buf, &Cfg{Debug: false, LogFormat: "json", Version: "test"})
	logger.Debug("hidden")
	logger.Info("visible", "feed", "example")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Expected debug message to be suppressed")
	}
	if !strings.Contains(out, `"feed":"example"`) {
		t.Errorf("Expected JSON attributes in output, got: %s", out)
	}
	if !strings.Contains(out, `"version":"test"`) {
		t.Errorf("Expected version attribute in output, got: %s", out)
	}
}
