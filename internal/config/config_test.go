package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points HOME at a temp dir and runs from another temp dir so
// neither a real config file nor a .env leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.ImageBaseURL != "http://localhost:8000/images" {
		t.Errorf("ImageBaseURL = %q, want derived from base", cfg.API.ImageBaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.API.Timeout)
	}
	if cfg.Status.Interval != 30*time.Second {
		t.Errorf("Status.Interval = %v, want 30s", cfg.Status.Interval)
	}
	if want := filepath.Join(home, ".boardview", "logs"); cfg.Log.Dir != want {
		t.Errorf("Log.Dir = %q, want %q", cfg.Log.Dir, want)
	}
	if want := filepath.Join(home, ".boardview", "logs", "boardview.events.jsonl"); cfg.EventLogPath() != want {
		t.Errorf("EventLogPath() = %q, want %q", cfg.EventLogPath(), want)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "http://bbs.internal:9000/"
image_base_url = "http://cdn.internal/oekaki"
timeout = "5s"

[status]
interval = "1m"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOARDVIEW_STATUS_INTERVAL", "45s")
	t.Setenv("BOARDVIEW_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "http://bbs.internal:9000" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.API.BaseURL)
	}
	if cfg.API.ImageBaseURL != "http://cdn.internal/oekaki" {
		t.Errorf("ImageBaseURL = %q", cfg.API.ImageBaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.API.Timeout)
	}
	if cfg.Status.Interval != 45*time.Second {
		t.Errorf("env should override file: Interval = %v", cfg.Status.Interval)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadEnvKeyWithUnderscores(t *testing.T) {
	isolate(t)
	t.Setenv("BOARDVIEW_API_BASE_URL", "http://127.0.0.1:8123")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "http://127.0.0.1:8123" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	isolate(t)
	tests := map[string]string{
		"BOARDVIEW_API_BASE_URL":    "not a url",
		"BOARDVIEW_LOG_LEVEL":       "loud",
		"BOARDVIEW_STATUS_INTERVAL": "10ms",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(""); err == nil {
				t.Errorf("%s=%q should fail validation", key, value)
			}
		})
	}
}

func TestWriteSample(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Error("second WriteSample should refuse to overwrite")
	}
	if _, err := Load(path); err != nil {
		t.Errorf("sample should load cleanly: %v", err)
	}
}
