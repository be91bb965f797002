package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.Default != "cafef" {
		t.Errorf("source = %q, want cafef", cfg.Source.Default)
	}
	if cfg.Source.UserAgent != "Mozilla/5.0" {
		t.Errorf("user agent = %q", cfg.Source.UserAgent)
	}
	if cfg.Source.TimeoutSeconds != 30 {
		t.Errorf("timeout = %d, want 30", cfg.Source.TimeoutSeconds)
	}
	if cfg.Source.AllowPartial {
		t.Error("partial loads should be off by default")
	}
	if cfg.Chart.Theme != "white" || cfg.Chart.Width != "1000px" || cfg.Chart.Height != "460px" {
		t.Errorf("chart defaults = %s %s %s", cfg.Chart.Theme, cfg.Chart.Width, cfg.Chart.Height)
	}
	if cfg.Watch.WindowDays != 90 {
		t.Errorf("window = %d, want 90", cfg.Watch.WindowDays)
	}
	if cfg.Watch.Cron == "" {
		t.Error("watch cron default missing")
	}
	if cfg.Finance.ItemNames["53030"] != "roe" {
		t.Errorf("item names = %v", cfg.Finance.ItemNames)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("log defaults = %s %s", cfg.Log.Level, cfg.Log.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_ReadsYAML(t *testing.T) {
	content := `
source:
  default: vnd
  timeout_seconds: 10
  allow_partial: true
watch:
  symbols: [VNM, FPT]
  window_days: 30
log:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.Default != "vnd" {
		t.Errorf("source = %q, want vnd", cfg.Source.Default)
	}
	if cfg.Source.TimeoutSeconds != 10 {
		t.Errorf("timeout = %d, want 10", cfg.Source.TimeoutSeconds)
	}
	if !cfg.Source.AllowPartial {
		t.Error("allow_partial not read")
	}
	if len(cfg.Watch.Symbols) != 2 || cfg.Watch.Symbols[0] != "VNM" {
		t.Errorf("watch symbols = %v", cfg.Watch.Symbols)
	}
	if cfg.Watch.WindowDays != 30 {
		t.Errorf("window = %d, want 30", cfg.Watch.WindowDays)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Log.Level)
	}
	// Unset keys still get defaults.
	if cfg.Source.UserAgent != "Mozilla/5.0" {
		t.Errorf("user agent = %q", cfg.Source.UserAgent)
	}
	if cfg.Chart.Theme != "white" {
		t.Errorf("theme = %q", cfg.Chart.Theme)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("source: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VNQUANT_SOURCE", "mock")
	t.Setenv("VNQUANT_ALLOW_PARTIAL", "true")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("WATCH_CRON", "0 0 16 * * 1-5")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.Default != "mock" {
		t.Errorf("source = %q, want mock", cfg.Source.Default)
	}
	if !cfg.Source.AllowPartial {
		t.Error("allow partial env override lost")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Watch.Cron != "0 0 16 * * 1-5" {
		t.Errorf("cron = %q", cfg.Watch.Cron)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad source", func(c *Config) { c.Source.Default = "yahoo" }, true},
		{"zero timeout", func(c *Config) { c.Source.TimeoutSeconds = 0 }, true},
		{"negative window", func(c *Config) { c.Watch.WindowDays = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
