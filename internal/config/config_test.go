package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/FocuswithJustin/litereader/core/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "litereader.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Cache.Pages != 2000 {
		t.Errorf("cache.pages = %d, want 2000", cfg.Cache.Pages)
	}
	if cfg.Output.Format != OutputTable {
		t.Errorf("output.format = %q", cfg.Output.Format)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
cache:
  pages: 0
output:
  format: csv
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Cache.Pages != 0 {
		t.Errorf("cache.pages = %d, want 0", cfg.Cache.Pages)
	}
	if cfg.Output.Format != OutputCSV {
		t.Errorf("output.format = %q", cfg.Output.Format)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "output:\n  format: json\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Format != OutputJSON || cfg.Log.Level != "warn" || cfg.Cache.Pages != 2000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("LITEREADER_LOG_LEVEL", "error")
	t.Setenv("LITEREADER_CACHE_PAGES", "64")

	cfg, err := LoadConfig(writeConfig(t, "log:\n  level: info\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("log.level = %q, want env value", cfg.Log.Level)
	}
	if cfg.Cache.Pages != 64 {
		t.Errorf("cache.pages = %d, want 64", cfg.Cache.Pages)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad log format", "log:\n  format: xml\n", "log.format"},
		{"negative cache", "cache:\n  pages: -1\n", "cache.pages"},
		{"bad output", "output:\n  format: html\n", "output.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			var ve *apperrors.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
