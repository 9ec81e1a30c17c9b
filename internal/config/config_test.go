package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"seqlink/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("SEQLINK_ROOT", "")
	t.Setenv("SEQLINK_RATE", "")
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Search.Root != tempHome {
		t.Fatalf("expected root to resolve to cwd %q, got %q", tempHome, cfg.Search.Root)
	}
	if cfg.Search.Rate != 24 {
		t.Fatalf("unexpected default rate: %v", cfg.Search.Rate)
	}
	if cfg.Search.Selection != config.SelectionFirst {
		t.Fatalf("unexpected default selection: %q", cfg.Search.Selection)
	}
	if !cfg.Search.MatchClipName {
		t.Fatal("expected clip name matching enabled by default")
	}
	if cfg.Metadata.Backend != "native" {
		t.Fatalf("unexpected metadata backend: %q", cfg.Metadata.Backend)
	}
	wantStore := filepath.Join(tempHome, ".cache", "seqlink", "index.db")
	if cfg.Index.StorePath != wantStore {
		t.Fatalf("unexpected store path: got %q want %q", cfg.Index.StorePath, wantStore)
	}
	if cfg.Index.Persist {
		t.Fatal("expected index persistence disabled by default")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "seqlink.toml")

	type payload struct {
		Search struct {
			Root      string  `toml:"root"`
			Pattern   string  `toml:"pattern"`
			Ext       string  `toml:"ext"`
			Rate      float64 `toml:"rate"`
			Selection string  `toml:"selection"`
		} `toml:"search"`
		Metadata struct {
			Backend string `toml:"backend"`
		} `toml:"metadata"`
		Index struct {
			Persist   bool   `toml:"persist"`
			StorePath string `toml:"store_path"`
		} `toml:"index"`
	}
	custom := payload{}
	custom.Search.Root = filepath.Join(tempDir, "plates")
	custom.Search.Pattern = ".*proxy.*"
	custom.Search.Ext = ".DPX"
	custom.Search.Rate = 23.976
	custom.Search.Selection = " ALL "
	custom.Metadata.Backend = "FFprobe"
	custom.Index.Persist = true
	custom.Index.StorePath = filepath.Join(tempDir, "cache", "index.db")
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Search.Root != custom.Search.Root {
		t.Fatalf("unexpected root: %q", cfg.Search.Root)
	}
	if cfg.Search.Ext != "DPX" {
		t.Fatalf("expected leading dot trimmed from ext, got %q", cfg.Search.Ext)
	}
	if cfg.Search.Selection != config.SelectionAll {
		t.Fatalf("expected normalized selection, got %q", cfg.Search.Selection)
	}
	if cfg.Metadata.Backend != "ffprobe" {
		t.Fatalf("expected normalized backend, got %q", cfg.Metadata.Backend)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if info, err := os.Stat(filepath.Join(tempDir, "cache")); err != nil || !info.IsDir() {
		t.Fatalf("expected index store directory to be created: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("SEQLINK_ROOT", filepath.Join(tempDir, "shots"))
	t.Setenv("SEQLINK_RATE", "25")

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Search.Root != filepath.Join(tempDir, "shots") {
		t.Fatalf("expected root from env, got %q", cfg.Search.Root)
	}
	if cfg.Search.Rate != 25 {
		t.Fatalf("expected rate from env, got %v", cfg.Search.Rate)
	}

	t.Setenv("SEQLINK_RATE", "fast")
	if _, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml")); err == nil {
		t.Fatal("expected invalid SEQLINK_RATE to fail")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"rate", func(c *config.Config) { c.Search.Rate = 0 }, "search.rate"},
		{"selection", func(c *config.Config) { c.Search.Selection = "best" }, "search.selection"},
		{"pattern", func(c *config.Config) { c.Search.Pattern = "([" }, "search.pattern"},
		{"backend", func(c *config.Config) { c.Metadata.Backend = "oiio" }, "metadata.backend"},
		{"timeout", func(c *config.Config) { c.Metadata.TimeoutSeconds = 0 }, "metadata.timeout_seconds"},
	}
	for _, tt := range tests {
		cfg := config.Default()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tt.name)
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: expected error mentioning %q, got %v", tt.name, tt.want, err)
		}
	}
}

func TestCreateSampleLoads(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	target := filepath.Join(tempDir, "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Search.Ext != "exr" {
		t.Fatalf("unexpected sample ext: %q", cfg.Search.Ext)
	}
	if cfg.Search.Root != filepath.Join(tempDir, "plates") {
		t.Fatalf("unexpected sample root: %q", cfg.Search.Root)
	}
}
