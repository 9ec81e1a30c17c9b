package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"seqlink/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Search.Root = filepath.Join(base, "plates")
	cfgVal.Index.StorePath = filepath.Join(base, "cache", "index.db")
	cfgVal.Logging.Level = "error"
	if err := os.MkdirAll(cfgVal.Search.Root, 0o755); err != nil {
		t.Fatalf("mkdir search root: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPattern sets the default filename filter.
func WithPattern(pattern, ext string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Search.Pattern = pattern
		b.cfg.Search.Ext = ext
	}
}

// WithRate overrides the fallback frame rate.
func WithRate(rate float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Search.Rate = rate
	}
}

// WithPersistentIndex enables the sqlite index store.
func WithPersistentIndex() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Index.Persist = true
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffprobe is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Search.Root)
}
