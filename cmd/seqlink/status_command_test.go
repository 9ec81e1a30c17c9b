package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"seqlink/internal/testsupport"
)

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Configuration ==")
	requireContains(t, out, env.configPath)
	requireContains(t, out, "[OK] "+env.cfg.Search.Root+" (read ok)")
	requireContains(t, out, "Disabled")
}

func TestStatusReportsPersistedRoots(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithPersistentIndex())
	testsupport.WriteSequence(t, filepath.Join(env.cfg.Search.Root, "a"), "plate", "exr", 1, 4, 4)

	if _, _, err := runCLI(t, []string{"index"}, env.configPath); err != nil {
		t.Fatalf("index: %v", err)
	}
	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var report statusJSON
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !report.ConfigSeen || !report.Persist || report.Backend != "native" {
		t.Fatalf("unexpected status %+v", report)
	}
	if len(report.Roots) != 1 || report.Roots[0].Buckets != 1 || report.Roots[0].Files != 4 {
		t.Fatalf("unexpected roots %+v", report.Roots)
	}
	for _, check := range report.Checks {
		if !check.Passed {
			t.Fatalf("unexpected failed check %+v", check)
		}
	}
}

func TestStatusMissingRootReportsError(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Search.Root = filepath.Join(env.baseDir, "gone")
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "does not exist")
}
