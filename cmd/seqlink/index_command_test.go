package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"seqlink/internal/testsupport"
)

func TestIndexCommandListsAndPersistsBuckets(t *testing.T) {
	env := setupCLITestEnv(t)
	root := env.cfg.Search.Root
	testsupport.WriteSequence(t, filepath.Join(root, "a"), "plate", "exr", 1, 10, 4)
	testsupport.WriteSequence(t, filepath.Join(root, "b"), "plate", "exr", 5, 6, 4)
	testsupport.WriteFile(t, filepath.Join(root, "b", "notes.txt"), 4)

	out, _, err := runCLI(t, []string{"index", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	var report indexJSON
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode index output: %v", err)
	}
	if report.Root != root || len(report.Buckets) != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
	first := report.Buckets[0]
	if first.Identifier != "plate.####.exr" || first.Files != 10 || first.FirstFrame == nil || *first.FirstFrame != 1 || *first.LastFrame != 10 {
		t.Fatalf("unexpected first bucket %+v", first)
	}
	if notes := report.Buckets[1]; notes.Identifier != "notes.txt" || notes.FirstFrame != nil {
		t.Fatalf("expected frameless bucket before b's plates, got %+v", notes)
	}
	if _, err := os.Stat(env.cfg.Index.StorePath); err != nil {
		t.Fatalf("expected store at %s: %v", env.cfg.Index.StorePath, err)
	}

	// A new file is invisible until the root is walked again.
	testsupport.WriteSequence(t, filepath.Join(root, "c"), "late", "exr", 1, 2, 4)
	out, _, err = runCLI(t, []string{"index"}, env.configPath)
	if err != nil {
		t.Fatalf("index again: %v", err)
	}
	requireContains(t, out, "3 sequence(s)")

	out, _, err = runCLI(t, []string{"index", "--force"}, env.configPath)
	if err != nil {
		t.Fatalf("index --force: %v", err)
	}
	requireContains(t, out, "late.####.exr")
	requireContains(t, out, "4 sequence(s) in 3 director(ies)")
}

func TestIndexCommandReset(t *testing.T) {
	env := setupCLITestEnv(t)
	other := filepath.Join(env.baseDir, "other")
	testsupport.WriteSequence(t, other, "x", "png", 1, 3, 4)

	if _, _, err := runCLI(t, []string{"index", other}, env.configPath); err != nil {
		t.Fatalf("index other: %v", err)
	}
	if _, _, err := runCLI(t, []string{"index", "--reset"}, env.configPath); err != nil {
		t.Fatalf("index --reset: %v", err)
	}

	store := testsupport.MustOpenStore(t, env.cfg)
	roots, err := store.Roots(t.Context())
	if err != nil {
		t.Fatalf("Roots: %v", err)
	}
	if len(roots) != 1 || roots[0].Path != env.cfg.Search.Root {
		t.Fatalf("expected only the search root after reset, got %+v", roots)
	}
}

func TestIndexCommandEmptyAndMissingRoot(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"index"}, env.configPath)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	requireContains(t, out, "No files found")

	if _, _, err := runCLI(t, []string{"index", filepath.Join(env.baseDir, "missing")}, env.configPath); err == nil {
		t.Fatal("expected missing root to fail")
	}
}

func TestIndexCommandForget(t *testing.T) {
	env := setupCLITestEnv(t)
	other := filepath.Join(env.baseDir, "other")
	testsupport.WriteSequence(t, other, "x", "png", 1, 3, 4)
	testsupport.WriteSequence(t, env.cfg.Search.Root, "plate", "exr", 1, 2, 4)

	for _, args := range [][]string{{"index"}, {"index", other}} {
		if _, _, err := runCLI(t, args, env.configPath); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
	if err := os.RemoveAll(other); err != nil {
		t.Fatalf("remove root: %v", err)
	}

	out, _, err := runCLI(t, []string{"index", "--forget", other}, env.configPath)
	if err != nil {
		t.Fatalf("index --forget: %v", err)
	}
	requireContains(t, out, "Forgot "+other)

	store := testsupport.MustOpenStore(t, env.cfg)
	roots, err := store.Roots(t.Context())
	if err != nil {
		t.Fatalf("Roots: %v", err)
	}
	if len(roots) != 1 || roots[0].Path != env.cfg.Search.Root {
		t.Fatalf("expected only the search root after forget, got %+v", roots)
	}
}
