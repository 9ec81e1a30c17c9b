package sequence_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"seqlink/internal/mediatime"
	"seqlink/internal/metadata"
	"seqlink/internal/sequence"
	"seqlink/internal/testsupport"
)

func frameCriteria(t *testing.T, first, last int) sequence.Criteria {
	t.Helper()
	criteria, err := sequence.OverlapCriteria(nil,
		mediatime.FromFrames(first, 24),
		mediatime.FromFrames(last-first+1, 24),
		24)
	if err != nil {
		t.Fatalf("OverlapCriteria: %v", err)
	}
	return criteria
}

func onlyBucket(t *testing.T, cache *sequence.Cache, root string) *sequence.Bucket {
	t.Helper()
	if err := cache.Index(root, false); err != nil {
		t.Fatalf("Index: %v", err)
	}
	buckets := cache.Buckets(root)
	if len(buckets) != 1 {
		t.Fatalf("expected one bucket, got %d", len(buckets))
	}
	return buckets[0]
}

func TestOperatorHolds(t *testing.T) {
	tests := []struct {
		op   sequence.Operator
		cmp  int
		want bool
	}{
		{sequence.GreaterEqual, 0, true},
		{sequence.GreaterEqual, -1, false},
		{sequence.Greater, 0, false},
		{sequence.Greater, 1, true},
		{sequence.LessEqual, 0, true},
		{sequence.LessEqual, 1, false},
		{sequence.Less, 0, false},
		{sequence.Less, -1, true},
		{sequence.Any, 1, true},
	}
	for _, tc := range tests {
		if got := tc.op.Holds(tc.cmp); got != tc.want {
			t.Fatalf("%s.Holds(%d) = %v, want %v", tc.op, tc.cmp, got, tc.want)
		}
	}
}

func TestNewFilter(t *testing.T) {
	tests := []struct {
		pattern, ext, basename string
		path                   string
		want                   bool
	}{
		{"shotA", "exr", "", "/plates/shotA.1001.exr", true},
		{"shotA", "exr", "", "/plates/shotA.1001.dpx", false},
		{"shotA", "", "", "/plates/shotA.1001.dpx", true},
		{"", "", "", "/plates/anything", true},
		{".*proxy.*", "exr", "", "/plates/sh010_proxy-3k.1001.exr", true},
		{"", ".exr", "", "/plates/a.0001.exr", true},
		{"", "exr", "sh010_bg", "/plates/sh010_bg.1001.exr", true},
		{"", "exr", "sh010_bg", "/plates/xsh010_bg.1001.exr", false},
		{"", "exr", "sh010_bg", "/plates/sh010_bg/other.1001.exr", false},
	}
	for _, tc := range tests {
		re, err := sequence.NewFilter(tc.pattern, tc.ext, tc.basename)
		if err != nil {
			t.Fatalf("NewFilter(%q, %q, %q): %v", tc.pattern, tc.ext, tc.basename, err)
		}
		if got := re.MatchString(tc.path); got != tc.want {
			t.Fatalf("filter %s on %q = %v, want %v", re, tc.path, got, tc.want)
		}
	}

	if _, err := sequence.NewFilter("(", "exr", ""); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestMatchesFrameFallback(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteSequence(t, root, "plate", "exr", 100, 199, 4)
	cache := sequence.NewCache(metadata.Nop{}, nil)
	b := onlyBucket(t, cache, root)
	ctx := context.Background()

	if !cache.Matches(ctx, b, frameCriteria(t, 150, 160)) {
		t.Fatal("expected [150,160] to match frames 100..199")
	}
	if cache.Matches(ctx, b, frameCriteria(t, 200, 210)) {
		t.Fatal("expected [200,210] to be rejected")
	}
}

func TestMatchesFrameBoundaries(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteSequence(t, root, "plate", "exr", 100, 199, 4)
	cache := sequence.NewCache(metadata.Nop{}, nil)
	b := onlyBucket(t, cache, root)
	ctx := context.Background()

	tests := []struct {
		frame int
		want  bool
	}{
		{99, false},
		{100, true},
		{199, true},
		{200, false},
	}
	for _, tc := range tests {
		if got := cache.Matches(ctx, b, frameCriteria(t, tc.frame, tc.frame)); got != tc.want {
			t.Fatalf("single frame %d: got %v, want %v", tc.frame, got, tc.want)
		}
	}

	// A range ending exactly where the bucket starts does not overlap it.
	if cache.Matches(ctx, b, frameCriteria(t, 90, 99)) {
		t.Fatal("range [90,100) should not overlap [100,200)")
	}
	if !cache.Matches(ctx, b, frameCriteria(t, 90, 100)) {
		t.Fatal("range [90,101) should overlap [100,200)")
	}
}

func TestMatchesTimecodeBoundaries(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteEXRSequence(t, root, "sh010", 1001, 1010, "01:00:00:00", 24)
	cache := sequence.NewCache(metadata.NewNativeReader(nil), nil)
	b := onlyBucket(t, cache, root)
	ctx := context.Background()

	t0, err := mediatime.FromTimecode("01:00:00:00", 24)
	if err != nil {
		t.Fatalf("FromTimecode: %v", err)
	}
	tests := []struct {
		offset int
		want   bool
	}{
		{-1, false},
		{0, true},
		{9, true},
		{10, false},
	}
	for _, tc := range tests {
		start := t0.Add(mediatime.FromFrames(tc.offset, 24))
		criteria, err := sequence.OverlapCriteria(nil, start, mediatime.FromFrames(1, 24), 24)
		if err != nil {
			t.Fatalf("OverlapCriteria: %v", err)
		}
		if got := cache.Matches(ctx, b, criteria); got != tc.want {
			t.Fatalf("offset %d: got %v, want %v", tc.offset, got, tc.want)
		}
	}

	if tc, ok := b.TimecodeIn(); !ok || tc != "01:00:00:00" {
		t.Fatalf("timecode in = %q", tc)
	}
	if tc, ok := b.TimecodeOut(); !ok || tc != "01:00:00:09" {
		t.Fatalf("timecode out = %q", tc)
	}
	if rate, ok := b.FrameRate(); !ok || rate != 24 {
		t.Fatalf("frame rate = %v", rate)
	}
}

func TestMatchesProbesFirstAndLastOnce(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteSequence(t, root, "plate", "exr", 1, 50, 4)

	var calls atomic.Int32
	var paths []string
	reader := metadata.ReaderFunc(func(_ context.Context, path string) metadata.Info {
		calls.Add(1)
		paths = append(paths, filepath.Base(path))
		if filepath.Base(path) == "plate.0001.exr" {
			return metadata.Info{Timecode: "00:00:01:00", FrameRate: 24}
		}
		return metadata.Info{Timecode: "00:00:03:01", FrameRate: 24}
	})
	cache := sequence.NewCache(reader, nil)
	b := onlyBucket(t, cache, root)
	ctx := context.Background()

	criteria, err := sequence.OverlapCriteria(nil, mediatime.FromFrames(30, 24), mediatime.FromFrames(5, 24), 24)
	if err != nil {
		t.Fatalf("OverlapCriteria: %v", err)
	}
	for range 3 {
		if !cache.Matches(ctx, b, criteria) {
			t.Fatal("expected match")
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 probes, got %d (%v)", calls.Load(), paths)
	}
	if paths[0] != "plate.0001.exr" || paths[1] != "plate.0050.exr" {
		t.Fatalf("unexpected probe order %v", paths)
	}
}

func TestMatchesShortCircuitsOnFirstFile(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteSequence(t, root, "plate", "exr", 1, 50, 4)

	var probed []string
	reader := metadata.ReaderFunc(func(_ context.Context, path string) metadata.Info {
		probed = append(probed, filepath.Base(path))
		return metadata.Info{Timecode: "01:00:00:00", FrameRate: 24}
	})
	cache := sequence.NewCache(reader, nil)
	b := onlyBucket(t, cache, root)

	// Query ends before the bucket's first timecode.
	criteria, err := sequence.OverlapCriteria(nil, mediatime.FromFrames(0, 24), mediatime.FromFrames(10, 24), 24)
	if err != nil {
		t.Fatalf("OverlapCriteria: %v", err)
	}
	if cache.Matches(context.Background(), b, criteria) {
		t.Fatal("expected rejection")
	}
	if len(probed) != 1 {
		t.Fatalf("last file should not be probed, probed %v", probed)
	}
}

func TestMatchesRejectsOnFilterAndMissingFrames(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "notes.txt"), 1)
	cache := sequence.NewCache(metadata.Nop{}, nil)
	b := onlyBucket(t, cache, root)

	if cache.Matches(context.Background(), b, frameCriteria(t, 0, 100)) {
		t.Fatal("bucket without frame numbers must be rejected")
	}

	root = t.TempDir()
	testsupport.WriteSequence(t, root, "plate", "dpx", 1, 10, 4)
	b = onlyBucket(t, cache, root)
	filter, err := sequence.NewFilter("plate", "exr", "")
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	criteria := frameCriteria(t, 1, 10)
	criteria.Filter = filter
	if cache.Matches(context.Background(), b, criteria) {
		t.Fatal("extension filter should reject dpx files")
	}
	if b.Memo().FirstProbed {
		t.Fatal("filtered bucket should not be probed")
	}
}

func TestMatchesRejectsMissingLastTimecode(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteSequence(t, root, "plate", "exr", 1, 10, 4)
	reader := metadata.ReaderFunc(func(_ context.Context, path string) metadata.Info {
		if filepath.Base(path) == "plate.0001.exr" {
			return metadata.Info{Timecode: "00:00:00:00"}
		}
		return metadata.Info{}
	})
	cache := sequence.NewCache(reader, nil)
	b := onlyBucket(t, cache, root)
	if cache.Matches(context.Background(), b, frameCriteria(t, 0, 5)) {
		t.Fatal("expected rejection when the last file has no timecode")
	}
}
