package sequence_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"seqlink/internal/logging"
	"seqlink/internal/mediatime"
	"seqlink/internal/metadata"
	"seqlink/internal/sequence"
	"seqlink/internal/testsupport"
)

func newLinker() *sequence.Linker {
	return sequence.NewLinker(sequence.NewCache(metadata.NewNativeReader(nil), nil), logging.NewNop())
}

func TestLinkEndToEndFrameNumbers(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteSequence(t, filepath.Join(root, "plates"), "shotA", "exr", 1001, 1010, 4)
	testsupport.WriteSequence(t, filepath.Join(root, "plates"), "shotB", "exr", 1001, 1010, 4)

	results, err := newLinker().Link(context.Background(), sequence.Query{
		Root:      root,
		Pattern:   "shotA",
		Ext:       "exr",
		Start:     mediatime.FromFrames(1003, 24),
		Duration:  mediatime.FromFrames(4, 24),
		Rate:      24,
		Selection: sequence.SelectAll,
	})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one descriptor, got %d", len(results))
	}
	desc := results[0]
	if desc.StartFrame != 1001 || desc.PaddingWidth != 4 || desc.Rate != 24 || desc.FrameCount() != 10 {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
	if desc.TargetBasePath != filepath.Join(root, "plates") || desc.FirstFilename() != "shotA.1001.exr" {
		t.Fatalf("unexpected location %+v", desc)
	}
}

func TestLinkTimecodeSequences(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteEXRSequence(t, filepath.Join(root, "sh010"), "sh010_bg", 1, 48, "01:00:00:00", 24)
	testsupport.WriteEXRSequence(t, filepath.Join(root, "sh020"), "sh020_bg", 1, 48, "02:00:00:00", 24)

	start, err := mediatime.FromTimecode("02:00:01:00", 24)
	if err != nil {
		t.Fatalf("FromTimecode: %v", err)
	}
	results, err := newLinker().Link(context.Background(), sequence.Query{
		Root:     root,
		Ext:      "exr",
		Start:    start,
		Duration: mediatime.FromFrames(12, 24),
		Rate:     24,
	})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(results) != 1 || results[0].NamePrefix != "sh020_bg." || results[0].Timecode != "02:00:00:00" {
		t.Fatalf("unexpected results %+v", results)
	}
	effective := sequence.EffectiveFrameRange(results[0], mediatime.NewTimeRange(start, mediatime.FromFrames(12, 24)))
	if effective.Start.Frames() != 25 {
		t.Fatalf("effective start = %s", effective.Start)
	}
}

func TestLinkSelectionAndClipName(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteSequence(t, filepath.Join(root, "a"), "sh010_plate", "exr", 1, 20, 4)
	testsupport.WriteSequence(t, filepath.Join(root, "b"), "sh020_plate", "exr", 1, 20, 4)
	linker := newLinker()
	ctx := context.Background()
	query := sequence.Query{
		Root:      root,
		Ext:       "exr",
		Start:     mediatime.FromFrames(5, 24),
		Duration:  mediatime.FromFrames(5, 24),
		Rate:      24,
		Selection: sequence.SelectAll,
	}

	all, err := linker.Link(ctx, query)
	if err != nil || len(all) != 2 {
		t.Fatalf("SelectAll: %d results, err %v", len(all), err)
	}

	query.Selection = sequence.SelectFirst
	first, err := linker.Link(ctx, query)
	if err != nil || len(first) != 1 || first[0].NamePrefix != "sh010_plate." {
		t.Fatalf("SelectFirst: %+v, err %v", first, err)
	}

	query.Selection = sequence.SelectAll
	query.ClipName = "sh020"
	named, err := linker.Link(ctx, query)
	if err != nil || len(named) != 1 || named[0].NamePrefix != "sh020_plate." {
		t.Fatalf("ClipName: %+v, err %v", named, err)
	}
}

func TestLinkClipNameIsNormalized(t *testing.T) {
	root := t.TempDir()
	// File name in decomposed form (e + combining acute).
	testsupport.WriteSequence(t, root, "cafe\u0301_plate", "exr", 1, 5, 4)

	results, err := newLinker().Link(context.Background(), sequence.Query{
		Root:     root,
		Start:    mediatime.FromFrames(1, 24),
		Duration: mediatime.FromFrames(2, 24),
		Rate:     24,
		ClipName: "caf\u00e9",
	})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected normalized clip name to match, got %d results", len(results))
	}
}

func TestLinkReturnsNothingWhenNothingMatches(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteSequence(t, root, "shotA", "exr", 1001, 1010, 4)

	results, err := newLinker().Link(context.Background(), sequence.Query{
		Root:     root,
		Pattern:  "shotA",
		Ext:      "exr",
		Start:    mediatime.FromFrames(2000, 24),
		Duration: mediatime.FromFrames(10, 24),
		Rate:     24,
	})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results, got %+v", results)
	}
}

func TestLinkRejectsBadQueries(t *testing.T) {
	linker := newLinker()
	ctx := context.Background()
	_, err := linker.Link(ctx, sequence.Query{
		Root:     filepath.Join(t.TempDir(), "missing"),
		Start:    mediatime.FromFrames(1, 24),
		Duration: mediatime.FromFrames(1, 24),
		Rate:     24,
	})
	if !errors.Is(err, sequence.ErrNotDirectory) {
		t.Fatalf("expected ErrNotDirectory, got %v", err)
	}

	_, err = linker.Link(ctx, sequence.Query{
		Root:     t.TempDir(),
		Pattern:  "(",
		Start:    mediatime.FromFrames(1, 24),
		Duration: mediatime.FromFrames(1, 24),
		Rate:     24,
	})
	if err == nil {
		t.Fatal("expected invalid pattern error")
	}

	_, err = linker.Link(ctx, sequence.Query{Root: t.TempDir()})
	if !errors.Is(err, mediatime.ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

func TestLinkReusesIndexAcrossQueries(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteSequence(t, root, "shotA", "exr", 1, 10, 4)
	cache := sequence.NewCache(metadata.NewNativeReader(nil), nil)
	linker := sequence.NewLinker(cache, logging.NewNop())
	query := sequence.Query{
		Root:     root,
		Start:    mediatime.FromFrames(1, 24),
		Duration: mediatime.FromFrames(1, 24),
		Rate:     24,
	}
	if _, err := linker.Link(context.Background(), query); err != nil {
		t.Fatalf("Link: %v", err)
	}
	testsupport.WriteSequence(t, root, "shotB", "exr", 1, 10, 4)
	results, err := linker.Link(context.Background(), query)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("second query should not re-walk the root, got %d results", len(results))
	}
	if cache.Stats().Buckets != 1 {
		t.Fatalf("unexpected stats %+v", cache.Stats())
	}
}
