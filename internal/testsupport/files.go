package testsupport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"seqlink/internal/mediatime"
	"seqlink/internal/metadata"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSequence creates frames first..last of dir/prefix.NNNN.ext (zero
// padded to width) with no embedded metadata and returns the file names.
func WriteSequence(t testing.TB, dir, prefix, ext string, first, last, width int) []string {
	t.Helper()

	var names []string
	for frame := first; frame <= last; frame++ {
		name := fmt.Sprintf("%s.%0*d.%s", prefix, width, frame, ext)
		WriteFile(t, filepath.Join(dir, name), 16)
		names = append(names, name)
	}
	return names
}

// WriteEXRSequence creates frames first..last of dir/prefix.NNNN.exr whose
// headers carry consecutive timecodes starting at startTC and the given rate.
func WriteEXRSequence(t testing.TB, dir, prefix string, first, last int, startTC string, fps int32) []string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	rate := float64(fps)
	start, err := mediatime.FromTimecode(startTC, rate)
	if err != nil {
		t.Fatalf("parse start timecode %q: %v", startTC, err)
	}
	var names []string
	for frame := first; frame <= last; frame++ {
		tc, err := mediatime.ToTimecode(start.Add(mediatime.FromFrames(frame-first, rate)), rate)
		if err != nil {
			t.Fatalf("format timecode: %v", err)
		}
		var buf bytes.Buffer
		if err := metadata.WriteEXRHeader(&buf, tc, fps, 1); err != nil {
			t.Fatalf("write exr header: %v", err)
		}
		name := fmt.Sprintf("%s.%04d.exr", prefix, frame)
		if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		names = append(names, name)
	}
	return names
}
